package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resumeforge/internal/config"
)

// Client 调用 chat-completions 风格的 LLM API，为简历区块生成改写建议。
// 网络错误与 5xx 会在有限次数内退避重试；4xx 不重试。
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// ErrUpstream 表示 LLM 服务本身不可用或返回了无法使用的结果。
// handler 把它映射为域失败（422），不作为内部错误处理。
var ErrUpstream = errors.New("llm upstream failure")

const maxAttempts = 3

// NewClient 构造 LLM 客户端。配置有效性由 config.CheckLLM 提前保证。
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SuggestSection 请求针对某个简历区块的改进建议，返回逐条建议文本。
func (c *Client) SuggestSection(ctx context.Context, section, text string) ([]string, error) {
	system := "You are a resume-writing assistant. Reply with one suggestion per line. " +
		"Each line is a single concrete rewrite or improvement. No numbering, no preamble."
	user := fmt.Sprintf("Improve the %q section of this resume:\n\n%s", section, text)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("%w: undecodable response: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUpstream)
	}

	suggestions := splitSuggestions(parsed.Choices[0].Message.Content)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return suggestions, nil
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUpstream, err)
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, readErr)
			}
			return data, nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
			continue
		default:
			// 4xx 重试不会有不同结果。
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		}
	}
	return nil, lastErr
}

func splitSuggestions(content string) []string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
