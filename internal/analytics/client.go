package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"resumeforge/internal/config"
)

// Client 向外部采集端点上报产品事件。上报是 fire-and-forget：
// 在独立 goroutine 里带独立超时执行，任何失败只记日志，
// 绝不阻塞也绝不影响主请求的响应。
type Client struct {
	endpoint string
	apiKey   string
	enabled  bool
	http     *http.Client
	logger   *slog.Logger
}

const captureTimeout = 3 * time.Second

// NewClient 构造采集客户端。配置缺失时客户端被禁用而不是报错。
func NewClient(cfg config.AnalyticsConfig, logger *slog.Logger) *Client {
	status := config.CheckAnalytics(cfg)
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		enabled:  status.OK,
		http:     &http.Client{Timeout: captureTimeout},
		logger:   logger,
	}
}

// Enabled 报告采集是否已配置。
func (c *Client) Enabled() bool { return c.enabled }

type captureEvent struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Capture 异步上报一个事件。调用立即返回。
func (c *Client) Capture(event string, userID uint, properties map[string]any) {
	if !c.enabled {
		return
	}

	payload := captureEvent{
		APIKey:     c.apiKey,
		Event:      event,
		DistinctID: strconv.FormatUint(uint64(userID), 10),
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
		defer cancel()

		if err := c.send(ctx, payload); err != nil {
			c.logger.Warn("analytics capture failed",
				slog.String("event", event),
				slog.Any("error", err),
			)
		}
	}()
}

func (c *Client) send(ctx context.Context, payload captureEvent) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "capture endpoint returned status " + strconv.Itoa(e.code)
}
