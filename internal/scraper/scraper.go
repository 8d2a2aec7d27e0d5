package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"resumeforge/internal/config"
)

// Result 是一次成功抓取的结构化输出。
type Result struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"jobDescription"`
	Source      string `json:"source"`
}

// Scraper 对职位页面做单次抓取与启发式抽取。
// 无共享可变状态，可在多个请求间复用；单次尝试，不重试，由调用方决定是否再试。
type Scraper struct {
	client    *http.Client
	userAgent string
}

const maxBodyBytes = 2 << 20 // 职位页面超过 2MB 的部分直接截断

// New 构造 Scraper。超时由配置显式给定，防止无响应站点挂住整个请求。
func New(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		userAgent: cfg.UserAgent,
	}
}

// Scrape 抓取并抽取一个已通过 ValidateJobURL 的职位链接。
// 预期内的失败都以 *ScrapeError 返回，调用方用 errors.As 区分类别。
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return nil, &ScrapeError{Kind: FailureNetwork, Message: "invalid url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ScrapeError{Kind: FailureNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if blocked(resp.StatusCode) {
		return nil, &ScrapeError{Kind: FailureBlocked, StatusCode: resp.StatusCode, Message: "request was blocked"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ScrapeError{Kind: FailureStatus, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ScrapeError{Kind: FailureNoContent, Message: "response is not parseable html", Err: err}
	}

	if challengePage(doc) {
		return nil, &ScrapeError{Kind: FailureBlocked, StatusCode: resp.StatusCode, Message: "anti-bot challenge page"}
	}

	host := parsed.Hostname()
	// 来源按链接主机归属，即使内容最终来自通用兜底策略。
	source := sourceForHost(host)

	var extracted extraction
	if st := strategyFor(host); st != nil {
		extracted = st.extract(doc, parsed.String())
	}

	// 来源策略缺什么，就用通用策略补什么。
	fallback := genericExtract(doc)
	if extracted.Title == "" {
		extracted.Title = fallback.Title
	}
	if extracted.Company == "" {
		extracted.Company = fallback.Company
	}
	if extracted.Location == "" {
		extracted.Location = fallback.Location
	}
	if extracted.Description == "" {
		extracted.Description = fallback.Description
	}

	if extracted.Title == "" || extracted.Description == "" {
		return nil, &ScrapeError{Kind: FailureNoContent, Message: "no recognizable job posting on page"}
	}

	return &Result{
		Title:       extracted.Title,
		Company:     extracted.Company,
		Location:    extracted.Location,
		Description: extracted.Description,
		Source:      source,
	}, nil
}

// blocked 判断状态码是否属于限流/拦截。LinkedIn 的 999 也算。
func blocked(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, 999:
		return true
	}
	return false
}

// challengePage 识别常见的反爬验证页：有挑战标记且没有实际正文。
func challengePage(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").First().Text())
	for _, marker := range []string{"just a moment", "access denied", "are you a human", "verify you are human"} {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return doc.Find("#challenge-form, #cf-challenge-running").Length() > 0
}
