package scraper

import "fmt"

// FailureKind 区分抓取的可预期失败类别，handler 据此决定响应码与提示语。
type FailureKind int

const (
	// FailureNetwork 表示连接失败或超时。
	FailureNetwork FailureKind = iota + 1
	// FailureStatus 表示目标站点返回非 2xx。
	FailureStatus
	// FailureBlocked 表示被目标站点限流或拦截（403/429/验证页）。
	FailureBlocked
	// FailureNoContent 表示页面里没有可识别的职位内容。
	FailureNoContent
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureStatus:
		return "status"
	case FailureBlocked:
		return "blocked"
	case FailureNoContent:
		return "no_content"
	default:
		return "unknown"
	}
}

// ScrapeError 是抓取的类型化失败结果。预期内的失败都走这个类型返回，
// 不会 panic，也不会把底层细节直接透给客户端。
type ScrapeError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ScrapeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scrape failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scrape failed (%s): %s", e.Kind, e.Message)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// Reason 返回适合展示给用户的失败原因。
func (e *ScrapeError) Reason() string {
	switch e.Kind {
	case FailureNetwork:
		return "the job site could not be reached"
	case FailureStatus:
		return fmt.Sprintf("the job site responded with status %d", e.StatusCode)
	case FailureBlocked:
		return "the job site blocked the request, try again later"
	case FailureNoContent:
		return "no job posting content was found on the page"
	default:
		return "the job posting could not be scraped"
	}
}
