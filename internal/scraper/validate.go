package scraper

import (
	"net/url"
	"strings"
)

// ValidationResult 是 URL 校验的结构化结果，校验失败时 Error 一定非空。
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

const maxJobURLLength = 2048

// ValidateJobURL 判断输入是否为语法合法的 HTTP(S) 职位链接。
// 不认识的域名也接受（走通用抓取策略），但协议、主机必须合法。
// 任何输入都不会导致 panic。
func ValidateJobURL(raw string) ValidationResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValidationResult{Error: "url is required"}
	}
	if len(raw) > maxJobURLLength {
		return ValidationResult{Error: "url is too long"}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ValidationResult{Error: "url is malformed"}
	}

	switch parsed.Scheme {
	case "http", "https":
	case "":
		return ValidationResult{Error: "url must include http:// or https://"}
	default:
		return ValidationResult{Error: "url scheme must be http or https"}
	}

	if parsed.Hostname() == "" {
		return ValidationResult{Error: "url must include a host"}
	}

	return ValidationResult{Valid: true}
}

// SourceForURL 返回链接对应的来源标签，供指标与日志使用。
// 解析失败时归入通用来源，绝不报错。
func SourceForURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return sourceGeneric
	}
	return sourceForHost(parsed.Hostname())
}

// sourceForHost 将主机名映射到已知职位来源。未匹配时返回通用来源。
func sourceForHost(host string) string {
	host = strings.ToLower(host)
	switch {
	case hostMatches(host, "linkedin.com"):
		return sourceLinkedIn
	case hostMatches(host, "indeed.com"):
		return sourceIndeed
	case hostMatches(host, "greenhouse.io"):
		return sourceGreenhouse
	case hostMatches(host, "lever.co"):
		return sourceLever
	default:
		return sourceGeneric
	}
}

// hostMatches 仅接受精确域名或其子域，避免 "evil-linkedin.com.attacker.io" 误判。
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
