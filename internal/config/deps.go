package config

import "strings"

// DependencyStatus 描述某个外部依赖的配置检查结果。
// 处理请求前由需要该依赖的 handler 显式调用，避免在运行中途才发现缺配置。
type DependencyStatus struct {
	OK      bool
	Missing []string
	Reason  string
}

// CheckLLM verifies the suggestion API is usable: key present and not a
// copy-paste placeholder from an example env file.
func CheckLLM(cfg LLMConfig) DependencyStatus {
	var missing []string
	if strings.TrimSpace(cfg.BaseURL) == "" {
		missing = append(missing, "LLM_BASE_URL")
	}
	if isPlaceholder(cfg.APIKey) {
		missing = append(missing, "LLM_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		missing = append(missing, "LLM_MODEL")
	}
	if len(missing) > 0 {
		return DependencyStatus{Missing: missing, Reason: "llm api is not configured"}
	}
	return DependencyStatus{OK: true}
}

// CheckAnalytics reports whether event capture is configured. Analytics is
// optional: a not-OK status disables capture instead of failing requests.
func CheckAnalytics(cfg AnalyticsConfig) DependencyStatus {
	var missing []string
	if strings.TrimSpace(cfg.Endpoint) == "" {
		missing = append(missing, "ANALYTICS_ENDPOINT")
	}
	if isPlaceholder(cfg.APIKey) {
		missing = append(missing, "ANALYTICS_API_KEY")
	}
	if len(missing) > 0 {
		return DependencyStatus{Missing: missing, Reason: "analytics capture is not configured"}
	}
	return DependencyStatus{OK: true}
}

func isPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	switch v {
	case "changeme", "change-me", "placeholder", "example", "test-key":
		return true
	}
	return strings.Contains(v, "your-") ||
		strings.Contains(v, "your_") ||
		strings.Contains(v, "xxxx") ||
		strings.HasSuffix(v, "-here")
}
