package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// genericExtract 是所有来源的兜底策略，按可靠性从高到低尝试：
// 1. JSON-LD JobPosting 结构化数据
// 2. OpenGraph / meta 标签
// 3. DOM 启发式（h1 + 最长的正文块）
func genericExtract(doc *goquery.Document) extraction {
	result := extractJSONLD(doc)

	if result.Title == "" {
		result.Title = firstAttr(doc, "meta[property='og:title']", "content")
	}
	if result.Title == "" {
		result.Title = firstText(doc, "h1", "h2")
	}

	if result.Company == "" {
		result.Company = firstAttr(doc, "meta[property='og:site_name']", "content")
	}
	if result.Company == "" {
		result.Company = firstAttr(doc, "meta[name='author']", "content")
	}

	if result.Description == "" {
		result.Description = longestBlockText(doc)
	}
	if result.Description == "" {
		result.Description = firstAttr(doc, "meta[property='og:description']", "content")
	}

	return result
}

// jsonLDJobPosting 只映射我们关心的 schema.org JobPosting 字段。
type jsonLDJobPosting struct {
	Type               string          `json:"@type"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	HiringOrganization json.RawMessage `json:"hiringOrganization"`
	JobLocation        json.RawMessage `json:"jobLocation"`
}

func extractJSONLD(doc *goquery.Document) extraction {
	var result extraction
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		for _, posting := range decodeJobPostings(raw) {
			if !strings.EqualFold(posting.Type, "JobPosting") {
				continue
			}
			result.Title = collapseWhitespace(posting.Title)
			result.Description = collapseWhitespace(stripTags(posting.Description))
			result.Company = jsonLDName(posting.HiringOrganization)
			result.Location = jsonLDAddress(posting.JobLocation)
			return false
		}
		return true
	})
	return result
}

// decodeJobPostings 兼容单对象、数组与 @graph 三种 JSON-LD 布局。
func decodeJobPostings(raw string) []jsonLDJobPosting {
	var single jsonLDJobPosting
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type != "" {
		return []jsonLDJobPosting{single}
	}

	var list []jsonLDJobPosting
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}

	var graph struct {
		Graph []jsonLDJobPosting `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(raw), &graph); err == nil {
		return graph.Graph
	}
	return nil
}

// jsonLDName 处理 hiringOrganization 既可能是对象也可能是字符串的情况。
func jsonLDName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return collapseWhitespace(asString)
	}
	var asObject struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return collapseWhitespace(asObject.Name)
	}
	return ""
}

// jsonLDAddress 从 jobLocation（对象或数组）里取地址文本。
func jsonLDAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	type address struct {
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
		AddressCountry  string `json:"addressCountry"`
	}
	type place struct {
		Address address `json:"address"`
	}

	join := func(a address) string {
		parts := make([]string, 0, 3)
		for _, p := range []string{a.AddressLocality, a.AddressRegion, a.AddressCountry} {
			if strings.TrimSpace(p) != "" {
				parts = append(parts, strings.TrimSpace(p))
			}
		}
		return strings.Join(parts, ", ")
	}

	var asPlace place
	if err := json.Unmarshal(raw, &asPlace); err == nil {
		if s := join(asPlace.Address); s != "" {
			return s
		}
	}
	var asList []place
	if err := json.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
		return join(asList[0].Address)
	}
	return ""
}

// longestBlockText 返回页面上最长的内容块文本，作为职位描述的最后兜底。
// 太短的块不算数，避免把导航或页脚当成描述。
func longestBlockText(doc *goquery.Document) string {
	const minDescriptionLength = 120

	var best string
	doc.Find("main, article, section, div").Each(func(_ int, s *goquery.Selection) {
		// 跳过还有大块子节点的容器，尽量取叶子级内容块。
		if s.ChildrenFiltered("div, section, article").Length() > 3 {
			return
		}
		text := collapseWhitespace(s.Text())
		if len(text) > len(best) {
			best = text
		}
	})

	if len(best) < minDescriptionLength {
		return ""
	}
	return best
}

// stripTags 去掉 JSON-LD 描述里常见的内嵌 HTML 标签。
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
