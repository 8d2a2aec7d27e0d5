package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 已知职位来源。新来源加在这里和 strategyFor 里，属于封闭集合而非插件机制。
const (
	sourceLinkedIn   = "linkedin"
	sourceIndeed     = "indeed"
	sourceGreenhouse = "greenhouse"
	sourceLever      = "lever"
	sourceGeneric    = "generic"
)

// extraction 是单个策略的抽取结果，允许字段缺失，由调用方用通用策略补全。
type extraction struct {
	Title       string
	Company     string
	Location    string
	Description string
}

// strategy 按来源站点的 DOM 结构抽取职位字段。
// 所有策略共享同一契约：尽力抽取、缺失留空、不报错。
type strategy interface {
	extract(doc *goquery.Document, pageURL string) extraction
}

// strategyFor 返回主机对应的来源策略，未知主机返回 nil（只用通用策略）。
func strategyFor(host string) strategy {
	switch sourceForHost(host) {
	case sourceLinkedIn:
		return linkedInStrategy{}
	case sourceIndeed:
		return indeedStrategy{}
	case sourceGreenhouse:
		return greenhouseStrategy{}
	case sourceLever:
		return leverStrategy{}
	default:
		return nil
	}
}

type linkedInStrategy struct{}

func (linkedInStrategy) extract(doc *goquery.Document, _ string) extraction {
	return extraction{
		Title:       firstText(doc, "h1.top-card-layout__title", "h1.topcard__title"),
		Company:     firstText(doc, "a.topcard__org-name-link", "span.topcard__flavor a", "span.topcard__flavor"),
		Location:    firstText(doc, "span.topcard__flavor--bullet"),
		Description: firstText(doc, "div.show-more-less-html__markup", "div.description__text"),
	}
}

type indeedStrategy struct{}

func (indeedStrategy) extract(doc *goquery.Document, _ string) extraction {
	return extraction{
		Title:       firstText(doc, "h1.jobsearch-JobInfoHeader-title", "h1[data-testid='jobsearch-JobInfoHeader-title']"),
		Company:     firstText(doc, "[data-testid='inlineHeader-companyName']", "div[data-company-name] a", "div.jobsearch-InlineCompanyRating div"),
		Location:    firstText(doc, "[data-testid='inlineHeader-companyLocation']", "div.jobsearch-JobInfoHeader-subtitle > div:last-child"),
		Description: firstText(doc, "#jobDescriptionText"),
	}
}

type greenhouseStrategy struct{}

func (greenhouseStrategy) extract(doc *goquery.Document, _ string) extraction {
	company := firstText(doc, "span.company-name")
	company = strings.TrimSpace(strings.TrimPrefix(company, "at "))
	return extraction{
		Title:       firstText(doc, "h1.app-title", "h1.section-header"),
		Company:     company,
		Location:    firstText(doc, "div.location", "div.job__location"),
		Description: firstText(doc, "#content", "div.job__description"),
	}
}

type leverStrategy struct{}

func (leverStrategy) extract(doc *goquery.Document, pageURL string) extraction {
	company := firstAttr(doc, "meta[property='og:site_name']", "content")
	if company == "" {
		// lever 链接形如 jobs.lever.co/<company>/<posting-id>
		company = leverCompanyFromURL(pageURL)
	}
	return extraction{
		Title:       firstText(doc, "div.posting-headline h2", "h2[data-qa='posting-name']"),
		Company:     company,
		Location:    firstText(doc, "div.posting-categories div.location", "div.posting-category.sort-by-time"),
		Description: firstText(doc, "div[data-qa='job-description']", "div.section.page-centered:not(.posting-header)"),
	}
}

func leverCompanyFromURL(pageURL string) string {
	trimmed := strings.TrimPrefix(pageURL, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	parts := strings.Split(trimmed, "/")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	return ""
}

// firstText 按优先级依次尝试选择器，返回第一个非空文本。
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return collapseWhitespace(text)
		}
	}
	return ""
}

// firstAttr 按优先级依次尝试选择器，返回第一个非空属性值。
func firstAttr(doc *goquery.Document, selector, attr string) string {
	value, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(value)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
