package template

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ATSWarning 是一条 ATS 兼容性告警。
type ATSWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ATSReport 是对生成 HTML 的 ATS 兼容性检查结果。
// Score 为 0-100 的启发式评分，Passed 表示达到可接受阈值。
type ATSReport struct {
	Score    int          `json:"score"`
	Passed   bool         `json:"passed"`
	Warnings []ATSWarning `json:"warnings"`
}

const atsPassThreshold = 70

// 标准区块标题。自动解析器按这些词定位区块，缺失会降低解析成功率。
var standardHeadings = []string{"experience", "education", "skills"}

// CheckATS 扫描生成的 HTML，标记会让自动解析器出错的结构反模式。
// 检查的是结构而非措辞，同样的输入永远得到同样的报告。
func CheckATS(html string) ATSReport {
	report := ATSReport{Score: 100}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		report.Score = 0
		report.Warnings = append(report.Warnings, ATSWarning{
			Code:    "unparseable",
			Message: "document could not be parsed as HTML",
		})
		return report
	}

	if n := doc.Find("table").Length(); n > 0 {
		report.Score -= 25
		report.Warnings = append(report.Warnings, ATSWarning{
			Code:    "tables",
			Message: "layout uses tables, which scramble reading order in many parsers",
		})
	}

	if n := doc.Find("img").Length(); n > 0 {
		report.Score -= 20
		report.Warnings = append(report.Warnings, ATSWarning{
			Code:    "images",
			Message: "document contains images, text inside them is invisible to parsers",
		})
	}

	if doc.Find("h1").Length() == 0 {
		report.Score -= 15
		report.Warnings = append(report.Warnings, ATSWarning{
			Code:    "no_name_heading",
			Message: "no top-level heading found for the candidate name",
		})
	}

	headings := collectHeadings(doc)
	for _, want := range standardHeadings {
		if !headingPresent(headings, want) {
			report.Score -= 10
			report.Warnings = append(report.Warnings, ATSWarning{
				Code:    "nonstandard_heading",
				Message: "no standard \"" + want + "\" section heading found",
			})
		}
	}

	// 超过两栏的布局在线性化时几乎必然乱序。
	if strings.Count(html, "grid-template-columns") > 0 && strings.Contains(html, "1fr 1fr 1fr") {
		report.Score -= 10
		report.Warnings = append(report.Warnings, ATSWarning{
			Code:    "many_columns",
			Message: "three or more columns detected, linearized text order may be wrong",
		})
	}

	if report.Score < 0 {
		report.Score = 0
	}
	report.Passed = report.Score >= atsPassThreshold
	return report
}

func collectHeadings(doc *goquery.Document) []string {
	var headings []string
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		headings = append(headings, strings.ToLower(strings.TrimSpace(s.Text())))
	})
	return headings
}

func headingPresent(headings []string, want string) bool {
	for _, h := range headings {
		if strings.Contains(h, want) {
			return true
		}
	}
	return false
}
