package template

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"resumeforge/internal/resume"
)

// Customizations 是调用方请求的样式覆盖。
// 每一项只有在模板的 CustomizationOptions 允许时才会生效，其余一律忽略。
type Customizations struct {
	AccentColor  string   `json:"accentColor,omitempty"`
	FontFamily   string   `json:"fontFamily,omitempty"`
	SectionOrder []string `json:"sectionOrder,omitempty"`
}

var (
	hexColorRe   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	fontFamilyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 \-]{0,63}$`)
)

// ErrInvalidCustomization 表示定制项格式非法（与"不被允许"不同，后者静默忽略）。
var ErrInvalidCustomization = fmt.Errorf("invalid customization")

// Generate 将结构化简历内容按模板渲染为完整 HTML 文档。
// 相同输入总是产生相同输出；content 必须已通过 resume.ParseContent 校验。
func Generate(tpl ResumeTemplate, content *resume.Content, custom Customizations) (string, error) {
	styles, layout, err := applyCustomizations(tpl, custom)
	if err != nil {
		return "", err
	}

	data := renderData{
		Content:  content,
		Styles:   styles,
		Layout:   layout,
		Sections: layout.SectionOrder,
	}

	var b strings.Builder
	if err := pageTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", tpl.ID, err)
	}
	return b.String(), nil
}

func applyCustomizations(tpl ResumeTemplate, custom Customizations) (Styles, Layout, error) {
	styles := tpl.Styles
	layout := tpl.Layout

	if custom.AccentColor != "" && tpl.Customization.AllowColorChange {
		if !hexColorRe.MatchString(custom.AccentColor) {
			return Styles{}, Layout{}, fmt.Errorf("%w: accent color %q", ErrInvalidCustomization, custom.AccentColor)
		}
		styles.AccentColor = custom.AccentColor
		styles.HeadingColor = custom.AccentColor
	}

	if custom.FontFamily != "" && tpl.Customization.AllowFontChange {
		if !fontFamilyRe.MatchString(custom.FontFamily) {
			return Styles{}, Layout{}, fmt.Errorf("%w: font family %q", ErrInvalidCustomization, custom.FontFamily)
		}
		styles.FontFamily = custom.FontFamily
	}

	if len(custom.SectionOrder) > 0 && tpl.Customization.AllowSectionReorder {
		order, err := validateSectionOrder(custom.SectionOrder, tpl.Layout.SectionOrder)
		if err != nil {
			return Styles{}, Layout{}, err
		}
		layout.SectionOrder = order
	}

	return styles, layout, nil
}

// validateSectionOrder 要求定制顺序恰好是模板区块的一个排列。
func validateSectionOrder(requested, allowed []string) ([]string, error) {
	if len(requested) != len(allowed) {
		return nil, fmt.Errorf("%w: section order must list all %d sections", ErrInvalidCustomization, len(allowed))
	}
	seen := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		seen[s] = false
	}
	for _, s := range requested {
		used, ok := seen[s]
		if !ok {
			return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidCustomization, s)
		}
		if used {
			return nil, fmt.Errorf("%w: duplicate section %q", ErrInvalidCustomization, s)
		}
		seen[s] = true
	}
	out := make([]string, len(requested))
	copy(out, requested)
	return out, nil
}

type renderData struct {
	Content  *resume.Content
	Styles   Styles
	Layout   Layout
	Sections []string
}

var pageTemplate = template.Must(template.New("resume").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(pageTemplateString))

// 渲染为语义化 HTML：标准区块标题、h1/h2 层级、无表格无图片，
// 多栏布局只通过 CSS 实现，便于 ATS 解析纯文本内容。
const pageTemplateString = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Content.Personal.FullName}} - Resume</title>
<style>
  @page { size: A4; margin: 0; }
  body {
    margin: 0;
    font-family: '{{.Styles.FontFamily}}', sans-serif;
    font-size: {{.Styles.FontSizePt}}pt;
    line-height: {{.Styles.LineHeight}};
    color: {{.Styles.TextColor}};
  }
  .page {
    width: 794px;
    min-height: 1122px;
    box-sizing: border-box;
    background: white;
    padding: {{.Layout.MarginPx}}px;
  }
  header.identity { border-bottom: 2px solid {{.Styles.AccentColor}}; padding-bottom: 8px; }
  h1 { margin: 0; font-size: 2em; color: {{.Styles.HeadingColor}}; }
  h2 { font-size: 1.15em; color: {{.Styles.HeadingColor}}; text-transform: uppercase; letter-spacing: 0.05em; margin: 18px 0 6px; }
  .contact { margin-top: 4px; }
  .contact span + span::before { content: " | "; }
  {{if eq .Layout.Columns 2}}
  .sections { display: grid; grid-template-columns: 2fr 1fr; column-gap: 28px; }
  {{end}}
  .entry { margin-bottom: 10px; }
  .entry-head { font-weight: bold; }
  .entry-sub { color: {{.Styles.AccentColor}}; }
  ul.highlights { margin: 4px 0 0; padding-left: 18px; }
</style>
</head>
<body>
<div class="page">
  <header class="identity">
    <h1>{{.Content.Personal.FullName}}</h1>
    <div class="contact">
      {{with .Content.Personal.Email}}<span>{{.}}</span>{{end}}
      {{with .Content.Personal.Phone}}<span>{{.}}</span>{{end}}
      {{with .Content.Personal.Location}}<span>{{.}}</span>{{end}}
      {{with .Content.Personal.Website}}<span>{{.}}</span>{{end}}
    </div>
  </header>
  <div class="sections">
  {{range .Sections}}
    {{if eq . "summary"}}{{with $.Content.Summary}}
    <section class="summary">
      <h2>Summary</h2>
      <p>{{.}}</p>
    </section>
    {{end}}{{end}}
    {{if eq . "experience"}}{{with $.Content.Experience}}
    <section class="experience">
      <h2>Experience</h2>
      {{range .}}
      <div class="entry">
        <div class="entry-head">{{.Title}}</div>
        <div class="entry-sub">{{.Company}}{{with .Location}} · {{.}}{{end}}</div>
        <div class="entry-dates">{{.StartDate}} – {{if .Current}}Present{{else}}{{.EndDate}}{{end}}</div>
        {{with .Highlights}}
        <ul class="highlights">
          {{range .}}<li>{{.}}</li>{{end}}
        </ul>
        {{end}}
      </div>
      {{end}}
    </section>
    {{end}}{{end}}
    {{if eq . "education"}}{{with $.Content.Education}}
    <section class="education">
      <h2>Education</h2>
      {{range .}}
      <div class="entry">
        <div class="entry-head">{{.School}}</div>
        <div class="entry-sub">{{.Degree}}{{with .Field}}, {{.}}{{end}}</div>
        {{if .StartYear}}<div class="entry-dates">{{.StartYear}} – {{.EndYear}}</div>{{end}}
      </div>
      {{end}}
    </section>
    {{end}}{{end}}
    {{if eq . "skills"}}{{with $.Content.Skills}}
    <section class="skills">
      <h2>Skills</h2>
      <p>{{join . ", "}}</p>
    </section>
    {{end}}{{end}}
  {{end}}
  </div>
</div>
</body>
</html>
`
