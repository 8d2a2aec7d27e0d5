package template

// 模板目录是静态配置，不落库，按 ID 选取。
// 新模板加在 catalog 里即可，字段一经发布不可变。

// CustomizationOptions 声明模板允许调用方覆盖哪些样式。
// 未允许的定制项即使传入也不会反映到输出里。
type CustomizationOptions struct {
	AllowColorChange    bool `json:"allowColorChange"`
	AllowFontChange     bool `json:"allowFontChange"`
	AllowSectionReorder bool `json:"allowSectionReorder"`
}

// Styles 描述模板的全局视觉样式。
type Styles struct {
	FontFamily   string  `json:"fontFamily"`
	FontSizePt   int     `json:"fontSizePt"`
	AccentColor  string  `json:"accentColor"`
	HeadingColor string  `json:"headingColor"`
	TextColor    string  `json:"textColor"`
	LineHeight   float64 `json:"lineHeight"`
}

// Layout 描述页面结构：栏数、页边距与区块顺序。
type Layout struct {
	Columns      int      `json:"columns"`
	MarginPx     int      `json:"marginPx"`
	SectionOrder []string `json:"sectionOrder"`
}

// ResumeTemplate 是单个简历模板的完整定义。
type ResumeTemplate struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Thumbnail      string               `json:"thumbnail"`
	IsATSOptimized bool                 `json:"isAtsOptimized"`
	Styles         Styles               `json:"styles"`
	Layout         Layout               `json:"layout"`
	Customization  CustomizationOptions `json:"customizationOptions"`
}

// 区块名称。SectionOrder 与定制重排只接受这些值。
const (
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
)

var catalog = []ResumeTemplate{
	{
		ID:             "classic",
		Name:           "Classic",
		Description:    "Single-column layout with conservative typography. Safest choice for automated screening.",
		Thumbnail:      "/thumbnails/classic.png",
		IsATSOptimized: true,
		Styles: Styles{
			FontFamily:   "Georgia",
			FontSizePt:   11,
			AccentColor:  "#1a3c6e",
			HeadingColor: "#1a3c6e",
			TextColor:    "#222222",
			LineHeight:   1.45,
		},
		Layout: Layout{
			Columns:      1,
			MarginPx:     48,
			SectionOrder: []string{SectionSummary, SectionExperience, SectionEducation, SectionSkills},
		},
		Customization: CustomizationOptions{
			AllowColorChange:    true,
			AllowFontChange:     true,
			AllowSectionReorder: true,
		},
	},
	{
		ID:             "modern",
		Name:           "Modern",
		Description:    "Two-column layout with a skills sidebar and a stronger accent color.",
		Thumbnail:      "/thumbnails/modern.png",
		IsATSOptimized: false,
		Styles: Styles{
			FontFamily:   "Helvetica",
			FontSizePt:   10,
			AccentColor:  "#0e7c66",
			HeadingColor: "#0e7c66",
			TextColor:    "#1c1c1c",
			LineHeight:   1.4,
		},
		Layout: Layout{
			Columns:      2,
			MarginPx:     40,
			SectionOrder: []string{SectionSummary, SectionExperience, SectionEducation, SectionSkills},
		},
		Customization: CustomizationOptions{
			AllowColorChange:    true,
			AllowFontChange:     false,
			AllowSectionReorder: false,
		},
	},
	{
		ID:             "compact",
		Name:           "Compact",
		Description:    "Dense single-column layout that fits long careers on one page.",
		Thumbnail:      "/thumbnails/compact.png",
		IsATSOptimized: true,
		Styles: Styles{
			FontFamily:   "Arial",
			FontSizePt:   9,
			AccentColor:  "#444444",
			HeadingColor: "#000000",
			TextColor:    "#333333",
			LineHeight:   1.3,
		},
		Layout: Layout{
			Columns:      1,
			MarginPx:     32,
			SectionOrder: []string{SectionExperience, SectionSkills, SectionEducation, SectionSummary},
		},
		Customization: CustomizationOptions{
			AllowColorChange:    false,
			AllowFontChange:     true,
			AllowSectionReorder: false,
		},
	},
}

// Catalog 返回全部模板的副本。
func Catalog() []ResumeTemplate {
	out := make([]ResumeTemplate, len(catalog))
	copy(out, catalog)
	return out
}

// ByID 按 ID 查找模板。
func ByID(id string) (ResumeTemplate, bool) {
	for _, tpl := range catalog {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return ResumeTemplate{}, false
}
