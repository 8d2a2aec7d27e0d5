package resume

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Content 表示存储在简历 Content(JSONB) 中的结构化数据。
// 模板渲染器只接受通过 ParseContent 校验后的 Content，绝不处理裸 JSON。
type Content struct {
	Personal   PersonalInfo `json:"personal"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`
}

// PersonalInfo 是简历头部的联系信息。
type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// Experience 表示一段工作经历。
type Experience struct {
	Company    string   `json:"company"`
	Title      string   `json:"title"`
	Location   string   `json:"location"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Current    bool     `json:"current"`
	Highlights []string `json:"highlights"`
}

// Education 表示一段教育经历。
type Education struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

// ErrInvalidContent 表示简历内容无法解析为预期结构。
var ErrInvalidContent = errors.New("invalid resume content")

// ParseContent 将 JSONB 数据严格解码为 Content 并做基础校验。
// 未知字段视为错误，避免前端结构漂移后被静默接受。
func ParseContent(data []byte) (*Content, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidContent)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var content Content
	if err := decoder.Decode(&content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}
	return &content, nil
}

// Validate 检查渲染所需的最小字段。
func (c *Content) Validate() error {
	if strings.TrimSpace(c.Personal.FullName) == "" {
		return fmt.Errorf("%w: personal.full_name is required", ErrInvalidContent)
	}
	for i, exp := range c.Experience {
		if strings.TrimSpace(exp.Company) == "" {
			return fmt.Errorf("%w: experience[%d].company is required", ErrInvalidContent, i)
		}
		if strings.TrimSpace(exp.Title) == "" {
			return fmt.Errorf("%w: experience[%d].title is required", ErrInvalidContent, i)
		}
	}
	for i, edu := range c.Education {
		if strings.TrimSpace(edu.School) == "" {
			return fmt.Errorf("%w: education[%d].school is required", ErrInvalidContent, i)
		}
	}
	return nil
}
