package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeforge/internal/template"
)

// TemplateHandler 提供内置简历模板目录。
// 模板是静态配置，不落库，目录对未登录用户同样可见。
type TemplateHandler struct{}

// NewTemplateHandler 构造 TemplateHandler。
func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

// ListTemplates 返回全部模板及其定制能力。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": template.Catalog()})
}

// GetTemplate 返回单个模板定义。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tpl, ok := template.ByID(c.Param("id"))
	if !ok {
		NotFound(c, "template not found")
		return
	}
	c.JSON(http.StatusOK, tpl)
}
