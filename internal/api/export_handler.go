package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/analytics"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/resume"
	"resumeforge/internal/template"
)

// ExportHandler 把保存的简历按模板渲染为打印就绪的 HTML。
// 响应同时附带 ATS 兼容性报告，前端用浏览器打印流程产出 PDF。
type ExportHandler struct {
	db        *gorm.DB
	analytics *analytics.Client
	logger    *slog.Logger
}

// NewExportHandler 构造导出处理器。
func NewExportHandler(db *gorm.DB, analyticsClient *analytics.Client, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		db:        db,
		analytics: analyticsClient,
		logger:    logger,
	}
}

type exportRequest struct {
	ResumeID       uint                    `json:"resumeId" binding:"required"`
	TemplateID     string                  `json:"templateId" binding:"required"`
	Customizations template.Customizations `json:"customizations"`
}

type exportResponse struct {
	HTML       string             `json:"html"`
	Validation template.ATSReport `json:"validation"`
}

// ExportResume 渲染一份简历。
// 简历必须属于当前用户或是公开简历；模板按静态目录查找。
// 定制项格式非法返回 400，不被模板允许的定制项静默忽略。
func (h *ExportHandler) ExportResume(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("resume_id", uint64(req.ResumeID)),
		slog.String("template_id", req.TemplateID),
	)

	var resumeModel database.Resume
	err := h.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR is_public = ?)", req.ResumeID, userID, true).
		First(&resumeModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		logger.Error("load resume failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	tpl, ok := template.ByID(req.TemplateID)
	if !ok {
		NotFound(c, "template not found")
		return
	}

	content, err := resume.ParseContent(resumeModel.Content)
	if err != nil {
		// 落库前已校验过，走到这说明存储里的内容损坏了。
		logger.Error("stored resume content is invalid", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	html, err := template.Generate(tpl, content, req.Customizations)
	if err != nil {
		if errors.Is(err, template.ErrInvalidCustomization) {
			BadRequest(c, err.Error())
			return
		}
		logger.Error("render resume failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	report := template.CheckATS(html)

	h.analytics.Capture("resume_exported", userID, map[string]any{
		"template_id": tpl.ID,
		"ats_passed":  report.Passed,
	})

	c.JSON(http.StatusOK, exportResponse{
		HTML:       html,
		Validation: report,
	})
}

func (h *ExportHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
