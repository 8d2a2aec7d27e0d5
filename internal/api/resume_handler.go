package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/resume"
)

// ResumeHandler 负责简历的增删改查。
// 所有查询都以 user_id 过滤，公开简历是唯一的例外且仅限读取。
type ResumeHandler struct {
	db         *gorm.DB
	maxResumes int
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, maxResumes int) *ResumeHandler {
	return &ResumeHandler{
		db:         db,
		maxResumes: maxResumes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type saveResumeRequest struct {
	Title    string          `json:"title" binding:"required,max=255"`
	Content  json.RawMessage `json:"content" binding:"required"`
	IsPublic *bool           `json:"is_public"`
}

type resumeListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Content   datatypes.JSON `json:"content"`
	IsPublic  bool           `json:"is_public"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateResume 保存一份新简历。内容必须是合法的结构化简历 JSON。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if _, err := resume.ParseContent(req.Content); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}
	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	model := database.Resume{
		Title:   req.Title,
		Content: datatypes.JSON(req.Content),
		UserID:  userID,
	}
	if req.IsPublic != nil {
		model.IsPublic = *req.IsPublic
	}

	if err := h.db.WithContext(ctx).Create(&model).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(model))
}

// ListResumes 列出当前用户的全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var resumes []database.Resume
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeListItem{
			ID:        r.ID,
			Title:     r.Title,
			IsPublic:  r.IsPublic,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定简历。所有者可以读自己的任何简历，
// 其他人（包括匿名访问）只能读公开简历。挂可选会话中间件。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	// 匿名访问时 userID 为 0，条件退化为仅匹配公开简历。
	userID, _ := middleware.UserIDFromContext(c)

	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	var model database.Resume
	err = h.db.WithContext(c.Request.Context()).
		Where("id = ? AND (user_id = ? OR is_public = ?)", resumeID, userID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分"不存在"与"无权访问"，避免探测。
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to query resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(model))
}

// UpdateResume 覆盖指定简历，仅限所有者。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if _, err := resume.ParseContent(req.Content); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	model, err := h.getOwnedResume(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	updates := map[string]any{
		"title":   req.Title,
		"content": datatypes.JSON(req.Content),
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	if err := h.db.WithContext(ctx).Model(model).Updates(updates).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}

	if err := h.db.WithContext(ctx).First(model, model.ID).Error; err != nil {
		Internal(c, "failed to reload resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*model))
}

// DeleteResume 删除指定简历，仅限所有者。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	model, err := h.getOwnedResume(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Delete(&database.Resume{}, model.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) getOwnedResume(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := parseResumeID(idParam)
	if err != nil {
		return nil, errInvalidResumeID
	}

	var model database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", resumeID, userID).
		First(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

func parseResumeID(idParam string) (uint, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidResumeID
	}
	return uint(id), nil
}

func respondResumeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidResumeID):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume not found")
	default:
		Internal(c, "failed to query resume")
	}
}

func newResumeResponse(model database.Resume) resumeResponse {
	return resumeResponse{
		ID:        model.ID,
		Title:     model.Title,
		Content:   model.Content,
		IsPublic:  model.IsPublic,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
