package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/storage"
)

// ProfileHandler 负责用户档案的读取、更新与头像上传。
type ProfileHandler struct {
	db        *gorm.DB
	storage   *storage.Client
	logger    *slog.Logger
	clamdAddr string
}

// NewProfileHandler 构造档案处理器。clamdAddr 为空时跳过病毒扫描。
func NewProfileHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *ProfileHandler {
	return &ProfileHandler{
		db:        db,
		storage:   storageClient,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

const maxAvatarBytes = 2 << 20

// 头像只接受常见图片类型，其余一律拒绝。
var avatarMIMEWhitelist = []string{"image/png", "image/jpeg", "image/webp"}

type profileResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetProfile 返回当前用户的档案。头像以限时预签名链接返回。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var profile database.Profile
	if err := h.db.WithContext(ctx).First(&profile, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		Internal(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, h.newProfileResponse(c, profile))
}

type updateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
}

// UpdateProfile 更新档案的展示字段。邮箱归属于账号，不在这里改。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var profile database.Profile
	if err := h.db.WithContext(ctx).First(&profile, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		Internal(c, "failed to load profile")
		return
	}

	if err := h.db.WithContext(ctx).Model(&profile).
		Update("full_name", strings.TrimSpace(req.FullName)).Error; err != nil {
		Internal(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, h.newProfileResponse(c, profile))
}

// UploadAvatar 接收头像文件，扫描后上传到对象存储并更新档案。
// 旧头像对象在替换成功后删除，删除失败只记日志。
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		BadRequest(c, "missing avatar file")
		return
	}
	if file.Size > maxAvatarBytes {
		BadRequest(c, "avatar file is too large")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !slices.Contains(avatarMIMEWhitelist, contentType) {
		BadRequest(c, "unsupported avatar content type")
		return
	}

	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	if h.clamdAddr != "" {
		infected, err := h.scanUpload(file)
		if err != nil {
			logger.Error("scan avatar failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if infected {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	ctx := c.Request.Context()
	objectKey := fmt.Sprintf("avatars/%d/%s", userID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentType); err != nil {
		logger.Error("upload avatar failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	var profile database.Profile
	if err := h.db.WithContext(ctx).First(&profile, userID).Error; err != nil {
		Internal(c, "failed to load profile")
		return
	}
	previousKey := profile.AvatarURL

	if err := h.db.WithContext(ctx).Model(&profile).
		Update("avatar_url", objectKey).Error; err != nil {
		Internal(c, "failed to update profile")
		return
	}

	if previousKey != "" && previousKey != objectKey {
		if err := h.storage.DeleteObject(ctx, previousKey); err != nil {
			logger.Warn("delete previous avatar failed", slog.Any("error", err))
		}
	}

	url, err := h.storage.GeneratePresignedURL(ctx, objectKey, 15*time.Minute)
	if err != nil {
		logger.Error("presign avatar failed", slog.Any("error", err))
		Internal(c, "failed to generate avatar url")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey, "url": url})
}

// scanUpload 用 clamd 扫描上传文件流，返回是否检出恶意内容。
func (h *ProfileHandler) scanUpload(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, err
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return false, err
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return true, nil
		}
	}
	return false, nil
}

func (h *ProfileHandler) newProfileResponse(c *gin.Context, profile database.Profile) profileResponse {
	resp := profileResponse{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		UpdatedAt: profile.UpdatedAt,
	}
	if profile.AvatarURL != "" && h.storage != nil {
		if url, err := h.storage.GeneratePresignedURL(c.Request.Context(), profile.AvatarURL, 15*time.Minute); err == nil {
			resp.AvatarURL = url
		}
	}
	return resp
}

func (h *ProfileHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
