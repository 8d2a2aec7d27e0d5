package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeforge/internal/ai"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/config"
)

// SuggestHandler 调用 LLM 对简历片段给出改写建议。
type SuggestHandler struct {
	ai        *ai.Client
	llmStatus config.DependencyStatus
	logger    *slog.Logger
}

// NewSuggestHandler 构造建议处理器。依赖状态在启动时确定一次。
func NewSuggestHandler(aiClient *ai.Client, llmStatus config.DependencyStatus, logger *slog.Logger) *SuggestHandler {
	return &SuggestHandler{
		ai:        aiClient,
		llmStatus: llmStatus,
		logger:    logger,
	}
}

type suggestRequest struct {
	Section string `json:"section" binding:"required,max=64"`
	Text    string `json:"text" binding:"required,max=4000"`
}

// Suggest 返回针对某个简历区块文本的改写建议。
// LLM 未配置是部署问题，返回 500；上游暂时不可用返回 422。
func (h *SuggestHandler) Suggest(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("section", req.Section),
	)

	if !h.llmStatus.OK {
		logger.Warn("suggestion requested but llm is not configured",
			slog.String("reason", h.llmStatus.Reason),
		)
		Misconfigured(c)
		return
	}

	suggestions, err := h.ai.SuggestSection(c.Request.Context(), req.Section, req.Text)
	if err != nil {
		if errors.Is(err, ai.ErrUpstream) {
			logger.Info("suggestion upstream failure", slog.Any("error", err))
			UnprocessableEntity(c, "suggestion service is unavailable, try again later")
			return
		}
		logger.Error("suggestion failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *SuggestHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
