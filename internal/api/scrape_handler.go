package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/analytics"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/metrics"
	"resumeforge/internal/scraper"
)

// ScrapeHandler 处理职位链接的校验与抓取。
type ScrapeHandler struct {
	db               *gorm.DB
	scraper          *scraper.Scraper
	redis            redis.UniversalClient
	analytics        *analytics.Client
	logger           *slog.Logger
	rateLimitPerHour int
	cacheTTL         time.Duration
}

// NewScrapeHandler 构造抓取处理器。
func NewScrapeHandler(db *gorm.DB, jobScraper *scraper.Scraper, redisClient redis.UniversalClient, analyticsClient *analytics.Client, logger *slog.Logger, rateLimitPerHour int, cacheTTL time.Duration) *ScrapeHandler {
	return &ScrapeHandler{
		db:               db,
		scraper:          jobScraper,
		redis:            redisClient,
		analytics:        analyticsClient,
		logger:           logger,
		rateLimitPerHour: rateLimitPerHour,
		cacheTTL:         cacheTTL,
	}
}

type scrapeJobRequest struct {
	URL string `json:"url" binding:"required"`
}

// ScrapeJob 抓取一个职位链接并返回结构化结果。
//
// 失败分三类：入参不合法是 400，触发限流是 429，链接合法但抓取失败
// （站点不可达、被拦截、页面无职位内容）是 422，带可展示的原因。
// 抓取成功后的历史落库与事件上报都是尽力而为，绝不影响 200 响应。
func (h *ScrapeHandler) ScrapeJob(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req scrapeJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if vr := scraper.ValidateJobURL(req.URL); !vr.Valid {
		BadRequest(c, vr.Error)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("url", req.URL),
	)

	// 速率限制：每用户每小时 N 次。Redis 故障时放行。
	rateKey := "rate:scrape:" + strconv.FormatUint(uint64(userID), 10) + ":" + hourWindow(time.Now())
	count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
	if err != nil {
		count = 0
	}
	if rateExceeded(count, h.rateLimitPerHour) {
		TooManyRequests(c, "scrape rate limit exceeded")
		return
	}

	// 同一链接短期内重复提交直接走缓存，不再打目标站点。
	cacheKey := scrapeCacheKey(req.URL)
	if cached, err := h.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var result scraper.Result
		if json.Unmarshal(cached, &result) == nil {
			metrics.ObserveScrape(result.Source, "cached", 0)
			c.JSON(http.StatusOK, result)
			return
		}
	}

	start := time.Now()
	result, err := h.scraper.Scrape(ctx, req.URL)
	elapsed := time.Since(start)

	if err != nil {
		var scrapeErr *scraper.ScrapeError
		if errors.As(err, &scrapeErr) {
			metrics.ObserveScrape(scraper.SourceForURL(req.URL), scrapeErr.Kind.String(), elapsed)
			logger.Info("scrape failed",
				slog.String("kind", scrapeErr.Kind.String()),
				slog.Int("status", scrapeErr.StatusCode),
			)
			UnprocessableEntity(c, scrapeErr.Reason())
			return
		}
		logger.Error("scrape failed unexpectedly", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	metrics.ObserveScrape(result.Source, "ok", elapsed)

	if payload, err := json.Marshal(result); err == nil {
		_ = h.redis.Set(ctx, cacheKey, payload, h.cacheTTL).Err()
	}

	record := database.JobScrape{
		UserID:      userID,
		URL:         req.URL,
		Title:       result.Title,
		Company:     result.Company,
		Location:    result.Location,
		Description: result.Description,
		Source:      result.Source,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Warn("record job scrape failed", slog.Any("error", err))
	}

	h.analytics.Capture("job_scraped", userID, map[string]any{
		"source": result.Source,
	})

	c.JSON(http.StatusOK, result)
}

func (h *ScrapeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
