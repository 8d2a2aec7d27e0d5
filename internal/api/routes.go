package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/ai"
	"resumeforge/internal/analytics"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/scraper"
	"resumeforge/internal/storage"
)

// Deps 汇集注册业务路由所需的全部依赖。
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       redis.UniversalClient
	AuthService *auth.Service
	Scraper     *scraper.Scraper
	AI          *ai.Client
	Analytics   *analytics.Client
	Storage     *storage.Client
	Logger      *slog.Logger
}

// RegisterRoutes 注册 /api 下的全部路由。
// 公开路由：认证、模板目录、公开简历读取；其余都要求有效会话。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config

	authHandler := NewAuthHandler(
		deps.DB,
		deps.AuthService,
		deps.Redis,
		deps.Logger,
		cfg.API.LoginRateLimitPerHour,
		cfg.API.LoginLockThreshold,
		time.Duration(cfg.API.LoginLockTTLMinutes)*time.Minute,
		cfg.API.CookieDomain,
	)
	resumeHandler := NewResumeHandler(deps.DB, cfg.API.MaxResumesPerUser)
	scrapeHandler := NewScrapeHandler(
		deps.DB,
		deps.Scraper,
		deps.Redis,
		deps.Analytics,
		deps.Logger,
		cfg.API.ScrapeRateLimitPerHour,
		time.Duration(cfg.Scraper.CacheTTLMinutes)*time.Minute,
	)
	exportHandler := NewExportHandler(deps.DB, deps.Analytics, deps.Logger)
	suggestHandler := NewSuggestHandler(deps.AI, config.CheckLLM(cfg.LLM), deps.Logger)
	templateHandler := NewTemplateHandler()
	profileHandler := NewProfileHandler(deps.DB, deps.Storage, deps.Logger, cfg.Clamd.Addr)

	session := middleware.SessionMiddleware(deps.AuthService, deps.DB)
	optionalSession := middleware.OptionalSessionMiddleware(deps.AuthService, deps.DB)

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		apiGroup.GET("/templates", templateHandler.ListTemplates)
		apiGroup.GET("/templates/:id", templateHandler.GetTemplate)

		// 公开简历允许匿名读取，所有者身份通过可选会话识别。
		apiGroup.GET("/resumes/:id", optionalSession, resumeHandler.GetResume)

		protected := apiGroup.Group("")
		protected.Use(session)
		{
			protected.POST("/scrape-job", scrapeHandler.ScrapeJob)
			protected.POST("/export-pdf", exportHandler.ExportResume)
			protected.POST("/suggest", suggestHandler.Suggest)

			protected.POST("/resumes", resumeHandler.CreateResume)
			protected.GET("/resumes", resumeHandler.ListResumes)
			protected.PUT("/resumes/:id", resumeHandler.UpdateResume)
			protected.DELETE("/resumes/:id", resumeHandler.DeleteResume)

			protected.GET("/profile", profileHandler.GetProfile)
			protected.PUT("/profile", profileHandler.UpdateProfile)
			protected.POST("/profile/avatar", profileHandler.UploadAvatar)
		}
	}
}
