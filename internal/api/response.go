package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeforge/internal/errcode"
)

// Error 以统一结构返回错误：HTTP 状态承载分类，code 承载细分错误码，
// error 是适合直接展示的消息，绝不携带内部细节。
func Error(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"code": code, "error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": errcode.Unauthorized, "error": "unauthorized"})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, errcode.Unauthorized, "unauthorized")
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, errcode.Validation, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, errcode.Forbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, errcode.NotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, errcode.Conflict, msg) }

// UnprocessableEntity 用于请求合法但领域操作失败的情况，例如抓取目标不可达。
func UnprocessableEntity(c *gin.Context, msg string) {
	Error(c, http.StatusUnprocessableEntity, errcode.DomainFailure, msg)
}

func TooManyRequests(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, errcode.RateLimited, msg)
}

func Internal(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, errcode.SystemError, msg)
}

// Misconfigured 用于依赖未配置的情况：对外只说服务不可用，不暴露配置细节。
func Misconfigured(c *gin.Context) {
	Error(c, http.StatusInternalServerError, errcode.Misconfigured, "service temporarily unavailable")
}
