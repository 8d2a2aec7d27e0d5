package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationIDKey = "correlationID"

// correlationIDHeader 是请求与响应共用的关联 ID 头。
const correlationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware 确保每个请求都有关联 ID 并回写到响应头。
// 调用方传入的 ID 必须是合法 UUID，否则弃用重新生成，防止日志里出现随意注入的值。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(correlationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID 从上下文中取出关联 ID，缺失时返回空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
