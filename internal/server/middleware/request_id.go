package middleware

import (
	"github.com/gin-gonic/gin"

	"mango/internal/pkg/id"
)

// RequestID 请求ID中间件
// 透传客户端带来的 X-Request-ID，没有则生成一个
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = id.New()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}
