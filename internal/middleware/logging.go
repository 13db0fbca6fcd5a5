package middleware

import (
	"time"

	"yedam-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 记录每个 HTTP 请求的方法、路径、状态码与耗时。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Infow("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"clientIP", c.ClientIP(),
		)
	}
}

// Recovery 捕获 handler 中的 panic，返回 500 并记录日志。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("panic recovered: %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
