package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/raja-mantri/internal/logger"
	"go.uber.org/zap"
)

// RequestLogger 使用zap记录每个请求
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogRequest(log, c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
		for _, e := range c.Errors {
			log.Warn("请求处理错误", zap.String("path", path), zap.Error(e.Err))
		}
	}
}
