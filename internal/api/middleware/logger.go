package middleware

import (
	"net/http"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Logger 存取日誌：5xx 記為 error、4xx 記為 warn，其餘為 info
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := accessFields(c, time.Since(start))
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			common.LogError("請求失敗", fields...)
		case status >= http.StatusBadRequest:
			common.LogWarn("請求被拒絕", fields...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// accessFields 在處理完成後收集一筆存取紀錄的欄位
func accessFields(c *gin.Context, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("request_id", requestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Int("bytes", max(c.Writer.Size(), 0)),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
	}
	if query := c.Request.URL.RawQuery; query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if ua := c.Request.UserAgent(); ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// requestID requestid 中間件排在 Logger 之後，處理完成時已寫入響應標頭
func requestID(c *gin.Context) string {
	if id := c.Writer.Header().Get(requestIDHeader); id != "" {
		return id
	}
	return c.GetHeader(requestIDHeader)
}

// Recovery 攔截 panic 並回傳 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			common.LogError("處理請求時發生 panic",
				zap.Any("panic", rec),
				zap.String("request_id", requestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(common.ErrInternalError.Status, common.ToErrorResponse(common.ErrInternalError, false))
		}()

		c.Next()
	}
}
