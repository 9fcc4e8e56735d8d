package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

// BodySizeLimit 限制請求體大小
//
// 宣告的 Content-Length 超過上限時直接回 413；未宣告長度的請求以 MaxBytesReader 包裝，
// 讀取超量時由處理器回報。maxSize <= 0 表示不限制。
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if declared := c.Request.ContentLength; declared > maxSize {
			common.LogWarn("請求內容超過上限",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Int64("declared", declared),
				zap.Int64("limit", maxSize),
			)
			c.AbortWithStatusJSON(common.ErrRequestTooLarge.Status, common.ToErrorResponse(common.ErrRequestTooLarge, false))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
