// Package handlers 食譜推薦、餐點規劃與營養查詢的 HTTP 處理器
package handlers

import (
	"context"
	"errors"
	"net/http"

	"meal-planner/internal/core/queue"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getRequestID 取得請求 ID，依序為中間件、標頭，最後自行產生
func getRequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return common.GenerateUUID()
}

// wrapError 以既有錯誤代碼包裝原始錯誤
func wrapError(base *common.CustomError, err error) *common.CustomError {
	return common.NewError(base.Code, base.Message, base.Status, err)
}

// toCustomError 將核心錯誤對應到 API 錯誤
func toCustomError(err error) *common.CustomError {
	var ce *common.CustomError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, common.ErrIndexUnavailable):
		return wrapError(common.ErrIndexNotLoaded, err)
	case errors.Is(err, common.ErrInfeasiblePlan):
		return wrapError(common.ErrInsufficient, err)
	case errors.Is(err, queue.ErrQueueFull):
		return wrapError(common.ErrQueueFull, err)
	case errors.Is(err, queue.ErrClosed):
		return wrapError(common.ErrServiceUnavailable, err)
	case common.IsValidationError(err):
		return common.NewError(common.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewError(common.ErrCodeGatewayTimeout, "請求逾時", http.StatusGatewayTimeout, err)
	case errors.Is(err, context.Canceled):
		return wrapError(common.ErrServiceUnavailable, err)
	default:
		return wrapError(common.ErrInternalError, err)
	}
}

// respondError 寫入錯誤響應；debug 模式附帶原始錯誤
func respondError(c *gin.Context, requestID string, err error, debug bool) {
	ce := toCustomError(err)
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.Error(err),
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, common.ToErrorResponse(ce, debug))
}

// badRequest 請求格式錯誤
func badRequest(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return wrapError(common.ErrRequestTooLarge, err)
	}
	return wrapError(common.ErrInvalidRequest, err)
}
