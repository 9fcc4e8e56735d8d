package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 核心錯誤
var (
	// ErrIndexUnavailable 語料或向量索引未載入，重啟前無法恢復
	ErrIndexUnavailable = errors.New("recipe index unavailable")
	// ErrInfeasiblePlan 候選數量（總數或某餐別）不足以組成計畫
	ErrInfeasiblePlan = errors.New("insufficient recipes for meal plan")
)

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"      // 400
	ErrCodeNotFound        = "NOT_FOUND"            // 404
	ErrCodeNoRecipes       = "NO_RECIPES_FOUND"     // 404
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"    // 413
	ErrCodeInsufficient    = "INSUFFICIENT_RECIPES" // 422
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"    // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeIndexUnavailable   = "INDEX_UNAVAILABLE"   // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest     = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound           = NewError(ErrCodeNotFound, "找不到資源", http.StatusNotFound, nil)
	ErrNoRecipes          = NewError(ErrCodeNoRecipes, "找不到符合條件的食譜", http.StatusNotFound, nil)
	ErrRequestTooLarge    = NewError(ErrCodeRequestTooLarge, "請求內容過大", http.StatusRequestEntityTooLarge, nil)
	ErrInsufficient       = NewError(ErrCodeInsufficient, "食譜數量不足，無法組成餐點計畫", http.StatusUnprocessableEntity, ErrInfeasiblePlan)
	ErrTooManyRequests    = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrIndexNotLoaded     = NewError(ErrCodeIndexUnavailable, "食譜索引不可用", http.StatusServiceUnavailable, ErrIndexUnavailable)
	ErrQueueFull          = NewError("QUEUE_FULL", "規劃佇列已滿", http.StatusServiceUnavailable, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "緩存未命中", http.StatusNotFound, nil)
	ErrNutritionLookup    = NewError("NUTRITION_LOOKUP_FAILED", "營養查詢失敗", http.StatusBadGateway, nil)
)

// ToErrorResponse 轉換為 API 錯誤響應
func ToErrorResponse(e *CustomError, debug bool) ErrorResponse {
	resp := ErrorResponse{Code: e.Code, Message: e.Message}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}
