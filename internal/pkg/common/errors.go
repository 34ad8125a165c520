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
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As 鏈
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

// WrapError 以預定義錯誤為模板包裝原始錯誤
func WrapError(base *CustomError, err error) *CustomError {
	return &CustomError{
		Code:    base.Code,
		Message: base.Message,
		Status:  base.Status,
		Err:     err,
	}
}

// ErrorCode 取得錯誤代碼；非 CustomError 一律視為內部錯誤。
// 外部呼叫邊界只透過代碼分類錯誤，絕不比對錯誤訊息字串。
func ErrorCode(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// IsCode 檢查錯誤是否帶有指定代碼
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// HTTPStatus 取得錯誤對應的 HTTP 狀態碼
func HTTPStatus(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"       // 401
	ErrCodeForbidden       = "FORBIDDEN"          // 403
	ErrCodeNotFound        = "NOT_FOUND"          // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"    // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503

	// 生成流程錯誤
	ErrCodeConfiguration     = "CONFIGURATION_ERROR" // API 金鑰缺失，不重試
	ErrCodeNetwork           = "NETWORK_ERROR"       // 傳輸失敗，可由使用者手動重試
	ErrCodeEmptyCandidates   = "EMPTY_CANDIDATES"    // 模型未返回任何候選
	ErrCodeEmptyContent      = "EMPTY_CONTENT"       // 候選中沒有內容部分
	ErrCodeEmptyText         = "EMPTY_TEXT"          // 第一個內容部分沒有文字
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"  // 清理後的文字不是合法 JSON
	ErrCodeInvalidSchema     = "INVALID_SCHEMA"      // JSON 可解析但缺少預期結構
	ErrCodeEmptyRecipes      = "EMPTY_RECIPES"       // recipes 為空且呼叫端要求至少一筆

	// 認證錯誤
	ErrCodeAuth      = "AUTH_ERROR"       // 後端回報的憑證／驗證失敗
	ErrCodeQueueFull = "QUEUE_FULL"       // 生成隊列已滿
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "禁止訪問", http.StatusForbidden, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)

	// 生成流程錯誤
	ErrConfiguration     = NewError(ErrCodeConfiguration, "generation API key is not configured", http.StatusInternalServerError, nil)
	ErrNetwork           = NewError(ErrCodeNetwork, "network error, please check your connection", http.StatusBadGateway, nil)
	ErrEmptyCandidates   = NewError(ErrCodeEmptyCandidates, "no candidates received from generation model", http.StatusBadGateway, nil)
	ErrEmptyContent      = NewError(ErrCodeEmptyContent, "no content in candidate response", http.StatusBadGateway, nil)
	ErrEmptyText         = NewError(ErrCodeEmptyText, "no text in response part", http.StatusBadGateway, nil)
	ErrMalformedResponse = NewError(ErrCodeMalformedResponse, "failed to parse AI response, please try again", http.StatusBadGateway, nil)
	ErrInvalidSchema     = NewError(ErrCodeInvalidSchema, "invalid response format from AI", http.StatusBadGateway, nil)
	ErrEmptyRecipes      = NewError(ErrCodeEmptyRecipes, "no recipes in AI response", http.StatusBadGateway, nil)

	// 認證與隊列錯誤
	ErrAuth      = NewError(ErrCodeAuth, "authentication failed", http.StatusUnauthorized, nil)
	ErrQueueFull = NewError(ErrCodeQueueFull, "generation queue is full", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled      = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
)
