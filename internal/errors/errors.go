package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown      ErrorCode = 1000
	ErrInvalidParam ErrorCode = 1001

	// 房间/游戏错误 (2000-2999)
	ErrRoomNotFound        ErrorCode = 2000
	ErrPlayerNotFound      ErrorCode = 2001
	ErrRoomFull            ErrorCode = 2002
	ErrInsufficientPlayers ErrorCode = 2003
	ErrForbidden           ErrorCode = 2004
	ErrInvariantViolation  ErrorCode = 2005
	ErrGuessLimitReached   ErrorCode = 2006

	// 存储错误 (5000-5999)
	ErrPersistence     ErrorCode = 5000
	ErrDatabaseConnect ErrorCode = 5001

	// 配置错误 (6000-6999)
	ErrConfigLoad ErrorCode = 6000
)

// 错误码消息映射（对外返回给客户端）
var errorMessages = map[ErrorCode]string{
	ErrUnknown:      "unknown error",
	ErrInvalidParam: "invalid parameter",

	ErrRoomNotFound:        "room not found",
	ErrPlayerNotFound:      "player not found",
	ErrRoomFull:            "room full",
	ErrInsufficientPlayers: "need 4 players to assign roles",
	ErrForbidden:           "only Mantri can submit guess",
	ErrInvariantViolation:  "chor missing",
	ErrGuessLimitReached:   "guess limit reached",

	ErrPersistence:     "failed to persist room state",
	ErrDatabaseConnect: "database connection failed",

	ErrConfigLoad: "failed to load config",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode `json:"code"`    // 错误码
	Message string    `json:"message"` // 错误消息
	Details string    `json:"details"` // 详细信息
	Cause   error     `json:"-"`       // 原始错误
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}
	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			prefix := strings.Join(details, "; ")
			if appErr.Details != "" {
				prefix += "; " + appErr.Details
			}
			appErr.Details = prefix
		}
		return appErr
	}

	wrapped := New(code, details...)
	wrapped.Cause = err
	if wrapped.Details == "" {
		wrapped.Details = err.Error()
	}
	return wrapped
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// As 提取错误链中的AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrUnknown
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrInvalidParam, ErrRoomFull, ErrInsufficientPlayers, ErrInvariantViolation:
		return http.StatusBadRequest
	case ErrRoomNotFound, ErrPlayerNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	case ErrGuessLimitReached:
		return http.StatusConflict
	}
	if e.Code >= 5000 && e.Code <= 5999 {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrDatabaseConnect:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Details   string    `json:"details,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{
		Error:     err.Message,
		Code:      err.Code,
		Details:   err.Details,
		Timestamp: time.Now().Unix(),
	}
}
