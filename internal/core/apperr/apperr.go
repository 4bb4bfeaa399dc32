package apperr

import (
	"errors"
	"net/http"
)

// 业务错误码（对外稳定，客户端据此分支）
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeAccountBanned        = "ACCOUNT_BANNED"
	CodeSessionExpired       = "SESSION_EXPIRED"
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeUserAlreadyExists    = "USER_ALREADY_EXISTS"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeAlreadyLoggedIn      = "ALREADY_LOGGED_IN"
	CodeEmailAlreadyVerified = "EMAIL_ALREADY_VERIFIED"
	CodeEmailNotVerified     = "EMAIL_NOT_VERIFIED"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInternalError        = "INTERNAL_ERROR"

	// 基础设施侧，非业务分支
	CodeRateLimited    = "RATE_LIMITED"
	CodeRequestTimeout = "REQUEST_TIMEOUT"
	CodePayloadTooBig  = "PAYLOAD_TOO_LARGE"
)

// Error 领域错误：稳定 code + HTTP 状态 + 可直接展示的 message。
// 内部原因挂在 cause 上，只进日志不出响应。
type Error struct {
	Code    string
	Status  int
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(status int, code, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, Details: e.Details, cause: err}
}

func (e *Error) WithDetails(d any) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, Details: d, cause: e.cause}
}

// As 提取 *Error；失败时返回 nil
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

func Validation(message string, details any) *Error {
	return New(http.StatusBadRequest, CodeValidationError, message).WithDetails(details)
}

// Internal 基础设施错误：细节不外泄，cause 只进日志
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternalError, "internal server error").WithCause(err)
}
