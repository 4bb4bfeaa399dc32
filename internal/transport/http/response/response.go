package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eduplatform/internal/core/apperr"
)

var environment = "development"

// SetEnvironment 启动时设置一次，进入每个响应的 meta
func SetEnvironment(env string) {
	if env != "" {
		environment = env
	}
}

type Meta struct {
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	RequestID   string    `json:"requestId"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Body 统一响应信封：成功带 data，失败带 error，meta 恒在
type Body struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

func meta(c *gin.Context) Meta {
	return Meta{
		Timestamp:   time.Now().UTC(),
		Environment: environment,
		RequestID:   c.Writer.Header().Get("X-Request-ID"),
	}
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data, Meta: meta(c)})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Message: message, Data: data, Meta: meta(c)})
}

// Fail 业务错误按 apperr 映射；其余一律 500，细节不出响应
func Fail(c *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}
	c.AbortWithStatusJSON(ae.Status, Body{
		Success: false,
		Message: ae.Message,
		Error:   &ErrorBody{Code: ae.Code, Details: ae.Details},
		Meta:    meta(c),
	})
}
