package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/transport/http/response"
)

func SimpleRecovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
				)
				if !c.Writer.Written() {
					response.Fail(c, apperr.Internal(fmt.Errorf("panic: %v", rec)))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
