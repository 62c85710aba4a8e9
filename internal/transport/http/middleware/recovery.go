package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "mongol-shop/internal/transport/http/response"
)

// Recovery 捕获 panic，记录后返回统一错误体
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("rid", c.GetString(keyRID)),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				resp.Abort(c, resp.Error(resp.CodeServerError, "internal error"))
			}
		}()
		c.Next()
	}
}
