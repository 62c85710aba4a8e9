package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"mongol-shop/internal/core/auth"
	resp "mongol-shop/internal/transport/http/response"
)

// 鉴权后写入 gin.Context 的 key
const (
	KeyClaims  = "claims"
	KeyUserID  = "userId"
	KeyRole    = "role"
	KeySubject = "authSubject"
)

// AuthJWT 校验 Bearer token；requireRole 非空时要求角色一致
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if errors.Is(err, auth.ErrTokenExpired) {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "token expired"))
			return
		}
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeySubject, claims.Subject)
		c.Next()
	}
}
