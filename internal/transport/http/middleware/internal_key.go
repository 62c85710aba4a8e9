package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	resp "mongol-shop/internal/transport/http/response"
)

const HeaderInternalKey = "X-Internal-Key"

// InternalKey 只放行带正确共享密钥的调用方（前端 SSR / OAuth 回调服务）。
// key 为空时不校验，只适合本地开发。
func InternalKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(HeaderInternalKey))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}
