package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "mongol-shop/internal/transport/http/response"
)

// MaxBodyBytes 声明长度超限直接拒绝；chunked 请求读超限时由绑定阶段报错
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.Error(resp.CodeBadRequest, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
