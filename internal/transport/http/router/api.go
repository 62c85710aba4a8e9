package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongol-shop/internal/core/server"
)

// NewAPIEngine 用户端：/api/v1 + /health + /metrics
func NewAPIEngine(l *zap.Logger, opt server.Options, lim Limits, reg *Registry) *gin.Engine {
	r := base(l, opt, lim)

	// 前缀
	api := r.Group("/api/v1")
	reg.MountAllAPI(api)
	return r
}
