package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongol-shop/internal/core/server"
)

// NewAdminEngine 后台：/admin/v1 下统一要求 admin 角色
func NewAdminEngine(l *zap.Logger, opt server.Options, lim Limits, adminAuth gin.HandlerFunc, reg *Registry) *gin.Engine {
	r := base(l, opt, lim)

	admin := r.Group("/admin/v1")
	admin.Use(adminAuth)
	reg.MountAllAdmin(admin)
	return r
}
