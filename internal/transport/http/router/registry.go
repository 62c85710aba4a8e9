package router

import (
	"cmp"
	"slices"

	"github.com/gin-gonic/gin"
)

// 模块可实现其中一个或两个接口；同一个 handler 可以同时挂用户端和后台
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：数值越小越先挂，不实现按 100
type prioritizer interface{ Priority() int }

// Registry 收集 handler，在 main 里一次性组装，引擎构造时按优先级挂载。
// 不做并发保护：只在启动阶段使用。
type Registry struct {
	api   []APIModule
	admin []AdminModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register 按实现的接口分发；两个都没实现的模块被忽略
func (r *Registry) Register(mod any) {
	if m, ok := mod.(APIModule); ok {
		r.api = append(r.api, m)
	}
	if m, ok := mod.(AdminModule); ok {
		r.admin = append(r.admin, m)
	}
}

func (r *Registry) MountAllAPI(g *gin.RouterGroup) {
	for _, m := range byPriority(r.api) {
		m.MountAPI(g)
	}
}

func (r *Registry) MountAllAdmin(g *gin.RouterGroup) {
	for _, m := range byPriority(r.admin) {
		m.MountAdmin(g)
	}
}

func byPriority[T any](mods []T) []T {
	out := slices.Clone(mods)
	slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(priorityOf(a), priorityOf(b)) })
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
