package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mongol-shop/internal/core/server"
	mdw "mongol-shop/internal/transport/http/middleware"
)

// Limits 入口限流参数；零值用默认
type Limits struct {
	RPS         float64
	Burst       int
	Concurrency int64
	MaxBody     int64
	Timeout     time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.RPS <= 0 {
		l.RPS = 200
	}
	if l.Burst <= 0 {
		l.Burst = 400
	}
	if l.Concurrency <= 0 {
		l.Concurrency = 300
	}
	if l.MaxBody <= 0 {
		l.MaxBody = 16 << 20
	}
	if l.Timeout <= 0 {
		l.Timeout = 10 * time.Second
	}
	return l
}

// base 两个引擎共用的中间件链 + /health + /metrics
func base(l *zap.Logger, opt server.Options, lim Limits) *gin.Engine {
	lim = lim.withDefaults()
	r := server.NewRouter(l, opt)

	// Metrics / AccessLog 在外层，限流拒绝和 panic 都能被记录
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(opt.Name),
		mdw.AccessLog(l),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.MaxBodyBytes(lim.MaxBody),
		mdw.Timeout(lim.Timeout),
		mdw.ConcurrencyLimit(lim.Concurrency),
		mdw.Recovery(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
