package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	resp "mongol-shop/internal/transport/http/response"
)

var inflight = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "shop",
	Name:      "http_inflight_requests",
	Help:      "Requests currently holding a concurrency slot",
})

func init() { prometheus.MustRegister(inflight) }

// ConcurrencyLimit 同时处理的请求数上限；排队等待受请求 ctx（含 Timeout）约束，
// 等不到槽位返回 503
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			resp.Abort(c, resp.Error(resp.CodeServerBusy, "server busy"))
			return
		}
		inflight.Inc()
		defer func() {
			inflight.Dec()
			sem.Release(1)
		}()
		c.Next()
	}
}
