package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	resp "mongol-shop/internal/transport/http/response"
)

// HTTP 状态恒为 200，按 body 里的业务码计数
var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "http_requests_total",
			Help:      "HTTP requests by engine, route and business code",
		},
		[]string{"engine", "route", "method", "code"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shop",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"engine", "route", "method"},
	)
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency) }

// Metrics engine 区分 api / admin 两个进程
func Metrics(engine string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			// 未匹配的路由统一归一个标签，避免按原始 path 打爆基数
			route = "unmatched"
		}
		httpReqTotal.WithLabelValues(engine, route, c.Request.Method, strconv.Itoa(BizCode(c))).Inc()
		httpLatency.WithLabelValues(engine, route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// BizCode 本次响应的业务码；没走统一响应的（/metrics、404）退回 HTTP 状态
func BizCode(c *gin.Context) int {
	if v, ok := c.Get(resp.KeyCode); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return c.Writer.Status()
}
