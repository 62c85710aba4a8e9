package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mongol-shop/internal/app"
	"mongol-shop/internal/core/config"
	"mongol-shop/internal/core/logger"
	"mongol-shop/internal/core/server"
	"mongol-shop/internal/transport/http/handler"
	mdw "mongol-shop/internal/transport/http/middleware"
	"mongol-shop/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger("api", cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("init failed", zap.Error(err))
	}
	defer a.Close()

	if cfg.App.InternalKey == "" {
		log.Warn("app.internalKey is empty, /auth/oauth and /auth/session accept any caller")
	}
	authMW := mdw.AuthJWT(a.JWT, "")
	reg := router.NewRegistry(
		handler.NewAccountHandler(handler.AccountDeps{
			Service: a.Accounts,
			JWT:     a.JWT,
			Auth:    authMW,
			Trusted: mdw.InternalKey(cfg.App.InternalKey),
			// 注册/登录按 IP 每秒 5 次，突发 20
			Limit: mdw.RateLimitPerIP(5, 20, 10*time.Minute),
			Log:   log,
		}),
		handler.NewCatalogHandler(a.Catalog, authMW, log),
	)
	r := router.NewAPIEngine(log,
		server.Options{Name: "api", Mode: cfg.App.Mode, CORSOrigins: cfg.App.CORSOrigins},
		router.Limits{}, reg)

	h := cfg.App.HTTP
	srv := server.BuildServer(server.Addr(h.Host, h.Port), r,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)
	if el, err := logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel); err == nil {
		srv.ErrorLog = el
	}

	base := server.BaseURL(h.Host, h.Port)
	log.Info("user api starting",
		zap.String("health", base+"/health"),
		zap.String("api_v1", base+"/api/v1"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("user api stopped with error", zap.Error(err))
		return
	}
	log.Info("user api stopped gracefully")
}
