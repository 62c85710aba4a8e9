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
	"mongol-shop/internal/domain"
	"mongol-shop/internal/transport/http/handler"
	mdw "mongol-shop/internal/transport/http/middleware"
	"mongol-shop/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger("admin", cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("init failed", zap.Error(err))
	}
	defer a.Close()

	// memory 驱动下只有本进程能看到这个管理员
	if err := a.BootstrapAdmin(ctx); err != nil {
		log.Fatal("bootstrap admin failed", zap.Error(err))
	}

	r := router.NewAdminEngine(log,
		server.Options{Name: "admin", Mode: cfg.App.Mode, CORSOrigins: cfg.App.CORSOrigins},
		router.Limits{RPS: 50, Burst: 100, Concurrency: 100},
		mdw.AuthJWT(a.JWT, string(domain.RoleAdmin)),
		router.NewRegistry(handler.NewAdminHandler(a.Accounts, a.Catalog, log)),
	)

	h := cfg.App.Admin
	srv := server.BuildServer(server.Addr(h.Host, h.Port), r, 5*time.Second, 10*time.Second, 60*time.Second)
	if el, err := logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel); err == nil {
		srv.ErrorLog = el
	}

	base := server.BaseURL(h.Host, h.Port)
	log.Info("admin api starting",
		zap.String("health", base+"/health"),
		zap.String("admin_v1", base+"/admin/v1"),
	)
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("admin api stopped with error", zap.Error(err))
		return
	}
	log.Info("admin api stopped gracefully")
}
