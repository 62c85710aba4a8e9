package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mongol-shop/internal/core/auth"
	"mongol-shop/internal/core/cache"
	"mongol-shop/internal/core/config"
	"mongol-shop/internal/core/database"
	"mongol-shop/internal/core/logger"
	"mongol-shop/internal/domain"
	"mongol-shop/internal/repo"
	"mongol-shop/internal/service"
)

// App 两个进程共用的依赖
type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	JWT      *auth.JWTer
	Accounts *service.AccountService
	Catalog  *service.CatalogService

	closers []func() error
}

// New 按配置选择存储（memory / gorm）并装配服务
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{
		Cfg: cfg,
		Log: l,
		JWT: &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()},
	}

	var (
		users    domain.UserRepository
		products domain.ProductRepository
		tx       domain.Transactor
	)
	if cfg.DB.Driver == "memory" {
		st := repo.NewMemoryStore()
		users, products, tx = st.Users(), st.Products(), st
		l.Warn("using in-memory store, data is lost on restart")
	} else {
		w, err := logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel)
		if err != nil {
			return nil, err
		}
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			Writer:             w,
		})
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlDB.Close)
		l.Info("database connected", zap.String("driver", cfg.DB.Driver))

		if cfg.DB.AutoMigrate {
			if err := database.Migrate(db); err != nil {
				a.Close()
				return nil, err
			}
			l.Info("automigrate done")
		}
		users, products, tx = repo.NewUserRepo(db), repo.NewProductRepo(db), repo.NewTxManager(db)
	}

	a.Accounts = service.NewAccountService(users, tx, l.Named("account"))
	a.Catalog = service.NewCatalogService(products, users, tx, l.Named("catalog"))

	if cfg.Redis.Addr != "" && cfg.Cache.TTL() > 0 {
		c := cache.New(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			// redis 不可用时缓存读写失败会直接回源，不阻塞启动
			l.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		a.Catalog.WithCache(c, cfg.Cache.TTL())
		a.closers = append(a.closers, c.Close)
		l.Info("product list cache enabled", zap.Duration("ttl", cfg.Cache.TTL()))
	}
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
}

// BootstrapAdmin 配置了 admin.bootstrap 且库里没有管理员时建一个
func (a *App) BootstrapAdmin(ctx context.Context) error {
	b := a.Cfg.Admin.Bootstrap
	if b.Username == "" {
		return nil
	}
	email := b.Email
	if email == "" {
		email = b.Username + "@localhost.localdomain"
	}
	first, last := b.FirstName, b.LastName
	if first == "" {
		first = "Site"
	}
	if last == "" {
		last = "Admin"
	}
	created, err := a.Accounts.BootstrapAdmin(ctx, service.AdminInput{
		Username:  b.Username,
		Email:     email,
		Password:  b.Password,
		FirstName: first,
		LastName:  last,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		a.Log.Info("bootstrap admin created", zap.String("username", b.Username))
	}
	return nil
}

// NewLogger 按 log 配置构建 zap；配置了文件则同时写 lumberjack
func NewLogger(service string, c config.Log) (*zap.Logger, func()) {
	return logger.New(logger.Options{
		Service: service,
		Level:   c.Level,
		JSON:    c.JSON,
		Rotate: logger.Rotate{
			Filename:   c.File.Filename,
			MaxSizeMB:  c.File.MaxSizeMB,
			MaxBackups: c.File.MaxBackups,
			MaxAgeDays: c.File.MaxAgeDays,
			Compress:   c.File.Compress,
		},
	})
}
