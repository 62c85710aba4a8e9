package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name        string
	Env         string
	Mode        string // gin mode: debug / release
	CORSOrigins []string
	// InternalKey 前端服务端调用 /auth/oauth、/auth/session 时带的共享密钥
	InternalKey string
	HTTP        HTTP
	Admin       AdminHTTP
}

// LogFile 文件输出 + lumberjack 切割；Filename 为空则只写 stdout
type LogFile struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Cache 商品列表缓存；TTLSec<=0 时关闭
type Cache struct {
	TTLSec int
}

func (c Cache) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// DB.Driver: postgres | mysql | memory
type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Bootstrap 后台首次启动时创建的管理员；Username 为空则跳过
type Bootstrap struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type Admin struct {
	Bootstrap Bootstrap
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	Cache Cache
	Admin Admin
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

// Read 读取 yaml 并叠加 APP_ 前缀的环境变量（a.b → APP_A_B）
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("db.driver", "memory")
	v.SetDefault("jwt.issuer", "mongol-shop")
	v.SetDefault("jwt.accesstokenttlmin", 120)
	v.SetDefault("cache.ttlsec", 60)
	v.SetDefault("redis.prefix", "mongol-shop:")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DB.Driver != "memory" && c.DB.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
	}
	if c.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	return &c, nil
}
