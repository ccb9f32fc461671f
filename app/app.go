package app

import (
	"Gin_postgres_redis_library/auth"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/session"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config
	Logger *slog.Logger
	Tokens *auth.TokenService

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	DatabaseURL      string
	RedisAddr        string
	RedisPwd         string
	WebOrigin        string
	JWTSecret        string
	JWTIssuer        string
	TokenTTL         time.Duration
	AdminEmails      []string
	LastSeenThrottle time.Duration
	LogLevel         slog.Level
	Port             string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}

	// --- DB: Postgres ---
	dbConn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("database connected")

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:  r,
		DB:      dbConn,
		RDB:     rdb,
		Config:  cfg,
		Logger:  logger,
		Tokens:  auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		appSess: session.NewAppSessionStore(rdb, cfg.TokenTTL),
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def time.Duration) time.Duration {
		if d, err := time.ParseDuration(get(k, "") + "s"); err == nil && d > 0 {
			return d
		}
		return def
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			get("DB_HOST", "127.0.0.1"),
			get("DB_USER", "postgres"),
			get("DB_PASSWORD", "postgres"),
			get("DB_NAME", "library"),
			get("DB_PORT", "5432"),
		)
	}

	adminsCSV := os.Getenv("ADMIN_EMAILS") // 例如: "admin@ex.com,ops@ex.com"
	var admins []string
	for _, s := range strings.Split(adminsCSV, ",") {
		if t := strings.TrimSpace(s); t != "" {
			admins = append(admins, strings.ToLower(t))
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "INFO"))); err != nil {
		level = slog.LevelInfo
	}

	return Config{
		DatabaseURL:      dsn,
		RedisAddr:        get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:         os.Getenv("REDIS_PASSWORD"),
		WebOrigin:        get("WEB_ORIGIN", "http://localhost:3000"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        get("JWT_ISSUER", "library-api"),
		TokenTTL:         seconds("TOKEN_TTL_SECONDS", time.Hour),
		AdminEmails:      admins,
		LastSeenThrottle: seconds("LAST_SEEN_THROTTLE_SECONDS", 5*time.Minute),
		LogLevel:         level,
		Port:             get("PORT", "3001"),
	}
}

func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(email)
	for _, admin := range c.AdminEmails {
		if email == admin {
			return true
		}
	}
	return false
}
