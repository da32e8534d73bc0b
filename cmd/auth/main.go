package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgRepo "github.com/Chang9601/blog-auth-service/internal/adapters/db/postgres"
	redisRepo "github.com/Chang9601/blog-auth-service/internal/adapters/db/redis"
	httptransport "github.com/Chang9601/blog-auth-service/internal/adapters/transport/http"
	httpmw "github.com/Chang9601/blog-auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Chang9601/blog-auth-service/internal/app/auth/service"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/token"
	"github.com/Chang9601/blog-auth-service/internal/infra/config"
	lg "github.com/Chang9601/blog-auth-service/internal/infra/log"
	"github.com/Chang9601/blog-auth-service/internal/infra/migrate"
	"github.com/Chang9601/blog-auth-service/internal/infra/server"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	validate := validator.New()
	if err := appsvc.RegisterValidations(validate); err != nil {
		zapLog.Fatal("failed to register validations", zap.Error(err))
	}

	codec, err := token.NewCodec(cfg.JWTSecret, zapLog)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}
	issuer, err := token.NewIssuer(codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		zapLog.Fatal("failed to init token issuer", zap.Error(err))
	}

	userRepo := pgRepo.NewPostgresUserRepo(db)
	tokenRepo := redisRepo.NewRedisTokenRepo(redisCli)
	svc := appsvc.New(userRepo, tokenRepo, codec, issuer, cfg.PasswordPepper, validate, zapLog)

	cookies := httptransport.CookieWriter{Domain: cfg.CookieDomain, Secure: true}
	handler := httptransport.NewHandler(svc, cookies, zapLog)

	rootCtx, cancel := context.WithCancel(context.Background())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewRateLimitPerIP(rootCtx, 50, 100, 10_000, time.Hour))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(httpmw.SessionAuthenticator(svc, codec, cookies, zapLog))
	handler.RegisterRoutes(router)

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLog.Info("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
