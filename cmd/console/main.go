package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach-console/internal/backend"
	"outreach-console/internal/config"
	"outreach-console/internal/guard"
	apihttp "outreach-console/internal/http"
	"outreach-console/internal/service"
	"outreach-console/internal/session"
	"outreach-console/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	store, closeStorage, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage open", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer closeStorage()

	client := backend.NewHTTPClient(cfg.APIBaseURL, cfg.APITimeout, logger)
	notices := apihttp.NewNoticeBoard()
	sess := session.NewStore(logger, store, client, notices, session.Options{DraftKeys: cfg.DraftKeys})

	sess.Subscribe(func(snap session.Snapshot) {
		logger.Info("session state changed", zap.String("state", snap.State.String()))
	})

	state, err := sess.Hydrate(ctx)
	if err != nil {
		logger.Warn("session hydrate failed", zap.Error(err))
	}
	logger.Info("session hydrated", zap.String("state", state.String()))

	syncer := session.NewSyncer(sess, cfg.SyncInterval, logger)
	go syncer.Run(ctx)

	routeGuard := guard.New(sess, guard.StorageSignal(store))
	var limiter service.LoginLimiter = service.NewLoginLimiter(cfg.LoginWindow, cfg.LoginAttempts)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisLoginLimiter(redisClient, cfg.LoginWindow, cfg.LoginAttempts)
		}
		cancel()
	}
	authSvc := service.NewAuthService(logger, client, sess, limiter)
	accountSvc := service.NewAccountService(logger, client, sess)
	authHandler := apihttp.NewAuthHandler(logger, authSvc, notices)
	accountHandler := apihttp.NewAccountHandler(logger, sess, accountSvc, notices)
	router := apihttp.NewRouter(logger, routeGuard, authHandler, accountHandler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting console", zap.String("port", cfg.HTTPPort), zap.String("storage", cfg.StorageDriver))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
