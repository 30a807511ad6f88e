package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task_manager/internal/config"
	"task_manager/internal/db"
	httpServer "task_manager/internal/http"
	"task_manager/internal/http/handlers"
	"task_manager/internal/logger"
	"task_manager/internal/migrations"
	"task_manager/internal/repository"
	"task_manager/internal/service"
	"task_manager/internal/ws"

	"github.com/gin-gonic/gin"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := migrations.Apply(ctx, dbPool, func(name string) {
			logger.Debug("migration applied", "file", name)
		})
		cancel()
		if err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
	}

	var denylist service.TokenDenylist = service.NoopDenylist{}
	var redisCheck handlers.Pinger
	if cfg.RedisAddr != "" {
		rd, err := service.NewRedisDenylist(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, logout will not revoke tokens", "error", err)
		} else {
			defer rd.Close()
			denylist = rd
			redisCheck = rd
			logger.Info("token revocation enabled", "addr", cfg.RedisAddr)
		}
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Fatal("invalid jwt configuration", "error", err)
	}

	hub := ws.NewHub()
	authService := service.NewAuthService(
		repository.NewUserRepository(dbPool),
		tokens,
		service.NewPasswordHasher(cfg.BcryptCost),
		denylist,
	)
	taskService := service.NewTaskService(repository.NewTaskRepository(dbPool), hub)

	r := httpServer.NewRouter(httpServer.Deps{
		Auth:          authService,
		Tasks:         taskService,
		Hub:           hub,
		DB:            dbPool,
		Redis:         redisCheck,
		Version:       version,
		AllowedOrigin: cfg.AllowedOrigin,
		Development:   cfg.Development(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "env", cfg.AppEnv, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server exited")
}
