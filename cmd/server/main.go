package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"secretVault/internal/auth"
	"secretVault/internal/config"
	"secretVault/internal/handlers"
	"secretVault/internal/k8s"
	"secretVault/internal/logger"
	"secretVault/internal/server"
	"secretVault/internal/vault"
)

func main() {
	cfg := config.LoadServer()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.L()

	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY environment variable is required")
	}

	k8sClient, err := k8s.NewClient(cfg.Kubeconfig)
	if err != nil {
		log.Fatal("failed to initialize Kubernetes client", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.SecretKey, cfg.TokenTTL)
	store := vault.NewStore(k8sClient, cfg.VaultSecretName, log.Named("vault"))

	userHandler := handlers.NewUserHandler(k8sClient, jwtManager, log.Named("users"))
	secretsHandler := handlers.NewSecretsHandler(store, log.Named("secrets"))

	router := server.NewRouter(jwtManager, userHandler, secretsHandler, log.Named("http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
