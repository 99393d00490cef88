// Package main is the entry point for the stayledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayledger/internal/config"
	"stayledger/internal/domain/auth"
	"stayledger/internal/domain/reconciliation"
	v1 "stayledger/internal/infrastructure/http/v1"
	"stayledger/internal/infrastructure/http/v1/middleware"
	"stayledger/internal/infrastructure/storage/postgres"
	"stayledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stayledger server")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	policy, err := reconciliation.PolicyByName(cfg.Reconciliation.FeePolicy)
	if err != nil {
		log.Fatalw("invalid fee policy", "error", err)
	}
	log.Infow("fee policy configured", "policy", policy.Name())

	propRepo := postgres.NewPropertyRepo(txm)
	recRepo := postgres.NewReconciliationRepo(txm)
	bookingRepo := postgres.NewBookingRepo(txm)
	expenseRepo := postgres.NewExpenseRepo(txm)

	recService := reconciliation.NewService(
		recRepo,
		propRepo,
		bookingRepo,
		expenseRepo,
		reconciliation.OverlapNameMatcher{},
		policy,
		auditStore,
		txm,
	)

	var validator middleware.JWTValidator
	if !cfg.Auth.Disabled {
		validator = auth.NewJWTService(cfg.Auth.JWTSecret)
	} else {
		log.Warn("authentication disabled")
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:          log,
		Pool:            pool,
		Reconciliations: recService,
		Properties:      propRepo,
		Audit:           auditStore,
		JWTValidator:    validator,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}
