// Package main is the entry point for the stayledger finalize sweeper.
// On a fixed interval it advances preview reconciliations for fully
// elapsed months to draft, re-running synthesis to pick up late facts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stayledger/internal/config"
	"stayledger/internal/domain/reconciliation"
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

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Infow("starting stayledger sweeper", "interval", cfg.Sweeper.Interval.String())

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	policy, err := reconciliation.PolicyByName(cfg.Reconciliation.FeePolicy)
	if err != nil {
		log.Fatalw("invalid fee policy", "error", err)
	}

	svc := reconciliation.NewService(
		postgres.NewReconciliationRepo(txm),
		postgres.NewPropertyRepo(txm),
		postgres.NewBookingRepo(txm),
		postgres.NewExpenseRepo(txm),
		reconciliation.OverlapNameMatcher{},
		policy,
		auditStore,
		txm,
	)

	sweeper := NewSweeper(svc, cfg.Sweeper.Interval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down sweeper...")
	cancel()
	wg.Wait()
	log.Info("sweeper stopped")
}

// Sweeper runs the finalize pass on a fixed interval.
type Sweeper struct {
	svc      *reconciliation.Service
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates the sweeper loop.
func NewSweeper(svc *reconciliation.Service, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		log:      log.WithComponent("sweeper"),
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	result, err := s.svc.FinalizeDue(ctx)
	if err != nil {
		s.log.Errorw("sweep failed", "error", err)
		return
	}
	if result.Processed == 0 {
		s.log.Debug("no reconciliations due for finalize")
		return
	}
	s.log.Infow("sweep finished",
		"processed", result.Processed,
		"finalized", result.Finalized,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
}
