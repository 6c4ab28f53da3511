package tokens

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/prom"
	"github.com/mealdash/notification-gateway/pkg/worker"
)

// RecordCleaner prunes old notification analytics rows. Satisfied by the
// analytics recorder; wired here so one sweep covers both retention jobs.
type RecordCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SweepConfig struct {
	BatchSize            int
	Workers              int
	RevokedRetentionDays int
	RecordRetentionDays  int
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		BatchSize:            200,
		Workers:              8,
		RevokedRetentionDays: 30,
		RecordRetentionDays:  90,
	}
}

// SweepStats counts one maintenance pass. Concurrent-safe because the worker
// pool updates it from several goroutines.
type SweepStats struct {
	Checked        atomic.Int64
	Revoked        atomic.Int64
	TokensDeleted  atomic.Int64
	RecordsDeleted atomic.Int64
}

// Sweeper composes the periodic maintenance pass: fetch a batch of stale
// tokens, validate them through a bounded worker pool, revoke the dead ones,
// then garbage-collect revoked tokens and old analytics rows. Safe to run
// concurrently with live send traffic because revocation is idempotent.
type Sweeper struct {
	manager *Manager
	records RecordCleaner
	cfg     SweepConfig
}

func NewSweeper(manager *Manager, records RecordCleaner, cfg SweepConfig) *Sweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSweepConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultSweepConfig().Workers
	}
	return &Sweeper{
		manager: manager,
		records: records,
		cfg:     cfg,
	}
}

type sweepJob struct {
	tokenID int64
	stats   *SweepStats
	wg      *sync.WaitGroup
	ctx     context.Context
}

// Run executes one maintenance pass and reports what it did.
func (s *Sweeper) Run(ctx context.Context) (*SweepStats, error) {
	start := time.Now()
	stats := &SweepStats{}

	stale, err := s.manager.GetStaleTokens(ctx, s.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	if len(stale) > 0 {
		s.validateBatch(ctx, stale, stats)
		prom.AddCounter(prom.SystemTokens, prom.MetricTokensStaleSwept, float64(len(stale)))
	}

	if deleted, err := s.manager.CleanupRevokedTokens(ctx, s.cfg.RevokedRetentionDays); err != nil {
		logger.Error("revoked token cleanup failed", "error", err)
	} else {
		stats.TokensDeleted.Store(deleted)
	}

	if s.records != nil {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.RecordRetentionDays)
		if deleted, err := s.records.DeleteOlderThan(ctx, cutoff); err != nil {
			logger.Error("notification record cleanup failed", "error", err)
		} else {
			stats.RecordsDeleted.Store(deleted)
		}
	}

	logger.Info("token maintenance sweep finished",
		"checked", stats.Checked.Load(),
		"revoked", stats.Revoked.Load(),
		"tokens_deleted", stats.TokensDeleted.Load(),
		"records_deleted", stats.RecordsDeleted.Load(),
		"duration_ms", time.Since(start).Milliseconds())

	return stats, nil
}

// validateBatch pushes every stale token through the worker pool and waits
// for all outcomes. One dead token never stops the rest of the batch.
func (s *Sweeper) validateBatch(ctx context.Context, stale []*model.PushToken, stats *SweepStats) {
	wm := worker.NewWorkerManager(s.cfg.BatchSize, s.cfg.Workers, nil)
	wm.SetWorker(s.sweepWorker)
	go func() {
		if err := wm.Start(); err != nil {
			logger.Debug("sweep worker pool stopped", "error", err)
		}
	}()
	defer wm.Exit()

	var wg sync.WaitGroup
	wg.Add(len(stale))
	for _, token := range stale {
		wm.Enqueue(&sweepJob{tokenID: token.ID, stats: stats, wg: &wg, ctx: ctx})
	}
	wg.Wait()
}

func (s *Sweeper) sweepWorker(workerIndex int, job interface{}) {
	sj, ok := job.(*sweepJob)
	if !ok {
		logger.Error("invalid job type in sweep worker", "worker", workerIndex)
		return
	}
	defer sj.wg.Done()

	sj.stats.Checked.Add(1)
	revoked, err := s.manager.ValidateTokensBatch(sj.ctx, []int64{sj.tokenID})
	if err != nil {
		logger.Error("stale token validation failed", "worker", workerIndex, "token_id", sj.tokenID, "error", err)
		return
	}
	sj.stats.Revoked.Add(int64(revoked))
}
