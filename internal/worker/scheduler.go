package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs periodic jobs until its context is cancelled
type Scheduler struct {
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{logger: log}
}

// Every runs fn on every tick of interval
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	s.logger.Info("worker started", zap.String("worker", name), zap.Duration("interval", interval))
}

// Wait blocks until every job has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Intervals of the background workers
type Intervals struct {
	Redis    time.Duration
	Postgres time.Duration
	Sweep    time.Duration
	Idle     time.Duration
}

// StartAllWorkers initializes and starts all background workers
func StartAllWorkers(ctx context.Context, p *Persistence, iv Intervals, log *zap.Logger) *Scheduler {
	log.Info("Starting all workers...")
	s := NewScheduler(log)

	if p.documents != nil {
		s.Every(ctx, "redis-backup", iv.Redis, func(ctx context.Context) {
			p.BackupDocuments(ctx)
		})
	}
	if p.snapshots != nil {
		s.Every(ctx, "postgres-backup", iv.Postgres, func(ctx context.Context) {
			p.FlushSnapshots(ctx)
		})
	}
	s.Every(ctx, "session-sweep", iv.Sweep, func(ctx context.Context) {
		p.FlushSnapshots(ctx)
		p.manager.SweepIdle(iv.Idle)
	})

	log.Info("All workers started")
	return s
}
