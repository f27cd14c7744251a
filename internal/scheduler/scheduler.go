package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gizz1e/Gizzle/internal/clock"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	"github.com/Gizz1e/Gizzle/internal/ratelimit"
	reconciliationdomain "github.com/Gizz1e/Gizzle/internal/reconciliation/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobReconcilePending  = "reconcile_pending"
	lockReconcilePending = "gizzle:scheduler:reconcile_pending"
	lockReleaseTimeout   = 5 * time.Second
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// jobLocker keeps replicas from running the same job concurrently.
type jobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Reconciler reconciliationdomain.Service
	GenID      *snowflake.Node
	Clock      clock.Clock
	Locker     *ratelimit.Locker            `optional:"true"`
	Metrics    *obsmetrics.SchedulerMetrics `optional:"true"`
	Config     Config                       `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	reconciler reconciliationdomain.Service
	locker     jobLocker
	metrics    *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Reconciler == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	s := &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		reconciler: p.Reconciler,
		metrics:    p.Metrics.WithGatewayClassifier(isGatewayError),
	}
	if p.Locker.Enabled() {
		s.locker = p.Locker
	}
	return s, nil
}

func isGatewayError(err error) bool {
	return errors.Is(err, paymentdomain.ErrGatewayError) || errors.Is(err, paymentdomain.ErrGatewayUnavailable)
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name, batchSize)
	s.logJobStart(ctx, run)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil && run.errorCount == 0 {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name, err)
	// A deadline is a soft timeout; the next tick picks up where this one stopped.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.metrics.IncJobTimeout(name)
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.String("run_id", run.runID),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every scheduled job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobReconcilePending, s.cfg.BatchSize, s.cfg.JobTimeout, s.ReconcilePendingJob)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now()

	for {
		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			s.metrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ReconcilePendingJob settles pending transactions the gateway has already
// decided. Only the replica holding the job lock sweeps.
func (s *Scheduler) ReconcilePendingJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, lockReconcilePending, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			s.metrics.IncJobSkipped(jobReconcilePending, obsmetrics.SchedulerSkipReasonLockHeld)
			s.logger(ctx).Debug("scheduler.job.skipped",
				zap.String("job", jobReconcilePending),
				zap.String("reason", obsmetrics.SchedulerSkipReasonLockHeld),
			)
			return nil
		}
		defer s.releaseLock(lockReconcilePending, token)
	}

	result, err := s.reconciler.Sweep(ctx, s.cfg.StaleAfter, s.cfg.BatchSize)
	if result != nil {
		s.metrics.AddSweepResult(jobReconcilePending, result.Scanned, result.Transitioned)
		run.AddProcessed(result.Scanned)
		run.AddErrors(result.Failed)
	}
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.sweep.failed", jobReconcilePending, err)
	}
	return err
}

func (s *Scheduler) releaseLock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()
	if err := s.locker.Release(ctx, key, token); err != nil {
		s.log.Warn("release scheduler lock", zap.String("key", key), zap.Error(err))
	}
}
