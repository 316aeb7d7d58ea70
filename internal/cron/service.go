package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/telemetry"
)

const defaultInterval = 15 * time.Minute

// ErrUnknownJob is returned by RunJob for a name nobody registered.
var ErrUnknownJob = errors.New("unknown cron job")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// CycleTimeout caps a whole cycle. Keep it below the lease TTL so a slow
	// supplier cannot keep a cycle running after its lease expired.
	CycleTimeout time.Duration
}

// Service runs the registered jobs every Interval while holding the lease.
type Service struct {
	logg         *logger.Logger
	registry     *Registry
	lock         Lock
	metrics      *metrics.CronJobMetrics
	interval     time.Duration
	cycleTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("job registry required")
	}
	if params.Interval <= 0 {
		params.Interval = defaultInterval
	}
	return &Service{
		logg:         params.Logger,
		registry:     params.Registry,
		lock:         params.Lock,
		metrics:      params.Metrics,
		interval:     params.Interval,
		cycleTimeout: params.CycleTimeout,
	}, nil
}

// RunOnce runs every job a single time.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.locked(ctx, s.registry.Jobs())
}

// RunJob runs only the named job, under the same lease as a full cycle.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q, have %v", ErrUnknownJob, name, s.registry.Names())
	}
	return s.locked(ctx, []Job{job})
}

// Run starts with an immediate cycle and then ticks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if err := s.locked(ctx, s.registry.Jobs()); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "cron.cycle.failed", err)
	}
}

func (s *Service) locked(ctx context.Context, jobs []Job) error {
	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.CycleSkipped()
		s.logg.Info(ctx, "cron.cycle.skipped: lease held by another worker")
		return nil
	}
	defer func() {
		// the cycle context may already be cancelled on shutdown
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.lock.Release(releaseCtx); err != nil {
			s.logg.Error(ctx, "cron.lease.release_failed", err)
		}
	}()

	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	started := time.Now()
	failed := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		// a failing job never stops the rest of the cycle
		if s.runJob(ctx, job) != nil {
			failed++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":        len(jobs),
		"failed":      failed,
		"duration_ms": time.Since(started).Milliseconds(),
	}), "cron.cycle.finished")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	ctx = s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	ctx, span := telemetry.StartSpan(ctx, "cron."+name, trace.SpanKindInternal, attribute.String("cron.job", name))

	started := time.Now()
	err := job.Run(ctx)
	telemetry.End(span, err)
	s.metrics.Record(name, started, err)

	ctx = s.logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job.failed", err)
		return err
	}
	s.logg.Info(ctx, "cron.job.completed")
	return nil
}
