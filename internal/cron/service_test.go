package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.released++
	return nil
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	_, t.deadline = ctx.Deadline()
	return t.err
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:       quietLogger(),
		Registry:     registry,
		Lock:         lock,
		Metrics:      m,
		CycleTimeout: time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "order-sync"}
	bad := &testJob{name: "auto-fulfill", err: errors.New("supplier down")}
	last := &testJob{name: "product-sync"}
	lock := &fakeLock{}
	svc := newTestService(t, lock, nil, ok, bad, last)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, bad.runs)
	assert.Equal(t, 1, last.runs)
	assert.True(t, last.deadline)
	assert.Equal(t, 1, lock.released)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLeaseHeld(t *testing.T) {
	job := &testJob{name: "order-sync"}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, &fakeLock{held: true}, metrics.NewCronJobMetrics(reg), job)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	expected := `
# HELP dropship_cron_cycles_skipped_total Cycles skipped because another worker held the lease.
# TYPE dropship_cron_cycles_skipped_total counter
dropship_cron_cycles_skipped_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "dropship_cron_cycles_skipped_total"))
}

func TestRunJobRunsOnlyTheNamedJob(t *testing.T) {
	sync := &testJob{name: "order-sync"}
	fulfill := &testJob{name: "auto-fulfill"}
	svc := newTestService(t, &fakeLock{}, nil, sync, fulfill)

	require.NoError(t, svc.RunJob(context.Background(), "auto-fulfill"))
	assert.Zero(t, sync.runs)
	assert.Equal(t, 1, fulfill.runs)

	err := svc.RunJob(context.Background(), "reindex")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	job := &testJob{name: "order-sync"}
	svc := newTestService(t, &fakeLock{}, nil, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func TestRunOnceRecordsJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(t, &fakeLock{}, metrics.NewCronJobMetrics(reg),
		&testJob{name: "order-sync"},
		&testJob{name: "auto-fulfill", err: errors.New("boom")},
	)
	require.NoError(t, svc.RunOnce(context.Background()))

	expected := `
# HELP dropship_job_runs_total Scheduled job executions by outcome.
# TYPE dropship_job_runs_total counter
dropship_job_runs_total{job="auto-fulfill",outcome="failure"} 1
dropship_job_runs_total{job="order-sync",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "dropship_job_runs_total"))
}

func TestNewServiceValidates(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	_, err = NewService(ServiceParams{Registry: registry, Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: quietLogger(), Registry: registry})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: quietLogger(), Lock: &fakeLock{}})
	assert.Error(t, err)
}
