package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) (*Service, *metrics.CronJobMetrics) {
	t.Helper()
	m := metrics.NewCronJobMetrics(prometheus.NewRegistry())
	svc, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  m,
	})
	require.NoError(t, err)
	return svc, m
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "order-auto-complete"}
	bad := &testJob{name: "balance-reconciliation", err: errors.New("boom")}
	svc, _ := newTestService(t, NewLocalLock(), ok, bad)

	require.NoError(t, svc.runCycle(context.Background()))
	require.Equal(t, 1, ok.runs)
	require.Equal(t, 1, bad.runs)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := NewLocalLock()
	held, _ := lock.Acquire(context.Background())
	require.True(t, held)
	job := &testJob{name: "order-auto-complete"}
	svc, _ := newTestService(t, lock, job)

	require.NoError(t, svc.runCycle(context.Background()))
	require.Zero(t, job.runs)
}

func TestRunJob(t *testing.T) {
	job := &testJob{name: "outbox-retention"}
	svc, _ := newTestService(t, NewLocalLock(), job)
	ctx := context.Background()

	require.NoError(t, svc.RunJob(ctx, "outbox-retention"))
	require.Equal(t, 1, job.runs)

	err := svc.RunJob(ctx, "nope")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)
}
