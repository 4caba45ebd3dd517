package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	jobA := &stubJob{name: "order-auto-complete"}
	jobB := &stubJob{name: "balance-reconciliation"}
	registry := NewRegistry(jobA, nil, jobB)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Same(t, jobA, jobs[0])
	require.Same(t, jobB, jobs[1])

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "outbox-retention"})

	job, ok := registry.Lookup("outbox-retention")
	require.True(t, ok)
	require.Equal(t, "outbox-retention", job.Name())

	_, ok = registry.Lookup("missing")
	require.False(t, ok)
}
