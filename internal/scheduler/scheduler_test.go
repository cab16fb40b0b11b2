package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingJob(id string, counter *atomic.Int32) *Job {
	return &Job{
		ID:       id,
		Name:     id,
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			counter.Add(1)
			return nil
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSchedulerStartStop(t *testing.T) {
	var runs atomic.Int32
	s := New(true, "UTC")
	s.AddJob(countingJob("tick", &runs))

	s.Start(context.Background())
	assert.True(t, s.IsRunning())

	waitFor(t, func() bool { return runs.Load() >= 2 })

	s.Stop()
	assert.False(t, s.IsRunning())

	// Let any in-flight run drain before sampling the counter.
	time.Sleep(30 * time.Millisecond)
	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after stop")
}

func TestSchedulerDisabled(t *testing.T) {
	var runs atomic.Int32
	s := New(false, "UTC")
	s.AddJob(countingJob("tick", &runs))

	s.Start(context.Background())

	assert.False(t, s.IsRunning())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load())
}

func TestSchedulerDoubleStart(t *testing.T) {
	s := New(true, "UTC")
	s.Start(context.Background())
	defer s.Stop()

	// Second start is a no-op, not a second set of loops.
	s.Start(context.Background())
	assert.True(t, s.IsRunning())
}

func TestSchedulerStopWhenNotRunning(t *testing.T) {
	s := New(true, "UTC")
	assert.NotPanics(t, func() { s.Stop() })
}

func TestJobErrorIsolation(t *testing.T) {
	var good atomic.Int32
	s := New(true, "UTC")
	s.AddJob(&Job{
		ID:       "failing",
		Name:     "failing",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			return errors.New("always fails")
		},
	})
	s.AddJob(countingJob("good", &good))

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return good.Load() >= 3 })
}

func TestAddJobReplacesById(t *testing.T) {
	var first, second atomic.Int32
	s := New(true, "UTC")
	s.AddJob(countingJob("job", &first))
	s.AddJob(countingJob("job", &second))

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return second.Load() >= 1 })
	assert.Zero(t, first.Load(), "replaced job must not run")

	status := s.GetStatus()
	assert.Len(t, status.Jobs, 1)
}

func TestGetStatus(t *testing.T) {
	s := New(true, "America/Caracas")
	s.AddJob(&Job{ID: "a", Name: "Job A", Interval: time.Hour, Run: func(ctx context.Context) error { return nil }})
	s.AddJob(&Job{ID: "b", Name: "Job B", Interval: time.Minute, Run: func(ctx context.Context) error { return nil }})

	t.Run("before start", func(t *testing.T) {
		status := s.GetStatus()
		assert.False(t, status.IsRunning)
		assert.Equal(t, "America/Caracas", status.Timezone)
		require.Len(t, status.Jobs, 2)
		assert.Nil(t, status.Jobs[0].NextRun)
	})

	t.Run("after start", func(t *testing.T) {
		s.Start(context.Background())
		defer s.Stop()

		status := s.GetStatus()
		assert.True(t, status.IsRunning)
		require.Len(t, status.Jobs, 2)
		for _, job := range status.Jobs {
			require.NotNil(t, job.NextRun, "job %s", job.ID)
			assert.True(t, job.NextRun.After(time.Now().Add(-time.Second)))
		}
	})

	t.Run("unknown timezone falls back to UTC", func(t *testing.T) {
		fallback := New(true, "Mars/Olympus_Mons")
		assert.Equal(t, "UTC", fallback.GetStatus().Timezone)
	})
}
