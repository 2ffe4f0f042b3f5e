package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("archive", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "inc-1"}))
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("archive", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "inc-1", Type: "incident.archive", OrgID: "org-1"}))
	select {
	case job := <-done:
		require.Equal(t, "inc-1", job.ID)
		require.Equal(t, "org-1", job.OrgID)
		require.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("archive", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "inc-1"}))
	select {
	case <-done:
		require.EqualValues(t, 3, atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job not retried")
	}
}

func TestQueueEnqueueDoesNotBlockWhenFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	q := NewQueue("archive", func(ctx context.Context, job Job) error {
		if job.ID == "inc-1" {
			close(started)
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "inc-1"}))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first job not picked up")
	}
	require.NoError(t, q.Enqueue(Job{ID: "inc-2"}))

	result := make(chan error, 1)
	go func() { result <- q.Enqueue(Job{ID: "inc-3"}) }()
	select {
	case err := <-result:
		require.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
