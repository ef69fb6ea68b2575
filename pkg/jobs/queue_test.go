package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "grade_released", Payload: "enr-1"}))

	select {
	case job := <-done:
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "enr-1", job.Payload)
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "grade_released"}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(time.Second):
		t.Fatal("job was not retried")
	}
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	assert.Error(t, q.Enqueue(Job{Type: "noop"}))
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var processed int32
	gate := make(chan struct{})
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		<-gate
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "grade_released"}))
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gate)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)

	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
	assert.Error(t, q.Enqueue(Job{Type: "grade_released"}))
}

func TestQueueStopHonoursDeadline(t *testing.T) {
	started := make(chan struct{})
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "grade_released"}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	q.Stop(ctx)

	assert.Less(t, time.Since(begin), time.Second)
}

func TestEnqueueContextGivesUpWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop(context.Background())
	defer close(release)

	require.NoError(t, q.Enqueue(Job{Type: "grade_released"}))
	require.NoError(t, q.Enqueue(Job{Type: "grade_released"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.EnqueueContext(ctx, Job{Type: "grade_released"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
