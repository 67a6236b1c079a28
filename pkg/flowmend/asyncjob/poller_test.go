package asyncjob_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend/asyncjob"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJob builds Ops around a scripted sequence of job snapshots and counts
// every lifecycle call.
type fakeJob struct {
	states     []nifi.AsyncJob
	payload    map[string]any
	cleanupErr error

	submits  atomic.Int32
	polls    atomic.Int32
	fetches  atomic.Int32
	cleanups atomic.Int32
}

func (f *fakeJob) ops() asyncjob.Ops {
	return asyncjob.Ops{
		Submit: func(ctx context.Context) (string, error) {
			f.submits.Add(1)
			return "job-1", nil
		},
		Poll: func(ctx context.Context, jobID string) (nifi.AsyncJob, error) {
			n := int(f.polls.Add(1))
			if n > len(f.states) {
				n = len(f.states)
			}
			return f.states[n-1], nil
		},
		Fetch: func(ctx context.Context, jobID string) (map[string]any, error) {
			f.fetches.Add(1)
			return f.payload, nil
		},
		Cleanup: func(ctx context.Context, jobID string) error {
			f.cleanups.Add(1)
			return f.cleanupErr
		},
	}
}

func TestPoller_FinishesAndCleansUpOnce(t *testing.T) {
	fake := &fakeJob{
		states: []nifi.AsyncJob{
			{ID: "job-1", Status: nifi.JobRunning},
			{ID: "job-1", Status: nifi.JobRunning},
			{ID: "job-1", Status: nifi.JobFinished},
		},
		payload: map[string]any{"dropped": 10},
	}

	poller := asyncjob.Poller{Interval: time.Millisecond, Timeout: time.Second}
	payload, err := poller.Run(context.Background(), fake.ops())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dropped": 10}, payload)

	assert.Equal(t, int32(1), fake.submits.Load())
	assert.Equal(t, int32(3), fake.polls.Load())
	assert.Equal(t, int32(1), fake.fetches.Load())
	assert.Equal(t, int32(1), fake.cleanups.Load())
}

func TestPoller_FailedJobSurfacesReason(t *testing.T) {
	fake := &fakeJob{
		states: []nifi.AsyncJob{
			{ID: "job-1", Status: nifi.JobRunning},
			{ID: "job-1", Status: nifi.JobFailed, FailureReason: "queue is locked"},
		},
	}

	poller := asyncjob.Poller{Interval: time.Millisecond, Timeout: time.Second}
	_, err := poller.Run(context.Background(), fake.ops())
	require.Error(t, err)

	var failed *asyncjob.JobFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "job-1", failed.JobID)
	assert.Equal(t, "queue is locked", failed.Reason)

	assert.Equal(t, int32(0), fake.fetches.Load())
	assert.Equal(t, int32(1), fake.cleanups.Load())
}

func TestPoller_TimeoutCleansUpOnce(t *testing.T) {
	fake := &fakeJob{
		states: []nifi.AsyncJob{{ID: "job-1", Status: nifi.JobRunning}},
	}

	poller := asyncjob.Poller{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}
	_, err := poller.Run(context.Background(), fake.ops())
	require.ErrorIs(t, err, asyncjob.ErrPollTimeout)

	assert.Equal(t, int32(1), fake.submits.Load())
	assert.Equal(t, int32(1), fake.cleanups.Load())
	assert.Equal(t, int32(0), fake.fetches.Load())
}

func TestPoller_CleanupErrorDoesNotMaskSuccess(t *testing.T) {
	fake := &fakeJob{
		states:     []nifi.AsyncJob{{ID: "job-1", Status: nifi.JobFinished}},
		payload:    map[string]any{"ok": true},
		cleanupErr: errors.New("cleanup exploded"),
	}

	poller := asyncjob.Poller{Interval: time.Millisecond, Timeout: time.Second}
	payload, err := poller.Run(context.Background(), fake.ops())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, payload)
	assert.Equal(t, int32(1), fake.cleanups.Load())
}

func TestPoller_PollErrorIsPermanent(t *testing.T) {
	var cleanups atomic.Int32
	ops := asyncjob.Ops{
		Submit: func(ctx context.Context) (string, error) { return "job-1", nil },
		Poll: func(ctx context.Context, jobID string) (nifi.AsyncJob, error) {
			return nifi.AsyncJob{}, errors.New("connection refused")
		},
		Fetch:   func(ctx context.Context, jobID string) (map[string]any, error) { return nil, nil },
		Cleanup: func(ctx context.Context, jobID string) error { cleanups.Add(1); return nil },
	}

	poller := asyncjob.Poller{Interval: time.Millisecond, Timeout: time.Second}
	_, err := poller.Run(context.Background(), ops)
	require.ErrorContains(t, err, "connection refused")
	assert.Equal(t, int32(1), cleanups.Load())
}

func TestPoller_SubmitErrorSkipsCleanup(t *testing.T) {
	var cleanups atomic.Int32
	ops := asyncjob.Ops{
		Submit: func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		Poll: func(ctx context.Context, jobID string) (nifi.AsyncJob, error) {
			return nifi.AsyncJob{}, nil
		},
		Fetch:   func(ctx context.Context, jobID string) (map[string]any, error) { return nil, nil },
		Cleanup: func(ctx context.Context, jobID string) error { cleanups.Add(1); return nil },
	}

	poller := asyncjob.Poller{Interval: time.Millisecond, Timeout: time.Second}
	_, err := poller.Run(context.Background(), ops)
	require.ErrorContains(t, err, "boom")

	// No job exists server-side, so there is nothing to clean up.
	assert.Equal(t, int32(0), cleanups.Load())
}

func TestPoller_IncompleteOps(t *testing.T) {
	_, err := asyncjob.Poller{}.Run(context.Background(), asyncjob.Ops{})
	assert.ErrorIs(t, err, asyncjob.ErrIncompleteOps)
}
