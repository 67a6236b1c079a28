// Package asyncjob drives the remote API's submit → poll → fetch → delete
// pattern for long-running server-side operations (queue drains, queue
// listings, provenance queries).
//
// The remote API requires every submitted job to be explicitly deleted to
// free server resources. Poller guarantees cleanup runs exactly once per
// submitted job, whether the job finishes, fails, or the poller times out.
package asyncjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
)

// Sentinel errors.
var (
	// ErrPollTimeout indicates the job did not reach a terminal status
	// within the poller's timeout.
	ErrPollTimeout = errors.New("async job poll timed out")

	// ErrIncompleteOps indicates Ops was missing a required function.
	ErrIncompleteOps = errors.New("async job ops incomplete")
)

// JobFailedError carries the remote failure reason of a failed job.
type JobFailedError struct {
	JobID  string
	Reason string
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	return fmt.Sprintf("async job %s failed: %s", e.JobID, e.Reason)
}

// Ops is the job lifecycle triple plus cleanup, typically closures over a
// nifi.Client call with the job kind and target bound.
type Ops struct {
	Submit  func(ctx context.Context) (string, error)
	Poll    func(ctx context.Context, jobID string) (nifi.AsyncJob, error)
	Fetch   func(ctx context.Context, jobID string) (map[string]any, error)
	Cleanup func(ctx context.Context, jobID string) error
}

func (o Ops) validate() error {
	if o.Submit == nil || o.Poll == nil || o.Fetch == nil || o.Cleanup == nil {
		return ErrIncompleteOps
	}
	return nil
}

// Poller runs asynchronous jobs to completion on a fixed poll interval.
// The zero value is usable: 1s interval, 60s timeout.
type Poller struct {
	// Interval between poll calls. Default 1s.
	Interval time.Duration

	// Timeout bounds the whole submit-to-terminal wait. Default 60s.
	Timeout time.Duration

	// Logger receives cleanup failures and progress. Nil means slog.Default.
	Logger *slog.Logger
}

// errStillRunning drives the retry loop while the job is non-terminal.
var errStillRunning = errors.New("job still running")

// Run submits the job, polls until it reaches a terminal status or the
// timeout elapses, fetches the result on success, and always cleans up.
//
// Cleanup failures are logged, never returned: they must not mask the
// primary outcome. Cleanup uses a context detached from cancellation so it
// still runs after a timeout.
func (p Poller) Run(ctx context.Context, ops Ops) (map[string]any, error) {
	if err := ops.validate(); err != nil {
		return nil, err
	}

	jobID, err := ops.Submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if cerr := ops.Cleanup(cleanupCtx, jobID); cerr != nil {
			p.log().WarnContext(ctx, "async job cleanup failed",
				slog.String("job_id", jobID),
				slog.String("error", cerr.Error()))
		}
	}()

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	var job nifi.AsyncJob
	pollErr := backoff.Retry(func() error {
		j, err := ops.Poll(pollCtx, jobID)
		if err != nil {
			return backoff.Permanent(err)
		}
		job = j
		switch j.Status {
		case nifi.JobFinished:
			return nil
		case nifi.JobFailed:
			return backoff.Permanent(&JobFailedError{JobID: jobID, Reason: j.FailureReason})
		default:
			return errStillRunning
		}
	}, backoff.WithContext(backoff.NewConstantBackOff(p.interval()), pollCtx))

	if pollErr != nil {
		var failed *JobFailedError
		switch {
		case errors.As(pollErr, &failed):
			return nil, failed
		case pollCtx.Err() != nil:
			return nil, fmt.Errorf("%w: job %s not terminal after %s", ErrPollTimeout, jobID, p.timeout())
		default:
			return nil, fmt.Errorf("poll job %s: %w", jobID, pollErr)
		}
	}

	payload, err := ops.Fetch(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s result: %w", jobID, err)
	}

	p.log().DebugContext(ctx, "async job finished",
		slog.String("job_id", jobID),
		slog.String("status", string(job.Status)))
	return payload, nil
}

func (p Poller) interval() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Second
}

func (p Poller) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 60 * time.Second
}

func (p Poller) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
