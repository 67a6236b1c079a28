package flowmend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/randalmurphal/flowmend/pkg/flowmend/asyncjob"
	"github.com/randalmurphal/flowmend/pkg/flowmend/classify"
	"github.com/randalmurphal/flowmend/pkg/flowmend/event"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
	"github.com/randalmurphal/flowmend/pkg/flowmend/observability"
	"github.com/randalmurphal/flowmend/pkg/flowmend/traverse"
)

// maxEdgeNesting bounds dependent-edge deletion recursion. Deleting a
// dependent connection may itself need remediation (draining its queue),
// but a connection's obstacles never include more connections, so one
// level is enough.
const maxEdgeNesting = 1

// Engine executes mutations against the remote flow tree and remediates
// recoverable rejections before retrying.
type Engine struct {
	client nifi.Client

	maxRounds      int
	revisionRounds int
	stopScope      StopScope
	stopWait       time.Duration
	drainTimeout   time.Duration
	pollInterval   time.Duration
	concurrency    int

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	bus     event.Bus
}

// New creates an engine over the given client.
func New(client nifi.Client, opts ...Option) *Engine {
	e := &Engine{
		client:         client,
		maxRounds:      1,
		revisionRounds: classify.Revision.Rounds(),
		stopScope:      StopComponent,
		stopWait:       30 * time.Second,
		drainTimeout:   60 * time.Second,
		pollInterval:   time.Second,
		concurrency:    traverse.DefaultConcurrency,
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mutate executes one mutation. If the remote API rejects it with a
// remediable conflict, the engine clears the obstacle and retries within
// the category's round budget. The result's remediation log records every
// action taken, in execution order, whatever the outcome.
//
// Non-remediable rejections (not found, permission denied, unrecognized
// errors) are returned verbatim with an empty log.
func (e *Engine) Mutate(ctx context.Context, req nifi.MutationRequest) (MutationResult, error) {
	if e.client == nil {
		return MutationResult{}, ErrNilClient
	}

	attempt := RemediationAttempt{ID: uuid.NewString(), TargetID: req.ID}
	logger := observability.EnrichMutationLogger(e.logger, attempt.ID, req.ID)

	ctx, span := e.spans.StartMutationSpan(ctx, string(req.Op), req.ID)
	done := observability.TimedOperation()
	observability.LogMutationStart(logger, string(req.Op), req.ID)

	res, err := e.mutate(ctx, logger, req, &attempt, 0)
	res.Remediation = attempt

	elapsed := done()
	observability.LogMutationResolved(logger, req.ID, string(res.Status), len(attempt.Actions), elapsed)
	e.metrics.RecordMutation(ctx, string(req.Op), string(res.Status), time.Duration(elapsed)*time.Millisecond)
	e.spans.EndSpanWithError(span, err)
	e.publish(event.New(event.TypeMutationResolved, attempt.ID, event.MutationResolved{
		TargetID: req.ID,
		Status:   string(res.Status),
		Actions:  len(attempt.Actions),
	}))
	return res, err
}

// mutate is the retry loop. Rounds are budgeted per category, not per
// call, so a mutation may legitimately move through several categories
// (stop the component, then drain its queue, then delete its edges) as
// each retry surfaces the next obstacle.
func (e *Engine) mutate(ctx context.Context, logger *slog.Logger, req nifi.MutationRequest, attempt *RemediationAttempt, depth int) (MutationResult, error) {
	roundsUsed := make(map[classify.Category]int)

	for {
		node, err := e.client.MutateResource(ctx, req)
		if err == nil {
			return MutationResult{Status: StatusSucceeded, Node: node}, nil
		}

		conflict := nifi.AsConflict(err)
		if conflict == nil {
			// Transport failure, not a rejection. Surface verbatim.
			return MutationResult{Status: StatusFailed}, err
		}

		category := classify.Classify(conflict.Status, conflict.Body)
		if !category.Remediable() {
			return MutationResult{Status: StatusFailed}, err
		}

		budget := e.rounds(category)
		if roundsUsed[category] >= budget {
			return MutationResult{Status: StatusFailedAfterRemediation}, &ExhaustedError{
				TargetID: req.ID,
				Category: category,
				Rounds:   budget,
				Err:      err,
			}
		}
		roundsUsed[category]++
		observability.LogConflict(logger, req.ID, category.String(), roundsUsed[category])

		if remErr := e.remediate(ctx, logger, &req, attempt, category, depth); remErr != nil {
			return MutationResult{Status: StatusRemediationFailed}, remErr
		}
	}
}

// rounds returns the retry budget for a category, with the engine's
// configured overrides applied.
func (e *Engine) rounds(category classify.Category) int {
	if category == classify.Revision {
		return e.revisionRounds
	}
	return e.maxRounds
}

// remediate dispatches one remediation round for a classified conflict.
func (e *Engine) remediate(ctx context.Context, logger *slog.Logger, req *nifi.MutationRequest, attempt *RemediationAttempt, category classify.Category, depth int) error {
	ctx, span := e.spans.StartRemediationSpan(ctx, category.String())
	var err error
	defer func() { e.spans.EndSpanWithError(span, err) }()

	switch category {
	case classify.Running:
		err = e.stopRunning(ctx, logger, req, attempt, category)
	case classify.DependentEdges:
		err = e.deleteDependentEdges(ctx, logger, *req, attempt, category, depth)
	case classify.NonEmptyQueue:
		err = e.drainQueues(ctx, logger, *req, attempt, category)
	case classify.Revision:
		err = e.refreshRevision(ctx, logger, req, attempt, category)
	default:
		err = &RemediationError{
			TargetID: req.ID,
			Category: category,
			Err:      fmt.Errorf("no remediation strategy"),
		}
	}
	return err
}

// record runs one remediation action, appends it to the audit log, and
// emits the observability trio (log line, metric, event). Failures come
// back as *RemediationError.
func (e *Engine) record(ctx context.Context, logger *slog.Logger, attempt *RemediationAttempt, category classify.Category, action Action, targetID string, fn func() error) error {
	err := fn()

	outcome := "ok"
	if err != nil {
		outcome = err.Error()
	}
	attempt.Actions = append(attempt.Actions, ActionRecord{
		Action:       action,
		TargetID:     targetID,
		Category:     category,
		CategoryName: category.String(),
		Outcome:      outcome,
		Timestamp:    time.Now().UTC(),
	})

	observability.LogRemediationAction(logger, string(action), targetID, outcome)
	e.metrics.RecordRemediationAction(ctx, category.String(), string(action), err == nil)
	e.publish(event.New(event.TypeRemediationAction, attempt.ID, event.RemediationAction{
		TargetID: targetID,
		Category: category.String(),
		Action:   string(action),
		Outcome:  outcome,
	}))

	if err != nil {
		var re *RemediationError
		if errors.As(err, &re) {
			return err
		}
		return &RemediationError{TargetID: targetID, Category: category, Action: action, Err: err}
	}
	return nil
}

// stopRunning stops the conflicting component (or, with StopGroup scope,
// its whole parent group) and waits for the stop to converge. Stopping
// the mutation target bumps its revision, so the pending request picks up
// the post-stop revision rather than burning a revision round on it.
func (e *Engine) stopRunning(ctx context.Context, logger *slog.Logger, req *nifi.MutationRequest, attempt *RemediationAttempt, category classify.Category) error {
	stopType, stopID := req.Type, req.ID
	if e.stopScope == StopGroup && req.Type != nifi.TypeGroup {
		parent, err := e.parentGroup(ctx, *req)
		if err != nil {
			return &RemediationError{TargetID: req.ID, Category: category, Action: ActionStopComponent, Err: err}
		}
		stopType, stopID = nifi.TypeGroup, parent
	}

	return e.record(ctx, logger, attempt, category, ActionStopComponent, stopID, func() error {
		node, err := e.client.GetResource(ctx, stopType, stopID)
		if err != nil {
			return err
		}
		stopped, err := e.client.StopComponent(ctx, stopType, stopID, node.Revision)
		if err != nil {
			return err
		}
		if stopID == req.ID && stopped.Revision > req.Revision {
			req.Revision = stopped.Revision
		}
		return e.awaitStopped(ctx, stopType, stopID)
	})
}

// awaitStopped polls until the component reports a non-running state.
// Group stops fan out server-side and report no single state, so they are
// not awaited.
func (e *Engine) awaitStopped(ctx context.Context, t nifi.ResourceType, id string) error {
	if t == nifi.TypeGroup || t == nifi.TypeConnection {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.stopWait)
	defer cancel()

	err := backoff.Retry(func() error {
		node, err := e.client.GetResource(waitCtx, t, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if node.State == nifi.StateRunning {
			return fmt.Errorf("component %s still running", id)
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(e.pollInterval), waitCtx))

	if err != nil && waitCtx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %s", ErrStopNotConverged, id, e.stopWait)
	}
	return err
}

// deleteDependentEdges deletes every connection that references the target
// as source or destination. Each deletion re-enters the mutation loop, so
// a connection blocked by queued data is drained first; those nested
// actions land in the same audit log, before the deletion they unblocked.
func (e *Engine) deleteDependentEdges(ctx context.Context, logger *slog.Logger, req nifi.MutationRequest, attempt *RemediationAttempt, category classify.Category, depth int) error {
	if depth >= maxEdgeNesting {
		return &RemediationError{
			TargetID: req.ID,
			Category: category,
			Action:   ActionDeleteConnection,
			Err:      fmt.Errorf("dependent edge deletion nested beyond depth %d", maxEdgeNesting),
		}
	}

	conns, err := e.connectionsTouching(ctx, req)
	if err != nil {
		return &RemediationError{TargetID: req.ID, Category: category, Action: ActionDeleteConnection, Err: err}
	}
	if len(conns) == 0 {
		return &RemediationError{
			TargetID: req.ID,
			Category: category,
			Action:   ActionDeleteConnection,
			Err:      fmt.Errorf("remote reported dependent edges but none reference %s", req.ID),
		}
	}

	for _, conn := range conns {
		del := nifi.MutationRequest{
			Op:            nifi.OpDelete,
			Type:          nifi.TypeConnection,
			ID:            conn.ID,
			ParentGroupID: conn.ParentGroupID,
			Revision:      conn.Revision,
		}
		err := e.record(ctx, logger, attempt, category, ActionDeleteConnection, conn.ID, func() error {
			_, err := e.mutate(ctx, logger, del, attempt, depth+1)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// drainQueues drains queued flowfiles blocking the mutation. For a
// connection target that is the connection's own queue; for anything else
// it is the queues of connections touching the target.
func (e *Engine) drainQueues(ctx context.Context, logger *slog.Logger, req nifi.MutationRequest, attempt *RemediationAttempt, category classify.Category) error {
	var queueIDs []string
	if req.Type == nifi.TypeConnection {
		queueIDs = []string{req.ID}
	} else {
		conns, err := e.connectionsTouching(ctx, req)
		if err != nil {
			return &RemediationError{TargetID: req.ID, Category: category, Action: ActionDrainQueue, Err: err}
		}
		for _, conn := range conns {
			if conn.QueuedCount > 0 {
				queueIDs = append(queueIDs, conn.ID)
			}
		}
		if len(queueIDs) == 0 {
			// The remote sees queued data the listing snapshot does not;
			// drain every touching connection rather than guess.
			for _, conn := range conns {
				queueIDs = append(queueIDs, conn.ID)
			}
		}
	}
	if len(queueIDs) == 0 {
		return &RemediationError{
			TargetID: req.ID,
			Category: category,
			Action:   ActionDrainQueue,
			Err:      fmt.Errorf("remote reported queued data but no connections reference %s", req.ID),
		}
	}

	for _, queueID := range queueIDs {
		err := e.record(ctx, logger, attempt, category, ActionDrainQueue, queueID, func() error {
			return e.drainQueue(ctx, queueID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// drainQueue runs one queue drop request through the async job poller.
func (e *Engine) drainQueue(ctx context.Context, connID string) error {
	poller := asyncjob.Poller{
		Interval: e.pollInterval,
		Timeout:  e.drainTimeout,
		Logger:   e.logger,
	}
	_, err := poller.Run(ctx, asyncjob.Ops{
		Submit: func(ctx context.Context) (string, error) {
			return e.client.SubmitAsyncJob(ctx, nifi.JobQueueDrain, connID)
		},
		Poll: func(ctx context.Context, jobID string) (nifi.AsyncJob, error) {
			return e.client.PollAsyncJob(ctx, nifi.JobQueueDrain, connID, jobID)
		},
		Fetch: func(ctx context.Context, jobID string) (map[string]any, error) {
			return e.client.FetchAsyncJobResult(ctx, nifi.JobQueueDrain, connID, jobID)
		},
		Cleanup: func(ctx context.Context, jobID string) error {
			return e.client.DeleteAsyncJob(ctx, nifi.JobQueueDrain, connID, jobID)
		},
	})
	return err
}

// refreshRevision re-reads the target and retries with its current
// revision.
func (e *Engine) refreshRevision(ctx context.Context, logger *slog.Logger, req *nifi.MutationRequest, attempt *RemediationAttempt, category classify.Category) error {
	return e.record(ctx, logger, attempt, category, ActionRefreshRevision, req.ID, func() error {
		node, err := e.client.GetResource(ctx, req.Type, req.ID)
		if err != nil {
			return err
		}
		req.Revision = node.Revision
		return nil
	})
}

// connectionsTouching lists connections in the target's parent group that
// reference the target as source or destination.
func (e *Engine) connectionsTouching(ctx context.Context, req nifi.MutationRequest) ([]nifi.ResourceNode, error) {
	parent := req.ParentGroupID
	if parent == "" {
		p, err := e.parentGroup(ctx, req)
		if err != nil {
			return nil, err
		}
		parent = p
	}

	conns, err := e.client.ListChildren(ctx, parent, nifi.TypeConnection)
	if err != nil {
		return nil, err
	}

	var touching []nifi.ResourceNode
	for _, conn := range conns {
		if conn.SourceID == req.ID || conn.DestinationID == req.ID {
			if conn.ParentGroupID == "" {
				conn.ParentGroupID = parent
			}
			touching = append(touching, conn)
		}
	}
	return touching, nil
}

// parentGroup resolves the target's parent group ID, fetching the target
// when the request does not carry it.
func (e *Engine) parentGroup(ctx context.Context, req nifi.MutationRequest) (string, error) {
	if req.ParentGroupID != "" {
		return req.ParentGroupID, nil
	}
	node, err := e.client.GetResource(ctx, req.Type, req.ID)
	if err != nil {
		return "", fmt.Errorf("resolve parent group of %s: %w", req.ID, err)
	}
	if node.ParentGroupID == "" {
		return "", fmt.Errorf("no parent group for %s", req.ID)
	}
	return node.ParentGroupID, nil
}

// ListHierarchy enumerates the flow tree under a wall-clock budget. See
// the traverse package for resumption semantics.
func (e *Engine) ListHierarchy(ctx context.Context, req traverse.Request) (traverse.Result, error) {
	if e.client == nil {
		return traverse.Result{}, ErrNilClient
	}
	opts := []traverse.Option{
		traverse.WithConcurrency(e.concurrency),
		traverse.WithLogger(e.logger),
		traverse.WithMetrics(e.metrics),
		traverse.WithSpans(e.spans),
	}
	if e.bus != nil {
		opts = append(opts, traverse.WithEventBus(e.bus))
	}
	return traverse.New(e.client, opts...).Traverse(ctx, req)
}

func (e *Engine) publish(evt event.Event) {
	if e.bus != nil {
		e.bus.Publish(evt)
	}
}
