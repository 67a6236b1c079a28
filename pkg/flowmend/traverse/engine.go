// Package traverse enumerates a potentially large flow tree under a
// wall-clock budget, returning partial results plus a continuation token
// that resumes traversal exactly where it stopped.
//
// Traversal is breadth-first over an explicit frontier rather than a call
// stack, so a frozen frontier can be serialized into a token and restored
// in a later call, or a later process. Sibling groups at one level are
// listed with bounded-parallel fan-out; levels are joined before advancing,
// so concatenating the results of successive resumed calls yields the same
// order as a single unbounded call over an unchanged tree.
package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend/event"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
	"github.com/randalmurphal/flowmend/pkg/flowmend/observability"
)

// DefaultConcurrency bounds sibling listing fan-out per frontier level.
const DefaultConcurrency = 5

// Request describes one traversal call.
type Request struct {
	// RootGroupID is where traversal starts. Empty means the remote root.
	RootGroupID string

	// Kind selects which child resources to list per group.
	Kind nifi.ResourceType

	// MaxDepth limits recursion into child groups. The root is depth 0 and
	// groups at MaxDepth are listed but not recursed into. Zero or negative
	// means unlimited.
	MaxDepth int

	// Timeout is the wall-clock budget. Zero means unbounded. The deadline
	// is checked before each unit of work, so in-flight listing calls may
	// push actual wall time slightly past the budget.
	Timeout time.Duration

	// ContinuationToken resumes a previous traversal. Empty starts fresh.
	ContinuationToken string
}

// GroupListing is the per-group slice of a traversal result.
type GroupListing struct {
	GroupID string              `json:"processGroupId"`
	Depth   int                 `json:"depth"`
	Objects []nifi.ResourceNode `json:"objects"`

	// Incomplete marks a group whose listing failed. Its subtree is retried
	// on the next resumed call.
	Incomplete bool   `json:"incomplete,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of one traversal call.
type Result struct {
	Results []GroupListing `json:"results"`

	// Completed is true when the whole requested scope was enumerated.
	Completed bool `json:"completed"`

	// ContinuationToken is set when the call stopped early; resume by
	// passing it into the next call.
	ContinuationToken string `json:"continuationToken,omitempty"`

	// ProcessedCount counts groups visited, for progress reporting.
	ProcessedCount int `json:"processedCount"`

	// TimedOut distinguishes "stopped at the deadline, please resume"
	// from other early stops. A timeout is not an error.
	TimedOut bool `json:"timedOut"`
}

// Engine performs bounded-time, resumable traversal of the flow tree.
type Engine struct {
	client      nifi.Client
	concurrency int
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	bus         event.Bus
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds sibling fan-out per level.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSpans sets the trace span manager.
func WithSpans(s observability.SpanManager) Option {
	return func(e *Engine) {
		e.spans = s
	}
}

// WithEventBus publishes traversal progress events to the bus.
func WithEventBus(bus event.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// New creates a traversal engine over the given client.
func New(client nifi.Client, opts ...Option) *Engine {
	e := &Engine{
		client:      client,
		concurrency: DefaultConcurrency,
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// expansion is the outcome of expanding one group.
type expansion struct {
	objects     []nifi.ResourceNode
	childGroups []string
	err         error
}

// Traverse enumerates the tree below the request's root.
//
// Timeouts and sibling failures are normal terminal states carried in the
// Result; the error return is reserved for invalid tokens and misuse.
func (e *Engine) Traverse(ctx context.Context, req Request) (Result, error) {
	if e.client == nil {
		return Result{}, fmt.Errorf("traverse: nil client")
	}
	if req.Kind == "" {
		req.Kind = nifi.TypeProcessor
	}

	ctx, span := e.spans.StartTraversalSpan(ctx, req.RootGroupID, req.ContinuationToken != "")
	var spanErr error
	defer func() { e.spans.EndSpanWithError(span, spanErr) }()

	done := observability.TimedOperation()

	depth := 0
	var level []string
	resumedHead := ""
	if req.ContinuationToken != "" {
		cursor, err := Decode(req.ContinuationToken)
		if err != nil {
			spanErr = err
			return Result{}, err
		}
		depth = cursor.Depth
		level = append([]string{cursor.GroupID}, cursor.Pending...)
		resumedHead = cursor.GroupID
	} else {
		rootID := req.RootGroupID
		if rootID == "" {
			id, err := e.client.RootGroupID(ctx)
			if err != nil {
				spanErr = err
				return Result{}, fmt.Errorf("resolve root group: %w", err)
			}
			rootID = id
		}
		level = []string{rootID}
	}

	observability.LogTraversalStart(e.logger, level[0], resumedHead != "")

	var deadline time.Time
	if req.Timeout > 0 {
		deadline = time.Now().Add(req.Timeout)
	}

	var res Result
	for len(level) > 0 {
		var next []string
		var failed []string

		for i := 0; i < len(level); {
			if !deadline.IsZero() && time.Now().After(deadline) {
				pending := make([]string, 0, len(level)-i+len(next))
				pending = append(pending, level[i:]...)
				pending = append(pending, next...)
				e.suspend(ctx, &res, pending, depth, true)
				e.metrics.RecordTraversal(ctx, res.ProcessedCount, time.Duration(done())*time.Millisecond, false)
				return res, nil
			}

			batch := level[i:min(i+e.concurrency, len(level))]
			outs := e.expandBatch(ctx, batch, depth, req)

			for j, out := range outs {
				groupID := batch[j]
				if out.err != nil {
					if groupID == resumedHead && nifi.IsNotFound(out.err) {
						// The tree was restructured since the token was
						// issued; the caller must restart from the root.
						spanErr = &InvalidTokenError{Token: req.ContinuationToken, Reason: "group no longer exists"}
						return Result{}, spanErr
					}
					res.Results = append(res.Results, GroupListing{
						GroupID:    groupID,
						Depth:      depth,
						Incomplete: true,
						Error:      out.err.Error(),
					})
					failed = append(failed, groupID)
					continue
				}

				res.ProcessedCount++
				res.Results = append(res.Results, GroupListing{
					GroupID: groupID,
					Depth:   depth,
					Objects: out.objects,
				})
				next = append(next, out.childGroups...)
				e.publish(event.New(event.TypeTraversalVisited, "", event.TraversalProgress{
					GroupID: groupID,
					Depth:   depth,
					Visited: res.ProcessedCount,
				}))
			}
			i += len(batch)
		}

		if len(failed) > 0 {
			// Failed siblings stay resumable; their subtrees are retried on
			// the next call together with the children discovered so far.
			e.suspend(ctx, &res, append(failed, next...), depth, false)
			e.metrics.RecordTraversal(ctx, res.ProcessedCount, time.Duration(done())*time.Millisecond, false)
			return res, nil
		}

		level = next
		depth++
	}

	res.Completed = true
	observability.LogTraversalComplete(e.logger, res.ProcessedCount, done())
	e.metrics.RecordTraversal(ctx, res.ProcessedCount, time.Duration(done())*time.Millisecond, true)
	return res, nil
}

// suspend freezes the remaining frontier into a continuation token.
func (e *Engine) suspend(ctx context.Context, res *Result, pending []string, depth int, timedOut bool) {
	res.Completed = false
	res.TimedOut = timedOut
	res.ContinuationToken = Encode(Cursor{
		GroupID: pending[0],
		Depth:   depth,
		Pending: pending[1:],
	})
	observability.LogTraversalSuspended(e.logger, res.ProcessedCount, timedOut)
	e.publish(event.New(event.TypeTraversalSuspended, "", event.TraversalSuspension{
		ContinuationToken: res.ContinuationToken,
		Visited:           res.ProcessedCount,
		TimedOut:          timedOut,
	}))
}

// expandBatch lists a batch of sibling groups concurrently. Results are
// returned in batch order regardless of completion order.
func (e *Engine) expandBatch(ctx context.Context, batch []string, depth int, req Request) []expansion {
	outs := make([]expansion, len(batch))
	var wg sync.WaitGroup
	for idx, groupID := range batch {
		wg.Add(1)
		go func(idx int, groupID string) {
			defer wg.Done()
			outs[idx] = e.expandGroup(ctx, groupID, depth, req)
		}(idx, groupID)
	}
	wg.Wait()
	return outs
}

// expandGroup lists one group's requested resources and its child groups.
func (e *Engine) expandGroup(ctx context.Context, groupID string, depth int, req Request) expansion {
	groups, err := e.client.ListChildren(ctx, groupID, nifi.TypeGroup)
	if err != nil {
		return expansion{err: err}
	}

	var objects []nifi.ResourceNode
	if req.Kind == nifi.TypeGroup {
		objects = groups
	} else {
		objects, err = e.client.ListChildren(ctx, groupID, req.Kind)
		if err != nil {
			return expansion{err: err}
		}
	}

	out := expansion{objects: objects}
	if req.MaxDepth <= 0 || depth < req.MaxDepth {
		// Children in API order: resumed traversals must not re-order.
		out.childGroups = make([]string, 0, len(groups))
		for _, g := range groups {
			out.childGroups = append(out.childGroups, g.ID)
		}
	}
	return out
}

func (e *Engine) publish(evt event.Event) {
	if e.bus != nil {
		e.bus.Publish(evt)
	}
}
