package tool

import (
	"context"
	"errors"
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend"
	"github.com/randalmurphal/flowmend/pkg/flowmend/cursor"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
	"github.com/randalmurphal/flowmend/pkg/flowmend/traverse"
)

// DefaultBudget is the traversal wall-clock budget when the caller does
// not pass one. Kept under typical tool-call timeouts so the engine
// suspends with a token instead of the transport cutting the call off.
const DefaultBudget = 25 * time.Second

// MutationOutcome is the payload mutation tools return. Mutation
// failures are reported in-band (status, remediation log, error text)
// rather than as transport errors, so the model sees what was attempted.
type MutationOutcome struct {
	flowmend.MutationResult
	Error string `json:"error,omitempty"`
}

// NewEngineSet builds the standard tool set over an engine. Traversal
// continuation tokens are persisted in the cursor store keyed by the
// caller's session, so enumeration resumes transparently on the next
// list_flow call.
func NewEngineSet(engine *flowmend.Engine, cursors cursor.Store) *Set {
	s := NewSet()
	allPhases := []Phase{PhaseReview, PhaseCreation, PhaseModification, PhaseOperation}

	s.Register(Definition{
		Name: "list_flow",
		Description: "List the flow hierarchy breadth-first from a process group. " +
			"Returns partial results when the time budget runs out; call again " +
			"with the same session_id to continue where it stopped.",
		Phases:  allPhases,
		Handler: listFlowHandler(engine, cursors),
	})
	s.Register(Definition{
		Name:        "create_resource",
		Description: "Create a resource inside a process group.",
		Phases:      []Phase{PhaseCreation},
		Handler:     mutateHandler(engine, nifi.OpCreate),
	})
	s.Register(Definition{
		Name: "update_resource",
		Description: "Update a resource. Stale revisions are refreshed and " +
			"retried automatically.",
		Phases:  []Phase{PhaseModification, PhaseOperation},
		Handler: mutateHandler(engine, nifi.OpUpdate),
	})
	s.Register(Definition{
		Name: "delete_resource",
		Description: "Delete a resource. Running state, dependent connections, " +
			"and queued data are cleared automatically; the response lists every " +
			"action that was taken.",
		Phases:  []Phase{PhaseModification},
		Handler: mutateHandler(engine, nifi.OpDelete),
	})
	return s
}

func listFlowHandler(engine *flowmend.Engine, cursors cursor.Store) Handler {
	return func(ctx context.Context, args Args) (any, error) {
		sessionID := args.String("session_id", "default")
		rootID := args.String("root_group_id", "")
		rootKey := rootID
		if rootKey == "" {
			rootKey = "root"
		}

		req := traverse.Request{
			RootGroupID: rootID,
			Kind:        nifi.ResourceType(args.String("kind", string(nifi.TypeProcessor))),
			MaxDepth:    args.Int("max_depth", 0),
			Timeout:     args.Seconds("budget_seconds", DefaultBudget),
		}

		visited := 0
		if cursors != nil {
			if rec, err := cursors.Load(sessionID, rootKey); err == nil {
				req.ContinuationToken = rec.Token
				visited = rec.Visited
			}
		}

		res, err := engine.ListHierarchy(ctx, req)
		if err != nil {
			var invalid *traverse.InvalidTokenError
			if errors.As(err, &invalid) && cursors != nil {
				// Stale cursor: drop it so the next call restarts cleanly.
				cursors.Delete(sessionID, rootKey)
			}
			return nil, err
		}

		if cursors != nil {
			if res.Completed {
				cursors.Delete(sessionID, rootKey)
			} else {
				cursors.Save(cursor.Record{
					SessionID: sessionID,
					RootID:    rootKey,
					Token:     res.ContinuationToken,
					Kind:      string(req.Kind),
					Visited:   visited + res.ProcessedCount,
				})
			}
		}
		return res, nil
	}
}

func mutateHandler(engine *flowmend.Engine, op nifi.Operation) Handler {
	return func(ctx context.Context, args Args) (any, error) {
		resourceType, err := args.RequireString("type")
		if err != nil {
			return nil, err
		}
		req := nifi.MutationRequest{
			Op:            op,
			Type:          nifi.ResourceType(resourceType),
			ParentGroupID: args.String("parent_group_id", ""),
			Revision:      args.Int64("revision", 0),
			Payload:       args.Map("payload"),
		}
		if op != nifi.OpCreate {
			id, err := args.RequireString("id")
			if err != nil {
				return nil, err
			}
			req.ID = id
		}

		res, err := engine.Mutate(ctx, req)
		out := MutationOutcome{MutationResult: res}
		if err != nil {
			out.Error = err.Error()
		}
		return out, nil
	}
}
