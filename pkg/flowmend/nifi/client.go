// Package nifi provides the typed client surface for the remote flow API.
//
// Client is the collaborator interface the mutation and traversal engines
// consume; HTTPClient is the concrete implementation over the remote REST
// endpoints. Engines depend only on the interface, so tests substitute
// in-memory fakes.
package nifi

import (
	"context"
	"errors"
	"fmt"
)

// Client wraps the remote flow API's per-resource endpoints.
// Implementations must be safe for concurrent use.
type Client interface {
	// RootGroupID returns the ID of the root process group.
	RootGroupID(ctx context.Context) (string, error)

	// GetResource fetches the current state and revision of a resource.
	GetResource(ctx context.Context, t ResourceType, id string) (ResourceNode, error)

	// MutateResource executes a single mutation. Rejections carrying an HTTP
	// status and error body are returned as *ConflictError.
	MutateResource(ctx context.Context, req MutationRequest) (ResourceNode, error)

	// ListChildren lists the direct children of a group, filtered by kind.
	// Children are returned in the order the remote API reports them.
	ListChildren(ctx context.Context, groupID string, kind ResourceType) ([]ResourceNode, error)

	// StartComponent and StopComponent flip a component's run state.
	// The returned node carries the new revision.
	StartComponent(ctx context.Context, t ResourceType, id string, revision int64) (ResourceNode, error)
	StopComponent(ctx context.Context, t ResourceType, id string, revision int64) (ResourceNode, error)

	// SubmitAsyncJob starts an asynchronous server-side job against a target
	// and returns the job ID.
	SubmitAsyncJob(ctx context.Context, kind JobKind, targetID string) (string, error)

	// PollAsyncJob fetches the current status of an asynchronous job.
	PollAsyncJob(ctx context.Context, kind JobKind, targetID, jobID string) (AsyncJob, error)

	// FetchAsyncJobResult fetches the result payload of a finished job.
	FetchAsyncJobResult(ctx context.Context, kind JobKind, targetID, jobID string) (map[string]any, error)

	// DeleteAsyncJob removes a job server-side, freeing its resources.
	// Required after every submit, regardless of outcome.
	DeleteAsyncJob(ctx context.Context, kind JobKind, targetID, jobID string) error
}

// ConflictError is a structured rejection from the remote API. It preserves
// the raw status and body so classification and callers see the original
// error verbatim.
type ConflictError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote API rejected request: status %d: %s", e.Status, e.Body)
}

// AsConflict unwraps a *ConflictError from err, or returns nil.
func AsConflict(err error) *ConflictError {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	ce := AsConflict(err)
	return ce != nil && ce.Status == 404
}
