package nifi

import "time"

// ResourceType identifies the kind of node in the flow tree.
type ResourceType string

const (
	TypeGroup      ResourceType = "process-group"
	TypeProcessor  ResourceType = "processor"
	TypeConnection ResourceType = "connection"
	TypePort       ResourceType = "port"
)

// ResourceState is the scheduling state a component reports.
type ResourceState string

const (
	StateRunning  ResourceState = "RUNNING"
	StateStopped  ResourceState = "STOPPED"
	StateDisabled ResourceState = "DISABLED"
	StateInvalid  ResourceState = "INVALID"
)

// ResourceNode is a transient read copy of a node in the remote flow tree.
// The remote system owns the node; Revision is the optimistic-concurrency
// token every mutation must carry.
type ResourceNode struct {
	ID               string         `json:"id"`
	Type             ResourceType   `json:"type"`
	Name             string         `json:"name,omitempty"`
	State            ResourceState  `json:"state,omitempty"`
	ValidationStatus string         `json:"validationStatus,omitempty"`
	Revision         int64          `json:"revision"`
	ParentGroupID    string         `json:"parentGroupId,omitempty"`

	// SourceID and DestinationID are set for connections only.
	SourceID      string `json:"sourceId,omitempty"`
	DestinationID string `json:"destinationId,omitempty"`

	// QueuedCount is set for connections only: flowfiles currently queued.
	QueuedCount int64 `json:"queuedCount,omitempty"`

	// Payload carries the component's type-specific configuration opaquely.
	// The engine never interprets it beyond passing it through.
	Payload map[string]any `json:"payload,omitempty"`
}

// Operation is a mutation verb against a single resource.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// MutationRequest describes one mutation against one resource.
// Revision must be the most recently observed revision of the target;
// stale revisions are rejected by the remote API.
type MutationRequest struct {
	Op            Operation      `json:"op"`
	Type          ResourceType   `json:"type"`
	ID            string         `json:"id,omitempty"`
	ParentGroupID string         `json:"parentGroupId,omitempty"`
	Revision      int64          `json:"revision"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// JobKind identifies the remote API's asynchronous job families.
type JobKind string

const (
	JobQueueDrain JobKind = "queue-drain"
	JobListing    JobKind = "listing"
	JobProvenance JobKind = "provenance"
)

// JobStatus is the lifecycle state of an asynchronous job.
type JobStatus string

const (
	JobPending  JobStatus = "PENDING"
	JobRunning  JobStatus = "RUNNING"
	JobFinished JobStatus = "FINISHED"
	JobFailed   JobStatus = "FAILED"
)

// AsyncJob is a snapshot of a server-side asynchronous job. Jobs must be
// explicitly deleted after use so the server can free resources.
type AsyncJob struct {
	ID            string         `json:"id"`
	Kind          JobKind        `json:"kind"`
	Status        JobStatus      `json:"status"`
	FailureReason string         `json:"failureReason,omitempty"`
	Result        map[string]any `json:"result,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}
