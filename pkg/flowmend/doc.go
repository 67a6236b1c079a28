// Package flowmend is a client engine for mutating and exploring a remote
// hierarchical flow tree on behalf of callers that cannot retry
// interactively, such as LLM tool layers.
//
// The engine has two halves. Mutate executes a single resource mutation
// and, when the remote API rejects it for a recoverable reason (the target
// is running, still has connections, still has queued data, or the
// supplied revision is stale), remediates the obstacle and retries within
// bounded rounds. Every remediation action is recorded so callers can
// audit exactly what was changed on their behalf.
//
// ListHierarchy enumerates the flow tree breadth-first under a wall-clock
// budget, returning partial results plus a continuation token that resumes
// the traversal exactly where it stopped.
package flowmend
