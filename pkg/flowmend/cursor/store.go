// Package cursor persists traversal continuation tokens so a paged
// enumeration can resume across processes, not just across calls.
package cursor

import (
	"errors"
	"time"
)

// Record is one saved resume point for a (session, root) pair. A session
// is a caller-chosen identity, typically one conversation or one batch
// job; the root is the group the traversal started from.
type Record struct {
	SessionID string
	RootID    string

	// Token is the opaque continuation token issued by the traversal
	// engine. Stores treat it as a string and never parse it.
	Token string

	// Kind is the resource kind being enumerated, kept so a resumed call
	// can be validated against the original request.
	Kind string

	// Visited counts groups already returned, for progress reporting.
	Visited int

	UpdatedAt time.Time
}

// Store persists traversal cursors. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores a cursor, overwriting any existing record for the same
	// (sessionID, rootID) pair.
	Save(rec Record) error

	// Load retrieves the cursor for a (sessionID, rootID) pair.
	// Returns ErrNotFound if no cursor is stored.
	Load(sessionID, rootID string) (Record, error)

	// List returns all cursors for a session, most recently updated
	// first. Returns an empty slice (not an error) for unknown sessions.
	List(sessionID string) ([]Record, error)

	// Delete removes one cursor. Removing a missing cursor is not an
	// error; completed traversals delete unconditionally.
	Delete(sessionID, rootID string) error

	// DeleteSession removes every cursor for a session.
	DeleteSession(sessionID string) error

	// Close releases any resources.
	Close() error
}

// Sentinel errors for cursor operations.
var (
	// ErrNotFound indicates no cursor is stored for the requested key.
	ErrNotFound = errors.New("cursor not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("cursor store closed")
)
