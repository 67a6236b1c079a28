package cursor

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory cursor store. Data is lost when the
// process exits; use it for tests and single-shot tools.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Record // sessionID -> rootID -> record
	closed   bool
}

// NewMemoryStore creates a new in-memory cursor store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]Record),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.sessions[rec.SessionID] == nil {
		m.sessions[rec.SessionID] = make(map[string]Record)
	}
	rec.UpdatedAt = time.Now().UTC()
	m.sessions[rec.SessionID][rec.RootID] = rec
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(sessionID, rootID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec, ok := session[rootID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List implements Store.
func (m *MemoryStore) List(sessionID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	recs := make([]Record, 0, len(session))
	for _, rec := range session {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})
	return recs, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(sessionID, rootID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if session, ok := m.sessions[sessionID]; ok {
		delete(session, rootID)
	}
	return nil
}

// DeleteSession implements Store.
func (m *MemoryStore) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.sessions, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	return nil
}

// Len returns the total number of stored cursors. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, session := range m.sessions {
		count += len(session)
	}
	return count
}
