package config

import "time"

// Default values applied when a key is absent from the loaded config.
const (
	DefaultMaxRounds        = 1
	DefaultRevisionRounds   = 3
	DefaultStopWait         = 30 * time.Second
	DefaultDrainTimeout     = 60 * time.Second
	DefaultPollInterval     = time.Second
	DefaultConcurrency      = 5
	DefaultTraversalTimeout = 25 * time.Second
)

// Settings is the fully-resolved engine configuration.
type Settings struct {
	// Remote endpoint and credentials.
	BaseURL  string
	Username string
	Password string

	// Remediation bounds.
	MaxRounds      int
	RevisionRounds int
	StopWait       time.Duration
	DrainTimeout   time.Duration
	PollInterval   time.Duration

	// Traversal tuning.
	Concurrency      int
	TraversalTimeout time.Duration

	// CursorStorePath is the SQLite file for persisted continuation
	// tokens. Empty selects the in-memory store.
	CursorStorePath string
}

// Settings resolves a loaded Config into engine settings, applying
// defaults for missing keys.
func (c Config) Settings() Settings {
	return Settings{
		BaseURL:          c.String("base_url", ""),
		Username:         c.String("username", ""),
		Password:         c.String("password", ""),
		MaxRounds:        c.Int("max_rounds", DefaultMaxRounds),
		RevisionRounds:   c.Int("revision_rounds", DefaultRevisionRounds),
		StopWait:         c.Duration("stop_wait", DefaultStopWait),
		DrainTimeout:     c.Duration("drain_timeout", DefaultDrainTimeout),
		PollInterval:     c.Duration("poll_interval", DefaultPollInterval),
		Concurrency:      c.Int("concurrency", DefaultConcurrency),
		TraversalTimeout: c.Duration("traversal_timeout", DefaultTraversalTimeout),
		CursorStorePath:  c.String("cursor_store_path", ""),
	}
}
