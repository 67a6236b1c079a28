package flowmend

import (
	"github.com/randalmurphal/flowmend/pkg/flowmend/config"
	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
)

// FromSettings builds an engine over an HTTP client wired from loaded
// configuration. Explicit options override configured values.
func FromSettings(s config.Settings, opts ...Option) *Engine {
	client := nifi.NewHTTPClient(s.BaseURL,
		nifi.WithCredentials(s.Username, s.Password),
	)
	base := []Option{
		WithMaxRounds(s.MaxRounds),
		WithRevisionRounds(s.RevisionRounds),
		WithStopWait(s.StopWait),
		WithDrainTimeout(s.DrainTimeout),
		WithPollInterval(s.PollInterval),
		WithTraversalConcurrency(s.Concurrency),
	}
	return New(client, append(base, opts...)...)
}
