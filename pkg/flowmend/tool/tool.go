// Package tool exposes the engine as a set of named, phase-gated tools
// for an LLM tool layer. Each tool takes loosely-typed arguments (as
// decoded from a model's JSON tool call) and returns a JSON-friendly
// result, with traversal continuation tokens persisted per session so a
// paged enumeration survives across calls and restarts.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/flowmend/pkg/flowmend/registry"
)

// Phase is a coarse capability gate. A session in the review phase can
// read the flow but not change it; later phases unlock mutation tools.
type Phase string

const (
	PhaseReview       Phase = "review"
	PhaseCreation     Phase = "creation"
	PhaseModification Phase = "modification"
	PhaseOperation    Phase = "operation"
)

// Sentinel errors for tool dispatch.
var (
	// ErrUnknownTool indicates the requested tool is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrPhaseDenied indicates the tool exists but is not available in
	// the caller's phase.
	ErrPhaseDenied = errors.New("tool not available in this phase")
)

// Handler executes a tool call.
type Handler func(ctx context.Context, args Args) (any, error)

// Definition describes one tool: its name, a description for the model,
// the phases it is available in, and its handler.
type Definition struct {
	Name        string
	Description string
	Phases      []Phase
	Handler     Handler `json:"-"`
}

// AllowedIn reports whether the tool is available in the given phase.
func (d Definition) AllowedIn(phase Phase) bool {
	for _, p := range d.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// Set is a registry of tool definitions with phase-gated dispatch.
type Set struct {
	reg *registry.Registry[string, Definition]
}

// NewSet creates an empty tool set.
func NewSet() *Set {
	return &Set{reg: registry.New[string, Definition]()}
}

// Register adds or replaces a tool definition.
func (s *Set) Register(def Definition) {
	s.reg.Register(def.Name, def)
}

// Definitions returns the tools available in the given phase, for
// advertising to the model.
func (s *Set) Definitions(phase Phase) []Definition {
	var defs []Definition
	s.reg.Range(func(_ string, def Definition) bool {
		if def.AllowedIn(phase) {
			defs = append(defs, def)
		}
		return true
	})
	return defs
}

// Invoke dispatches one tool call. The caller's phase is checked on every
// call, not just at advertisement time: a model may replay a tool name it
// saw in an earlier phase.
func (s *Set) Invoke(ctx context.Context, phase Phase, name string, args Args) (any, error) {
	def, ok := s.reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if !def.AllowedIn(phase) {
		return nil, fmt.Errorf("%w: %s in phase %s", ErrPhaseDenied, name, phase)
	}
	return def.Handler(ctx, args)
}
