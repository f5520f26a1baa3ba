package model

import (
	"context"

	"github.com/skiffworks/skiff/core"
)

// Event is a single normalized unit emitted by a provider stream.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type Event interface {
	isEvent()
}

// TextDelta carries a fragment of assistant text.
type TextDelta struct {
	Text string
}

// ToolCallDelta carries a fragment of a streamed tool call. Early
// deltas may lack the provider-assigned ID; Index disambiguates until
// it arrives. ArgumentsFragment is an arbitrary slice of the arguments
// JSON, not necessarily well formed on its own.
type ToolCallDelta struct {
	ID                string
	Index             int64
	Name              string
	ArgumentsFragment string
}

// Handoff signals that the agent requested a transfer of control.
type Handoff struct {
	TargetAgent string
}

// Done terminates the stream for one completion.
type Done struct {
	FinishReason string
}

// ProviderError surfaces an in-band provider failure.
type ProviderError struct {
	Err error
}

// Unknown wraps a chunk shape the adapter does not recognize. Consumers
// must ignore it without aborting.
type Unknown struct {
	Description string
}

func (TextDelta) isEvent()     {}
func (ToolCallDelta) isEvent() {}
func (Handoff) isEvent()       {}
func (Done) isEvent()          {}
func (ProviderError) isEvent() {}
func (Unknown) isEvent()       {}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// AgentSpec is the normalized agent definition a runtime executes:
// instruction text, the exposed tool set and the agents control may be
// handed off to.
type AgentSpec struct {
	Name           string
	Instructions   string
	Model          string
	Tools          []ToolDefinition
	HandoffTargets []string
}

// Runtime drives one streamed completion for an agent over a
// conversation. Events arrive on the first channel in stream order; a
// transport-level failure arrives on the second. Both channels are
// closed when the completion ends.
type Runtime interface {
	RunStreamed(ctx context.Context, spec AgentSpec, msgs []core.Message) (<-chan Event, <-chan error)
}
