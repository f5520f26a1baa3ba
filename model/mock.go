package model

import (
	"context"
	"fmt"

	"github.com/skiffworks/skiff/core"
)

// MockRuntime is a scripted in-memory Runtime for tests and examples.
// Each RunStreamed call replays the next scripted event sequence; when
// the scripts are exhausted it falls back to a single canned text
// response.
type MockRuntime struct {
	scripts [][]Event

	// Calls records the spec and messages of every RunStreamed call.
	Calls []MockCall
}

// MockCall captures one RunStreamed invocation.
type MockCall struct {
	Spec     AgentSpec
	Messages []core.Message
}

// NewMockRuntime constructs an empty MockRuntime.
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{}
}

// Script appends one completion's worth of events. A terminating Done
// is added when the script does not end with one.
func (m *MockRuntime) Script(events ...Event) *MockRuntime {
	if len(events) == 0 || !endsStream(events[len(events)-1]) {
		events = append(events, Done{FinishReason: "stop"})
	}
	m.scripts = append(m.scripts, events)
	return m
}

// ScriptText is shorthand for a single text completion.
func (m *MockRuntime) ScriptText(text string) *MockRuntime {
	return m.Script(TextDelta{Text: text})
}

func endsStream(e Event) bool {
	switch e.(type) {
	case Done, ProviderError:
		return true
	default:
		return false
	}
}

// RunStreamed implements Runtime.
func (m *MockRuntime) RunStreamed(ctx context.Context, spec AgentSpec, msgs []core.Message) (<-chan Event, <-chan error) {
	m.Calls = append(m.Calls, MockCall{Spec: spec, Messages: msgs})

	var events []Event
	if len(m.scripts) > 0 {
		events = m.scripts[0]
		m.scripts = m.scripts[1:]
	} else {
		events = []Event{
			TextDelta{Text: fmt.Sprintf("Mock response from %s", spec.Name)},
			Done{FinishReason: "stop"},
		}
	}

	out := make(chan Event, len(events))
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, e := range events {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- e:
			}
		}
	}()
	return out, errCh
}
