package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/core"
)

// DrainEvents collects every event from a turn stream, failing the test
// if the channel does not close within the timeout.
func DrainEvents(t *testing.T, ch <-chan core.TurnEvent) []core.TurnEvent {
	t.Helper()
	var out []core.TurnEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out draining turn events")
		}
	}
}

// LastDone asserts the stream terminated with a done event and returns
// it.
func LastDone(t *testing.T, events []core.TurnEvent) core.DoneEvent {
	t.Helper()
	require.NotEmpty(t, events)
	done, ok := events[len(events)-1].(core.DoneEvent)
	require.True(t, ok, "stream must terminate with done, got %T", events[len(events)-1])
	return done
}
