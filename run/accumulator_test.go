package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/model"
)

func TestAccumulator_ReassemblesSplitArguments(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "search", ArgumentsFragment: `{"q`})
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, ArgumentsFragment: `uery":"x"}`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "search", calls[0].Function.Name)
	assert.JSONEq(t, `{"query":"x"}`, calls[0].Function.Arguments)
}

func TestAccumulator_AnySplitPointMatchesSingleFragment(t *testing.T) {
	const full = `{"query":"weather in berlin","limit":3}`

	single := NewAccumulator()
	single.Merge(model.ToolCallDelta{ID: "c1", Name: "search", ArgumentsFragment: full})
	want := single.Finalize()[0].Function.Arguments

	for split := 1; split < len(full); split++ {
		acc := NewAccumulator()
		acc.Merge(model.ToolCallDelta{ID: "c1", Name: "search", ArgumentsFragment: full[:split]})
		acc.Merge(model.ToolCallDelta{ID: "c1", ArgumentsFragment: full[split:]})
		calls := acc.Finalize()
		require.Len(t, calls, 1, "split at %d", split)
		assert.Equal(t, want, calls[0].Function.Arguments, "split at %d", split)
	}
}

func TestAccumulator_IndexFallbackThenIDBackfill(t *testing.T) {
	acc := NewAccumulator()
	// Early delta without id, keyed by index only.
	acc.Merge(model.ToolCallDelta{Index: 0, ArgumentsFragment: `{"a"`})
	// Later delta carries both id and name for the same slot.
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "lookup", ArgumentsFragment: `:1}`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "lookup", calls[0].Function.Name)
	assert.JSONEq(t, `{"a":1}`, calls[0].Function.Arguments)
}

func TestAccumulator_InterleavedCalls(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "first", ArgumentsFragment: `{"a":`})
	acc.Merge(model.ToolCallDelta{ID: "c2", Index: 1, Name: "second", ArgumentsFragment: `{"b":`})
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, ArgumentsFragment: `1}`})
	acc.Merge(model.ToolCallDelta{ID: "c2", Index: 1, ArgumentsFragment: `2}`})

	calls := acc.Finalize()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Function.Name)
	assert.JSONEq(t, `{"a":1}`, calls[0].Function.Arguments)
	assert.Equal(t, "second", calls[1].Function.Name)
	assert.JSONEq(t, `{"b":2}`, calls[1].Function.Arguments)
}

func TestAccumulator_DistinctIDsAtSameIndexStayDistinct(t *testing.T) {
	// Providers that deliver complete calls without positional indexes
	// put every call at slot zero; a new id there must open a new entry
	// instead of concatenating onto the previous call.
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "a1", Index: 0, Name: "first", ArgumentsFragment: `{"a":1}`})
	acc.Merge(model.ToolCallDelta{ID: "a2", Index: 0, Name: "second", ArgumentsFragment: `{"b":2}`})

	calls := acc.Finalize()
	require.Len(t, calls, 2)
	assert.Equal(t, "a1", calls[0].ID)
	assert.Equal(t, "first", calls[0].Function.Name)
	assert.JSONEq(t, `{"a":1}`, calls[0].Function.Arguments)
	assert.Equal(t, "a2", calls[1].ID)
	assert.Equal(t, "second", calls[1].Function.Name)
	assert.JSONEq(t, `{"b":2}`, calls[1].Function.Arguments)

	// Id-less continuations at the shared slot belong to the newest call.
	acc = NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "a1", Name: "first", ArgumentsFragment: `{"a":1}`})
	acc.Merge(model.ToolCallDelta{ID: "a2", Name: "second", ArgumentsFragment: `{"b":`})
	acc.Merge(model.ToolCallDelta{ArgumentsFragment: `2}`})

	calls = acc.Finalize()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"b":2}`, calls[1].Function.Arguments)
}

func TestAccumulator_DropsArtifactNames(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "```", ArgumentsFragment: `{"x":1}`})
	acc.Merge(model.ToolCallDelta{ID: "c2", Index: 1, ArgumentsFragment: `{"y":2}`})
	acc.Merge(model.ToolCallDelta{ID: "c3", Index: 2, Name: "real", ArgumentsFragment: `{"z":3}`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "real", calls[0].Function.Name)
}

func TestAccumulator_RepairsMissingBraces(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "lookup", ArgumentsFragment: `"a":1`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"a":1}`, calls[0].Function.Arguments)
}

func TestAccumulator_DropsUnrepairableArguments(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "lookup", ArgumentsFragment: `{"a": <<<`})

	assert.Empty(t, acc.Finalize())
}

func TestAccumulator_EmptyArgumentsBecomeEmptyObject(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "ping"})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "{}", calls[0].Function.Arguments)
}

func TestAccumulator_UnwrapsNestedFunctionArguments(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{ID: "c1", Index: 0, Name: "lookup",
		ArgumentsFragment: `{"function":{"arguments":"{\"a\":1}"}}`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"a":1}`, calls[0].Function.Arguments)
}

func TestAccumulator_MissingIDGetsGenerated(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(model.ToolCallDelta{Index: 0, Name: "lookup", ArgumentsFragment: `{}`})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
}
