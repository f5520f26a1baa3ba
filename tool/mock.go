package tool

import (
	"context"

	"github.com/skiffworks/skiff/workflow"
)

// defaultMockResult is returned when a mock tool has no configured
// instructions.
const defaultMockResult = "Mock tool executed."

// mockTool always returns its configured mock-instruction text, ignoring
// arguments. Turn-level overrides take precedence over the workflow
// configuration so a single test turn can redefine a tool's response.
type mockTool struct {
	name        string
	description string
	parameters  map[string]any
	result      string
}

func newMockTool(cfg *workflow.Tool, override string) *mockTool {
	result := cfg.MockInstructions
	if override != "" {
		result = override
	}
	if result == "" {
		result = defaultMockResult
	}
	return &mockTool{
		name:        cfg.Name,
		description: cfg.Description,
		parameters:  cfg.Parameters,
		result:      result,
	}
}

// Name implements Tool.
func (t *mockTool) Name() string { return t.name }

// Description implements Tool.
func (t *mockTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *mockTool) Parameters() map[string]any { return t.parameters }

// Invoke implements Tool.
func (t *mockTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return t.result, nil
}
