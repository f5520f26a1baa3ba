package tool

import (
	"context"
	"fmt"

	"github.com/skiffworks/skiff/workflow"
)

// composioTool wraps a marketplace-resolved invocable behind the
// workflow tool's declared name and schema.
type composioTool struct {
	cfg    *workflow.Tool
	invoke Invocable
}

func newComposioTool(cfg *workflow.Tool, invoke Invocable) *composioTool {
	return &composioTool{cfg: cfg, invoke: invoke}
}

// Name implements Tool.
func (t *composioTool) Name() string { return t.cfg.Name }

// Description implements Tool.
func (t *composioTool) Description() string { return t.cfg.Description }

// Parameters implements Tool.
func (t *composioTool) Parameters() map[string]any { return t.cfg.Parameters }

// Invoke implements Tool.
func (t *composioTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	result, err := t.invoke(ctx, args)
	if err != nil {
		return fmt.Sprintf("Tool execution failed: %v", err), nil
	}
	return result, nil
}
