package tool

import (
	"context"

	"github.com/skiffworks/skiff/logging"
	"github.com/skiffworks/skiff/workflow"
)

// BinderOptions configures a Binder.
type BinderOptions struct {
	// Rag resolves data-source searches for agents with a RAG binding.
	Rag RagSearcher

	// Marketplace resolves externally hosted tools by toolkit slug.
	Marketplace Marketplace

	// Logger receives binding diagnostics.
	Logger logging.Logger
}

// Binder assembles the invocable tool set of a single agent from the
// workflow's tool configurations and the agent's instruction mentions.
type Binder struct {
	rag         RagSearcher
	marketplace Marketplace
	logger      logging.Logger
}

// NewBinder creates a new Binder.
func NewBinder(optFns ...func(o *BinderOptions)) *Binder {
	opts := BinderOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Binder{
		rag:         opts.Rag,
		marketplace: opts.Marketplace,
		logger:      opts.Logger,
	}
}

// Bind returns the agent's tool set: one invocable per tool mentioned in
// its instructions, plus the data-source search tool when the agent has
// a RAG binding. Tools whose kind is unsupported are omitted, never an
// error. mockOverrides maps tool names to turn-level mock results that
// take precedence over the workflow configuration.
func (b *Binder) Bind(ctx context.Context, projectID string, wf *workflow.Workflow, agent *workflow.Agent, mockOverrides map[string]string) ([]Tool, error) {
	var tools []Tool
	seen := make(map[string]struct{})

	for _, mention := range workflow.ParseMentions(agent.AssembledInstructions(), wf) {
		if mention.Type != workflow.MentionTool {
			continue
		}
		if mention.Name == RagToolName {
			// Bound below from the agent's RAG configuration.
			continue
		}
		if _, ok := seen[mention.Name]; ok {
			continue
		}
		seen[mention.Name] = struct{}{}

		cfg := wf.ToolByName(mention.Name)
		if cfg == nil {
			continue
		}

		t, err := b.bindOne(ctx, cfg, mockOverrides)
		if err != nil {
			return nil, err
		}
		if t == nil {
			b.logger.Warn("tool.bind.skipped", "tool", cfg.Name, "agent", agent.Name)
			continue
		}
		tools = append(tools, t)
	}

	if len(agent.RagDataSources) > 0 && b.rag != nil {
		tools = append(tools, newRagTool(b.rag, projectID, agent))
	}

	b.logger.Debug("tool.bind.completed", "agent", agent.Name, "tool_count", len(tools))
	return tools, nil
}

// bindOne wraps a single tool configuration into an invocable, choosing
// the strategy by kind. A nil Tool (with nil error) means the kind is
// unsupported and the tool is omitted.
func (b *Binder) bindOne(ctx context.Context, cfg *workflow.Tool, mockOverrides map[string]string) (Tool, error) {
	if override, ok := mockOverrides[cfg.Name]; ok {
		return newMockTool(cfg, override), nil
	}
	if cfg.Mock {
		return newMockTool(cfg, ""), nil
	}
	if cfg.IsComposio {
		if b.marketplace == nil || cfg.ComposioData == nil {
			return nil, nil
		}
		invoke, err := b.marketplace.Resolve(ctx, cfg.ComposioData.Slug)
		if err != nil {
			return nil, err
		}
		if invoke == nil {
			return nil, nil
		}
		return newComposioTool(cfg, invoke), nil
	}
	if cfg.IsWebhook {
		// Reserved extension point.
		return nil, nil
	}
	return nil, nil
}
