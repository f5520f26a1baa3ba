package agent

import (
	"context"
	"fmt"

	"github.com/skiffworks/skiff/logging"
	"github.com/skiffworks/skiff/tool"
	"github.com/skiffworks/skiff/workflow"
)

// Graph maps agent names to their compiled nodes.
type Graph map[string]*Node

// Node returns the compiled node with the given name, or nil.
func (g Graph) Node(name string) *Node { return g[name] }

// ToolBinder assembles an agent's invocable tool set. *tool.Binder is
// the production implementation.
type ToolBinder interface {
	Bind(ctx context.Context, projectID string, wf *workflow.Workflow, agent *workflow.Agent, mockOverrides map[string]string) ([]tool.Tool, error)
}

// CompileOptions configures graph compilation.
type CompileOptions struct {
	// MockOverrides maps tool names to turn-level mock results.
	MockOverrides map[string]string

	// Logger receives compilation diagnostics.
	Logger logging.Logger
}

// Compile builds the agent graph for one turn: a Node per non-disabled
// workflow agent, with tools bound through the binder and handoff edges
// resolved from instruction mentions.
//
// The build is two-pass. Pass one creates every node so edges may be
// forward-referenced; pass two resolves mentions into edges. Agent
// mentions targeting pipeline-typed agents are skipped, pipeline
// mentions resolve to the pipeline's first compiled agent, and
// pipeline-typed agents get no mention-derived edges at all. Edge sets
// are de-duplicated preserving parse order.
func Compile(ctx context.Context, projectID string, wf *workflow.Workflow, binder ToolBinder, optFns ...func(o *CompileOptions)) (Graph, error) {
	opts := CompileOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger

	graph := make(Graph, len(wf.Agents))

	// Pass 1: create all nodes.
	for i := range wf.Agents {
		cfg := &wf.Agents[i]
		if cfg.Disabled {
			continue
		}

		tools, err := binder.Bind(ctx, projectID, wf, cfg, opts.MockOverrides)
		if err != nil {
			return nil, fmt.Errorf("bind tools for agent %q: %w", cfg.Name, err)
		}

		graph[cfg.Name] = &Node{
			Name:                   cfg.Name,
			Type:                   cfg.Type,
			Model:                  cfg.Model,
			Instructions:           cfg.AssembledInstructions(),
			Tools:                  tools,
			MaxCallsPerParentAgent: cfg.MaxCallsPerParentAgent,
		}
	}

	// Pass 2: resolve handoff edges from mentions.
	for _, node := range graph {
		if node.Type == workflow.AgentTypePipeline {
			// Pipeline agents advance only through their sequence link.
			continue
		}

		seen := make(map[string]struct{})
		for _, mention := range workflow.ParseMentions(node.Instructions, wf) {
			var target *Node

			switch mention.Type {
			case workflow.MentionAgent:
				candidate := graph[mention.Name]
				if candidate == nil || candidate.Type == workflow.AgentTypePipeline {
					continue
				}
				target = candidate
			case workflow.MentionPipeline:
				p := wf.PipelineByName(mention.Name)
				if p == nil || len(p.Agents) == 0 {
					continue
				}
				first := graph[p.Agents[0]]
				if first == nil {
					continue
				}
				target = first
			default:
				continue
			}

			if _, ok := seen[target.Name]; ok {
				continue
			}
			seen[target.Name] = struct{}{}
			node.Handoffs = append(node.Handoffs, target)
			logger.Debug("agent.compile.edge", "from", node.Name, "to", target.Name)
		}
	}

	// Link each pipeline's compiled agents into their sequence.
	for i := range wf.Pipelines {
		p := &wf.Pipelines[i]
		var prev *Node
		for idx, name := range p.Agents {
			step := graph[name]
			if step == nil {
				continue
			}
			step.PipelineName = p.Name
			step.PipelineIndex = idx
			if prev != nil {
				prev.NextInPipeline = step
			}
			prev = step
		}
	}

	logger.Debug("agent.compile.completed", "project_id", projectID, "node_count", len(graph))
	return graph, nil
}
