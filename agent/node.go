package agent

import (
	"github.com/skiffworks/skiff/tool"
	"github.com/skiffworks/skiff/workflow"
)

// Node is a compiled, runtime-owned agent. It carries the assembled
// instruction text, the bound tool set and the resolved handoff edges.
// Nodes are built once per turn and never persisted.
type Node struct {
	// Name is the agent's unique name within the workflow.
	Name string

	// Type mirrors the workflow agent's type.
	Type workflow.AgentType

	// Model is the model identifier the agent runs on.
	Model string

	// Instructions is the assembled instruction text (description,
	// instructions and examples separated by blank lines).
	Instructions string

	// Tools is the agent's bound tool set.
	Tools []tool.Tool

	// Handoffs are the directed edges to agents this node may transfer
	// control to. Never contains a pipeline-typed node.
	Handoffs []*Node

	// MaxCallsPerParentAgent caps how many times one parent may hand
	// off to this node within a single turn. Zero means the default
	// of one.
	MaxCallsPerParentAgent int

	// PipelineName and PipelineIndex are set for agents that are a
	// step of a pipeline. NextInPipeline points at the following step,
	// nil for the last one. Pipeline agents advance only through this
	// link, never through mention-derived handoffs.
	PipelineName   string
	PipelineIndex  int
	NextInPipeline *Node
}

// IsPipelineStep reports whether the node belongs to a pipeline
// sequence.
func (n *Node) IsPipelineStep() bool { return n.PipelineName != "" }

// TransferBudget returns the effective per-parent handoff cap.
func (n *Node) TransferBudget() int {
	if n.MaxCallsPerParentAgent <= 0 {
		return 1
	}
	return n.MaxCallsPerParentAgent
}

// HandoffTo returns the handoff target with the given name, or nil.
func (n *Node) HandoffTo(name string) *Node {
	for _, h := range n.Handoffs {
		if h.Name == name {
			return h
		}
	}
	return nil
}

// HandoffNames returns the names of all handoff targets in edge order.
func (n *Node) HandoffNames() []string {
	names := make([]string, 0, len(n.Handoffs))
	for _, h := range n.Handoffs {
		names = append(names, h.Name)
	}
	return names
}
