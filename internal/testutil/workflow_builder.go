package testutil

import (
	"github.com/skiffworks/skiff/workflow"
)

// WorkflowBuilder constructs workflows with fluent chaining for tests.
// Example:
//
//	wf := NewWorkflowBuilder().
//		Start("Hub").
//		ConversationAgent("Hub", "Route to [@agent:Billing](#mention)").
//		ConversationAgent("Billing", "Handle billing.").
//		Build()
type WorkflowBuilder struct {
	wf workflow.Workflow
}

// NewWorkflowBuilder creates an empty builder.
func NewWorkflowBuilder() *WorkflowBuilder { return &WorkflowBuilder{} }

// Start sets the workflow's start agent name (chainable).
func (b *WorkflowBuilder) Start(name string) *WorkflowBuilder {
	b.wf.StartAgentName = name
	return b
}

// Agent appends a fully specified agent (chainable).
func (b *WorkflowBuilder) Agent(a workflow.Agent) *WorkflowBuilder {
	b.wf.Agents = append(b.wf.Agents, a)
	return b
}

// ConversationAgent appends a conversation-typed agent with the given
// instructions (chainable).
func (b *WorkflowBuilder) ConversationAgent(name, instructions string) *WorkflowBuilder {
	return b.Agent(workflow.Agent{
		Name:         name,
		Type:         workflow.AgentTypeConversation,
		Instructions: instructions,
	})
}

// PipelineAgent appends a pipeline-typed step agent (chainable).
func (b *WorkflowBuilder) PipelineAgent(name, instructions string) *WorkflowBuilder {
	return b.Agent(workflow.Agent{
		Name:         name,
		Type:         workflow.AgentTypePipeline,
		Instructions: instructions,
	})
}

// Tool appends a tool definition (chainable).
func (b *WorkflowBuilder) Tool(t workflow.Tool) *WorkflowBuilder {
	b.wf.Tools = append(b.wf.Tools, t)
	return b
}

// MockTool appends a mock tool with optional canned instructions
// (chainable).
func (b *WorkflowBuilder) MockTool(name, mockInstructions string) *WorkflowBuilder {
	return b.Tool(workflow.Tool{Name: name, Mock: true, MockInstructions: mockInstructions})
}

// Prompt appends a prompt definition (chainable).
func (b *WorkflowBuilder) Prompt(name string, pt workflow.PromptType, text string) *WorkflowBuilder {
	b.wf.Prompts = append(b.wf.Prompts, workflow.Prompt{Name: name, Type: pt, Prompt: text})
	return b
}

// Pipeline appends a pipeline over existing agent names (chainable).
func (b *WorkflowBuilder) Pipeline(name string, agents ...string) *WorkflowBuilder {
	b.wf.Pipelines = append(b.wf.Pipelines, workflow.Pipeline{Name: name, Agents: agents})
	return b
}

// Build returns the assembled workflow.
func (b *WorkflowBuilder) Build() *workflow.Workflow {
	wf := b.wf
	return &wf
}
