package workflow

import "strings"

// AgentType classifies a workflow agent. Pipeline-typed agents only run as
// pipeline steps and are never direct handoff targets.
type AgentType string

// Agent types.
const (
	AgentTypeConversation AgentType = "conversation"
	AgentTypePostProcess  AgentType = "post_process"
	AgentTypeEscalation   AgentType = "escalation"
	AgentTypePipeline     AgentType = "pipeline"
)

// RagReturnType selects whether RAG search returns whole documents or
// matching chunks.
type RagReturnType string

// RAG return types.
const (
	RagReturnChunks RagReturnType = "chunks"
	RagReturnDocs   RagReturnType = "docs"
)

// Agent is one agent definition inside a workflow. Instructions may embed
// mentions of other agents, tools, pipelines and prompts; handoff edges
// are derived from them at compile time.
type Agent struct {
	Name         string    `json:"name"`
	Type         AgentType `json:"type"`
	Description  string    `json:"description,omitempty"`
	Instructions string    `json:"instructions"`
	Examples     string    `json:"examples,omitempty"`
	Model        string    `json:"model"`
	Disabled     bool      `json:"disabled,omitempty"`

	RagDataSources []string      `json:"ragDataSources,omitempty"`
	RagReturnType  RagReturnType `json:"ragReturnType,omitempty"`
	RagK           int           `json:"ragK,omitempty"`

	// MaxCallsPerParentAgent bounds handoffs along one directed edge
	// within a single turn. Zero means the default of one.
	MaxCallsPerParentAgent int `json:"maxCallsPerParentAgent,omitempty"`
}

// AssembledInstructions returns the prompt text the agent runs with:
// description, instructions and examples joined with blank-line
// separators, skipping empty parts. Mention parsing for handoff edges
// and tool binding both operate on this text, so a reference appearing
// only in the examples counts.
func (a *Agent) AssembledInstructions() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Description, a.Instructions, a.Examples} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ComposioData identifies a marketplace-backed tool.
type ComposioData struct {
	Slug        string `json:"slug"`
	NoAuth      bool   `json:"noAuth,omitempty"`
	ToolkitName string `json:"toolkitName,omitempty"`
	ToolkitSlug string `json:"toolkitSlug,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// Tool is one tool definition inside a workflow. Exactly one of the kind
// flags (Mock, IsComposio, IsWebhook) is expected to be set; RAG tools are
// derived from the owning agent's data-source binding instead.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`

	Mock             bool          `json:"mockTool,omitempty"`
	MockInstructions string        `json:"mockInstructions,omitempty"`
	IsComposio       bool          `json:"isComposio,omitempty"`
	ComposioData     *ComposioData `json:"composioData,omitempty"`
	IsWebhook        bool          `json:"isWebhook,omitempty"`
}

// PromptType classifies a workflow prompt.
type PromptType string

// Prompt types. Base prompts double as variables referenced from agent
// instructions; the greeting prompt seeds an otherwise empty conversation.
const (
	PromptTypeBase     PromptType = "base_prompt"
	PromptTypeGreeting PromptType = "greeting"
)

// Prompt is a named reusable prompt or variable.
type Prompt struct {
	Name   string     `json:"name"`
	Type   PromptType `json:"type"`
	Prompt string     `json:"prompt"`
}

// Pipeline is a fixed, ordered sequence of agents executed one after
// another as a single logical unit. Referenced agent names must exist and
// be non-disabled.
type Pipeline struct {
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
}

// Workflow is the complete declarative description of an assistant.
type Workflow struct {
	Agents         []Agent    `json:"agents"`
	Tools          []Tool     `json:"tools,omitempty"`
	Prompts        []Prompt   `json:"prompts,omitempty"`
	Pipelines      []Pipeline `json:"pipelines,omitempty"`
	StartAgentName string     `json:"startAgentName,omitempty"`
}

// AgentByName returns the named agent, or nil if absent.
func (w *Workflow) AgentByName(name string) *Agent {
	for i := range w.Agents {
		if w.Agents[i].Name == name {
			return &w.Agents[i]
		}
	}
	return nil
}

// ToolByName returns the named tool, or nil if absent.
func (w *Workflow) ToolByName(name string) *Tool {
	for i := range w.Tools {
		if w.Tools[i].Name == name {
			return &w.Tools[i]
		}
	}
	return nil
}

// PromptByName returns the named prompt, or nil if absent.
func (w *Workflow) PromptByName(name string) *Prompt {
	for i := range w.Prompts {
		if w.Prompts[i].Name == name {
			return &w.Prompts[i]
		}
	}
	return nil
}

// PipelineByName returns the named pipeline, or nil if absent.
func (w *Workflow) PipelineByName(name string) *Pipeline {
	for i := range w.Pipelines {
		if w.Pipelines[i].Name == name {
			return &w.Pipelines[i]
		}
	}
	return nil
}

// FirstEnabledAgent returns the first non-disabled agent in declaration
// order, or nil when every agent is disabled.
func (w *Workflow) FirstEnabledAgent() *Agent {
	for i := range w.Agents {
		if !w.Agents[i].Disabled {
			return &w.Agents[i]
		}
	}
	return nil
}

// GreetingPrompt returns the greeting prompt text, or the fallback when no
// greeting prompt is configured.
func (w *Workflow) GreetingPrompt(fallback string) string {
	for i := range w.Prompts {
		if w.Prompts[i].Type == PromptTypeGreeting && w.Prompts[i].Prompt != "" {
			return w.Prompts[i].Prompt
		}
	}
	return fallback
}

// Variables returns the base prompts in declaration order; they act as
// named variables available to agent instructions.
func (w *Workflow) Variables() []Prompt {
	var out []Prompt
	for i := range w.Prompts {
		if w.Prompts[i].Type == PromptTypeBase {
			out = append(out, w.Prompts[i])
		}
	}
	return out
}
