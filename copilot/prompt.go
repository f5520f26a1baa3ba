package copilot

import (
	"encoding/json"
	"fmt"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/workflow"
)

// ContextType identifies what the user is editing while chatting with
// the copilot.
type ContextType string

// Context types.
const (
	ContextAgent  ContextType = "agent"
	ContextTool   ContextType = "tool"
	ContextPrompt ContextType = "prompt"
	ContextChat   ContextType = "chat"
)

// Context carries the editing focus folded into the prompt. Messages is
// only set for the chat variant, holding the test conversation the user
// gave feedback on.
type Context struct {
	Type     ContextType    `json:"type"`
	Name     string         `json:"name,omitempty"`
	Messages []core.Message `json:"messages,omitempty"`
}

// DataSource is the simplified data-source descriptor shown to the
// copilot.
type DataSource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// workflowPrompt renders the current workflow configuration as a fenced
// JSON block.
func workflowPrompt(wf *workflow.Workflow) string {
	encoded, err := json.Marshal(wf)
	if err != nil {
		encoded = []byte("{}")
	}
	return fmt.Sprintf("Context:\n\nThe current workflow config is:\n```json\n%s\n```\n", encoded)
}

// contextPrompt renders the editing-focus note, one variant per context
// type.
func contextPrompt(ctx *Context) string {
	if ctx == nil {
		return ""
	}
	switch ctx.Type {
	case ContextAgent:
		return fmt.Sprintf("**NOTE**:\nThe user is currently working on the following agent:\n%s", ctx.Name)
	case ContextTool:
		return fmt.Sprintf("**NOTE**:\nThe user is currently working on the following tool:\n%s", ctx.Name)
	case ContextPrompt:
		return fmt.Sprintf("**NOTE**:The user is currently working on the following prompt:\n%s", ctx.Name)
	case ContextChat:
		encoded, err := json.Marshal(ctx.Messages)
		if err != nil {
			encoded = []byte("[]")
		}
		return fmt.Sprintf("**NOTE**: The user has just tested the following chat using the workflow above and has provided feedback / question below this json dump:\n```json\n%s\n```\n", encoded)
	default:
		return ""
	}
}

// dataSourcesPrompt renders the available data sources, empty when none
// exist.
func dataSourcesPrompt(sources []DataSource) string {
	if len(sources) == 0 {
		return ""
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		encoded = []byte("[]")
	}
	return fmt.Sprintf("**NOTE**:\nThe following data sources are available:\n```json\n%s\n```\n", encoded)
}

// foldIntoLastUserMessage rewrites the final user message so the model
// sees the workflow, the editing context and the data sources alongside
// the user's words. Non-user tails are left untouched.
func foldIntoLastUserMessage(msgs []core.Message, wf *workflow.Workflow, ctx *Context, sources []DataSource) []core.Message {
	if len(msgs) == 0 {
		return msgs
	}
	out := append([]core.Message(nil), msgs...)
	last := &out[len(out)-1]
	if last.Role != core.RoleUser {
		return out
	}

	quoted, err := json.Marshal(last.Content)
	if err != nil {
		quoted = []byte(`""`)
	}
	last.Content = fmt.Sprintf("%s\n\n%s\n\n%s\n\nUser: %s",
		workflowPrompt(wf), contextPrompt(ctx), dataSourcesPrompt(sources), quoted)
	return out
}
