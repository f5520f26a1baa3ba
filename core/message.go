package core

// Role identifies the author of a conversation message.
type Role string

// Conversation roles. An assistant message carrying ToolCalls is the
// "assistant with tool calls" variant of the union; a Role of RoleTool
// requires ToolCallID and ToolName to be set.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ResponseType distinguishes assistant output addressed to the end user
// from output produced by internal (task / pipeline) agents.
type ResponseType string

// Response visibility values.
const (
	ResponseExternal ResponseType = "external"
	ResponseInternal ResponseType = "internal"
)

// ToolCallFunction names the function target of a tool call together with
// its serialized JSON argument payload.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one function invocation requested by an assistant message.
// Type is always "function".
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// Message is one unit of conversation history. The Role field tags the
// variant; optional fields belong to specific variants only. Messages are
// created incrementally during a turn and must be treated as immutable
// once appended to a Turn's output.
type Message struct {
	Role         Role         `json:"role"`
	Content      string       `json:"content,omitempty"`
	ToolCalls    []ToolCall   `json:"toolCalls,omitempty"`
	ToolCallID   string       `json:"toolCallId,omitempty"`
	ToolName     string       `json:"toolName,omitempty"`
	AgentName    string       `json:"agentName,omitempty"`
	ResponseType ResponseType `json:"responseType,omitempty"`
}

// NewSystemMessage creates a system-context message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant text message attributed to the
// named agent.
func NewAssistantMessage(agentName, content string, rt ResponseType) Message {
	return Message{
		Role:         RoleAssistant,
		Content:      content,
		AgentName:    agentName,
		ResponseType: rt,
	}
}

// NewToolCallMessage creates the assistant-with-tool-calls variant.
func NewToolCallMessage(agentName string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls, AgentName: agentName}
}

// NewToolResultMessage records the outcome of a previously requested tool
// call, keyed by the provider-assigned call id.
func NewToolResultMessage(toolCallID, toolName, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		ToolName:   toolName,
	}
}

// HasToolCalls reports whether this is the assistant-with-tool-calls
// variant.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// NewFunctionCall builds a ToolCall with a fresh id.
func NewFunctionCall(name, arguments string) ToolCall {
	return ToolCall{
		ID:       NewID(),
		Type:     "function",
		Function: ToolCallFunction{Name: name, Arguments: arguments},
	}
}

// TransferToolName is the reserved tool used to surface agent handoffs on
// the message protocol.
const TransferToolName = "transfer_to_agent"

// NewTransferMessages builds the assistant/tool message pair that records
// a handoff from one agent to another, sharing a single tool call id.
func NewTransferMessages(fromAgent, toAgent string) (Message, Message) {
	call := NewFunctionCall(TransferToolName, `{"assistant":"`+toAgent+`"}`)
	callMsg := NewToolCallMessage(fromAgent, call)
	resultMsg := NewToolResultMessage(call.ID, TransferToolName, call.Function.Arguments)
	return callMsg, resultMsg
}
