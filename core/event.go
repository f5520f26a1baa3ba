package core

import "encoding/json"

// TurnEvent is the externally visible, serializable unit emitted on the
// streaming transport. The concrete variants form a closed set via the
// unexported marker method; Name returns the transport event name used
// for Server-Sent-Event framing.
type TurnEvent interface {
	isTurnEvent()
	Name() string
}

// MessageEvent carries one produced conversation message.
type MessageEvent struct {
	Data Message
}

func (MessageEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (MessageEvent) Name() string { return "message" }

// MarshalJSON implements json.Marshaler.
func (e MessageEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string  `json:"type"`
		Data Message `json:"data"`
	}{Type: "message", Data: e.Data})
}

// ToolCallEvent announces that a tool invocation is about to run.
type ToolCallEvent struct {
	ToolName   string
	ToolCallID string
	Args       json.RawMessage
}

func (ToolCallEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (ToolCallEvent) Name() string { return "tool-call" }

// MarshalJSON implements json.Marshaler.
func (e ToolCallEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string          `json:"type"`
		ToolName   string          `json:"toolName"`
		ToolCallID string          `json:"toolCallId"`
		Args       json.RawMessage `json:"args,omitempty"`
	}{Type: "tool-call", ToolName: e.ToolName, ToolCallID: e.ToolCallID, Args: e.Args})
}

// ToolResultEvent reports the stringified outcome of a tool invocation.
type ToolResultEvent struct {
	ToolName   string
	ToolCallID string
	Result     string
}

func (ToolResultEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (ToolResultEvent) Name() string { return "tool-result" }

// MarshalJSON implements json.Marshaler.
func (e ToolResultEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"type"`
		ToolName   string `json:"toolName"`
		ToolCallID string `json:"toolCallId"`
		Result     string `json:"result"`
	}{Type: "tool-result", ToolName: e.ToolName, ToolCallID: e.ToolCallID, Result: e.Result})
}

// ActionStartEvent signals that the copilot began streaming a structured
// configuration edit identified by {action, configType, name}.
type ActionStartEvent struct {
	Action     string
	ConfigType string
	ConfigName string
}

func (ActionStartEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (ActionStartEvent) Name() string { return "action-start" }

// MarshalJSON implements json.Marshaler.
func (e ActionStartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"type"`
		Action     string `json:"action"`
		ConfigType string `json:"configType"`
		Name       string `json:"name"`
	}{Type: "action-start", Action: e.Action, ConfigType: e.ConfigType, Name: e.ConfigName})
}

// ErrorEvent carries a terminal, user-facing failure. A DoneEvent must
// still follow it so stream consumers never hang.
type ErrorEvent struct {
	Err            string
	IsBillingError bool
}

func (ErrorEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (ErrorEvent) Name() string { return "error" }

// MarshalJSON implements json.Marshaler.
func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type           string `json:"type"`
		Error          string `json:"error"`
		IsBillingError bool   `json:"isBillingError"`
	}{Type: "error", Error: e.Err, IsBillingError: e.IsBillingError})
}

// DoneEvent terminates every stream. ConversationID and Turn are set by
// the chat coordinator; the copilot emits the empty form.
type DoneEvent struct {
	ConversationID string
	Turn           *Turn
}

func (DoneEvent) isTurnEvent() {}

// Name implements TurnEvent.
func (DoneEvent) Name() string { return "done" }

// MarshalJSON implements json.Marshaler.
func (e DoneEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId,omitempty"`
		Turn           *Turn  `json:"turn,omitempty"`
	}{Type: "done", ConversationID: e.ConversationID, Turn: e.Turn})
}
