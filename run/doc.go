// Package run implements the streaming run coordinator for chat turns:
// it compiles the agent graph, drives the language-model runtime
// round by round, reassembles fragmented tool-call arguments, executes
// tools, applies agent handoffs and emits the resulting TurnEvent
// stream. All provider and tool failures are contained here and
// converted to protocol events; nothing propagates past the per-turn
// boundary.
package run
