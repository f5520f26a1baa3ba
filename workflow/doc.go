// Package workflow holds the persisted-shape description of a multi-agent
// assistant: agents, tools, prompts and pipelines, plus the parser for the
// inline mention syntax used to reference one entity from another entity's
// free-text instructions. A Workflow is immutable input to a turn; it is
// owned by the external persistence layer and never mutated here.
package workflow
