// Package openai adapts the OpenAI Chat Completions API (streaming +
// function/tool calling) to the model.Runtime boundary. SDK chunk
// shapes are normalized into model.Event values here; handoff targets
// are exposed to the model as a reserved transfer tool whose finalized
// call becomes a model.Handoff event.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/internal/util"
	"github.com/skiffworks/skiff/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name,
// arguments) so transfer calls can be reconstructed when the finish
// reason is emitted. Internal helper (unexported).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI runtime adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Runtime wraps the OpenAI Chat Completions API behind the generic
// model.Runtime interface.
type Runtime struct {
	client *openai.Client
	opts   Options
}

// NewRuntime creates a new OpenAI runtime using the official client.
func NewRuntime(optFns ...func(o *Options)) *Runtime {
	client := openai.NewClient()
	return NewRuntimeFromClient(&client, optFns...)
}

// NewRuntimeFromClient creates a new OpenAI runtime from an existing client.
func NewRuntimeFromClient(client *openai.Client, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runtime{client: client, opts: opts}
}

// RunStreamed implements model.Runtime.
func (r *Runtime) RunStreamed(ctx context.Context, spec model.AgentSpec, msgs []core.Message) (<-chan model.Event, <-chan error) {
	out := make(chan model.Event, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := r.buildParams(spec, buildMessages(spec, msgs))
		r.handleStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// buildMessages converts domain messages into OpenAI chat messages,
// with the agent's instruction text as the leading system message.
func buildMessages(spec model.AgentSpec, msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if spec.Instructions != "" {
		messages = append(messages, openai.SystemMessage(spec.Instructions))
	}

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			if !m.HasToolCalls() {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			if m.Content != "" {
				messages = append(messages, openai.UserMessage(m.Content))
			}
		}
	}
	return messages
}

// buildParams assembles the OpenAI request parameters including tool
// definitions and the reserved transfer tool for handoff targets.
func (r *Runtime) buildParams(
	spec model.AgentSpec,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	modelID := r.opts.Model
	if spec.Model != "" {
		modelID = spec.Model
	}
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               modelID,
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	}

	var tools []openai.ChatCompletionToolParam
	for _, tdef := range spec.Tools {
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  util.EnsureObjectSchema(tdef.Parameters),
			},
		})
	}
	if len(spec.HandoffTargets) > 0 {
		tools = append(tools, transferToolParam(spec.HandoffTargets))
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	return params
}

// transferToolParam builds the reserved tool through which the model
// requests a handoff to one of the allowed target agents.
func transferToolParam(targets []string) openai.ChatCompletionToolParam {
	enum := make([]any, 0, len(targets))
	for _, t := range targets {
		enum = append(enum, t)
	}
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        core.TransferToolName,
			Description: openai.String("Transfer the conversation to another assistant."),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"assistant": map[string]any{
						"type": "string",
						"enum": enum,
					},
				},
				"required": []string{"assistant"},
			},
		},
	}
}

// handleStreaming normalizes streaming chunks into model events.
// Transfer-tool fragments are withheld from the delta stream and
// surfaced as a single Handoff event once the round finishes.
func (r *Runtime) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Event,
	errCh chan<- error,
) {
	stream := r.client.Chat.Completions.NewStreaming(ctx, params)
	agg := map[int64]*aggCall{}

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				out <- model.TextDelta{Text: ch.Delta.Content}
			}
			if ch.Delta.Refusal != "" {
				out <- model.Unknown{Description: fmt.Sprintf("refusal: %s", ch.Delta.Refusal)}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := agg[tc.Index]
				if !ok {
					ac = &aggCall{}
					agg[tc.Index] = ac
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				ac.args += tc.Function.Arguments

				if ac.name == core.TransferToolName {
					continue
				}
				out <- model.ToolCallDelta{
					ID:                tc.ID,
					Index:             tc.Index,
					Name:              tc.Function.Name,
					ArgumentsFragment: tc.Function.Arguments,
				}
			}
			if ch.FinishReason != "" {
				for _, ac := range agg {
					if ac.name != core.TransferToolName {
						continue
					}
					target := gjson.Get(ac.args, "assistant").String()
					if target != "" {
						out <- model.Handoff{TargetAgent: target}
					}
				}
				out <- model.Done{FinishReason: ch.FinishReason}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}
