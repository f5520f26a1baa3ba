// Package anthropic adapts the Anthropic Messages API to the
// model.Runtime boundary. The adapter currently takes the non-streaming
// path and replays the completed turn as synthetic events, which keeps
// the consumer contract identical to the streaming adapters.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/tidwall/gjson"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/internal/util"
	"github.com/skiffworks/skiff/model"
)

// Options configures the Anthropic runtime adapter (temperature, model
// id, max tokens, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Runtime wraps the Anthropic Messages API behind the generic
// model.Runtime interface.
type Runtime struct {
	client *anthropic.Client
	opts   Options
}

// NewRuntime creates a new Anthropic runtime using the official client.
func NewRuntime(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Runtime{client: &client, opts: opts}
}

// NewRuntimeFromClient creates a new Anthropic runtime from an existing client.
func NewRuntimeFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
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

		params := anthropic.MessageNewParams{
			Model:       r.modelID(spec),
			Messages:    buildMessages(msgs),
			MaxTokens:   r.opts.MaxTokens,
			Temperature: anthropic.Float(r.opts.Temperature),
		}
		if system := buildSystemBlocks(spec, msgs); len(system) > 0 {
			params.System = system
		}
		if tools := buildTools(spec); len(tools) > 0 {
			params.Tools = tools
		}

		resp, err := r.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					out <- model.TextDelta{Text: textBlock.Text}
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := "{}"
				if toolBlock.Input != nil {
					if encoded, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(encoded)
					}
				}
				if toolBlock.Name == core.TransferToolName {
					if target := gjson.Get(args, "assistant").String(); target != "" {
						out <- model.Handoff{TargetAgent: target}
					}
					continue
				}
				out <- model.ToolCallDelta{
					ID:                toolBlock.ID,
					Name:              toolBlock.Name,
					ArgumentsFragment: args,
				}
			default:
				out <- model.Unknown{Description: fmt.Sprintf("content block type %q", block.Type)}
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}
		out <- model.Done{FinishReason: finishReason}
	}()

	return out, errCh
}

func (r *Runtime) modelID(spec model.AgentSpec) anthropic.Model {
	if spec.Model != "" {
		return anthropic.Model(spec.Model)
	}
	return r.opts.Model
}

// buildMessages converts domain messages to the Anthropic message
// format, embedding tool results as tool_result blocks on the user turn
// that follows the call.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			// Handled separately via the system prompt.
		case core.RoleUser:
			if m.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		case core.RoleAssistant:
			if content := buildAssistantContent(m); len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleTool:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		default:
			if m.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}
	return messages
}

func buildAssistantContent(m core.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	if m.Content != "" {
		content = append(content, anthropic.NewTextBlock(m.Content))
	}
	for _, tc := range m.ToolCalls {
		var input interface{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				input = tc.Function.Arguments
			}
		}
		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
	}
	return content
}

// buildSystemBlocks joins the agent's instruction text with any system
// messages from the conversation.
func buildSystemBlocks(spec model.AgentSpec, msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if spec.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: spec.Instructions})
	}
	for _, m := range msgs {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// buildTools converts the agent's tool definitions, plus the reserved
// transfer tool when handoff targets exist, to the Anthropic format.
func buildTools(spec model.AgentSpec) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam

	for _, tdef := range spec.Tools {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if props := util.Properties(tdef.Parameters); props != nil {
			schema.Properties = props
		}
		schema.Required = util.RequiredStrings(tdef.Parameters["required"])
		tools = append(tools, anthropic.ToolUnionParamOfTool(schema, tdef.Name))
	}

	if len(spec.HandoffTargets) > 0 {
		enum := make([]any, 0, len(spec.HandoffTargets))
		for _, t := range spec.HandoffTargets {
			enum = append(enum, t)
		}
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
			Properties: map[string]any{
				"assistant": map[string]any{
					"type": "string",
					"enum": enum,
				},
			},
			Required: []string{"assistant"},
		}
		tools = append(tools, anthropic.ToolUnionParamOfTool(schema, core.TransferToolName))
	}
	return tools
}
