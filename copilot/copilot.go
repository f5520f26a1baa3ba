package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/logging"
	"github.com/skiffworks/skiff/model"
	"github.com/skiffworks/skiff/run"
	"github.com/skiffworks/skiff/tool"
	"github.com/skiffworks/skiff/workflow"
)

// defaultMaxIterations caps the copilot's tool-use rounds.
const defaultMaxIterations = 10

const defaultResponse = "Sorry, I could not generate a response. Please try again."

// systemPrompt frames the configuration-editing agent. Concrete edits
// are streamed as fenced copilot_change blocks whose metadata header
// names the action, the configuration type and the target.
const systemPrompt = `You are a copilot that helps users build and edit multi-agent workflows.
You can create and modify agents, tools, prompts and pipelines.

When you propose a concrete configuration change, emit it as a fenced code block:

` + "```" + `copilot_change
// action: <create_new|edit>
// config_type: <agent|tool|prompt|pipeline>
// name: <name of the configuration>
{ ...the full JSON configuration... }
` + "```" + `

Use the search_relevant_tools tool before suggesting mock tools. Ask the
user for clarification when their request is ambiguous.`

// Options configures a copilot Coordinator.
type Options struct {
	// Marketplace backs the search_relevant_tools tool. Nil keeps the
	// tool available but always empty-handed.
	Marketplace tool.Marketplace

	// Model overrides the runtime's default model.
	Model string

	// MaxIterations overrides the round cap.
	MaxIterations int

	// Logger receives copilot diagnostics.
	Logger logging.Logger
}

// Coordinator drives the copilot agent through up to MaxIterations
// rounds of streaming and tool execution.
type Coordinator struct {
	runtime       model.Runtime
	search        tool.Tool
	modelID       string
	maxIterations int
	logger        logging.Logger
}

// New creates a copilot coordinator on top of a runtime.
func New(runtime model.Runtime, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		MaxIterations: defaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	return &Coordinator{
		runtime:       runtime,
		search:        newSearchTool(opts.Marketplace),
		modelID:       opts.Model,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// Request describes one copilot turn.
type Request struct {
	ProjectID   string
	Workflow    *workflow.Workflow
	Messages    []core.Message
	Context     *Context
	DataSources []DataSource
}

// Run executes one copilot turn and streams TurnEvents: message events
// for text chunks, tool-call/tool-result events for every search
// round, action-start events for detected configuration edits, then a
// terminating done. Failures surface as an error event before done.
func (c *Coordinator) Run(ctx context.Context, req Request) <-chan core.TurnEvent {
	out := make(chan core.TurnEvent, 32)
	go func() {
		defer close(out)
		c.run(ctx, req, out)
	}()
	return out
}

func (c *Coordinator) run(ctx context.Context, req Request, out chan<- core.TurnEvent) {
	send := func(ev core.TurnEvent) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- ev:
			return true
		}
	}

	started := time.Now()
	conversation := foldIntoLastUserMessage(req.Messages, req.Workflow, req.Context, req.DataSources)
	tracker := newActionTracker()
	spec := c.agentSpec()

	totalText := 0
	rounds := 0

	for ; rounds < c.maxIterations; rounds++ {
		var roundText strings.Builder
		acc := run.NewAccumulator(func(o *run.AccumulatorOptions) { o.Logger = c.logger })

		events, errCh := c.runtime.RunStreamed(ctx, spec, conversation)
		for ev := range events {
			switch e := ev.(type) {
			case model.TextDelta:
				roundText.WriteString(e.Text)
				totalText += len(e.Text)
				if !send(core.MessageEvent{Data: core.NewAssistantMessage(spec.Name, e.Text, core.ResponseExternal)}) {
					return
				}
				for _, action := range tracker.scan(roundText.String()) {
					if !send(action) {
						return
					}
				}
			case model.ToolCallDelta:
				acc.Merge(e)
			case model.ProviderError:
				c.fail(send, e.Err)
				return
			case model.Done:
			case model.Handoff:
				// The copilot is a single agent; a handoff request is a
				// provider anomaly.
				c.logger.Warn("copilot.round.unexpected_handoff", "target", e.TargetAgent)
			case model.Unknown:
				c.logger.Debug("copilot.round.unknown_event", "description", e.Description)
			}
		}
		if err := <-errCh; err != nil {
			c.fail(send, err)
			return
		}

		text := roundText.String()
		if text != "" {
			conversation = append(conversation, core.NewAssistantMessage(spec.Name, text, core.ResponseExternal))
		}

		calls := acc.Finalize()
		if len(calls) == 0 {
			break
		}

		conversation = append(conversation, core.NewToolCallMessage(spec.Name, calls...))
		for _, call := range calls {
			if !send(core.ToolCallEvent{
				ToolName:   call.Function.Name,
				ToolCallID: call.ID,
				Args:       json.RawMessage(call.Function.Arguments),
			}) {
				return
			}
			result := c.invoke(ctx, call)
			if !send(core.ToolResultEvent{
				ToolName:   call.Function.Name,
				ToolCallID: call.ID,
				Result:     result,
			}) {
				return
			}
			conversation = append(conversation, core.NewToolResultMessage(call.ID, call.Function.Name, result))
		}

		// An unanswered clarification request means the model is waiting
		// on the user; looping would only repeat the question.
		if endsWithOpenQuestion(text) && !containsChangeBlock(text) {
			c.logger.Debug("copilot.round.waiting_on_user")
			rounds++
			break
		}
	}

	if totalText == 0 {
		send(core.MessageEvent{Data: core.NewAssistantMessage(spec.Name, defaultResponse, core.ResponseExternal)})
	}
	send(core.DoneEvent{})
	logging.LogTurn(c.logger, spec.Name, rounds, time.Since(started), nil)
}

func (c *Coordinator) fail(send func(core.TurnEvent) bool, err error) {
	classified := run.Classify(err, c.modelID, "")
	c.logger.Error("copilot.turn.failed", "kind", classified.Kind.String(), "error", err)
	send(core.ErrorEvent{Err: classified.UserMessage, IsBillingError: classified.IsBillingError})
	send(core.DoneEvent{})
}

func (c *Coordinator) invoke(ctx context.Context, call core.ToolCall) string {
	if call.Function.Name != c.search.Name() {
		c.logger.Warn("copilot.tool.unknown", "tool", call.Function.Name)
		return fmt.Sprintf("Tool %q is not available.", call.Function.Name)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("Invalid arguments for tool %q.", call.Function.Name)
	}
	started := time.Now()
	result, err := c.search.Invoke(ctx, args)
	logging.LogToolCall(c.logger, "copilot", call.Function.Name, time.Since(started), err)
	if err != nil {
		return fmt.Sprintf("Tool %q failed: %v", call.Function.Name, err)
	}
	return result
}

func (c *Coordinator) agentSpec() model.AgentSpec {
	return model.AgentSpec{
		Name:         "copilot",
		Instructions: systemPrompt,
		Model:        c.modelID,
		Tools: []model.ToolDefinition{{
			Name:        c.search.Name(),
			Description: c.search.Description(),
			Parameters:  c.search.Parameters(),
		}},
	}
}
