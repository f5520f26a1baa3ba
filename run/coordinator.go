package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skiffworks/skiff/agent"
	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/logging"
	"github.com/skiffworks/skiff/model"
	"github.com/skiffworks/skiff/store"
	"github.com/skiffworks/skiff/tool"
	"github.com/skiffworks/skiff/workflow"
)

const (
	// defaultMaxIterations caps tool-use rounds per turn. Exceeding it
	// terminates the turn with whatever output exists, not an error.
	defaultMaxIterations = 10

	// defaultGreeting is used when the workflow carries no
	// greeting-typed prompt.
	defaultGreeting = "How can I help you today?"
)

// Options configures a Coordinator.
type Options struct {
	// Binder assembles each agent's tool set during graph compilation.
	Binder agent.ToolBinder

	// Store persists the finalized turn. Nil disables persistence.
	Store store.ConversationStore

	// DefaultModel is suggested in model-not-found remediation text.
	DefaultModel string

	// MaxIterations overrides the tool-round cap.
	MaxIterations int

	// Logger receives coordinator diagnostics.
	Logger logging.Logger
}

// Coordinator drives one chat turn to completion: graph compilation,
// round loop, handoffs, tool execution and event emission.
type Coordinator struct {
	runtime       model.Runtime
	binder        agent.ToolBinder
	store         store.ConversationStore
	defaultModel  string
	maxIterations int
	logger        logging.Logger
}

// NewCoordinator creates a chat coordinator on top of a runtime.
func NewCoordinator(runtime model.Runtime, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		MaxIterations: defaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Binder == nil {
		opts.Binder = tool.NewBinder()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	return &Coordinator{
		runtime:       runtime,
		binder:        opts.Binder,
		store:         opts.Store,
		defaultModel:  opts.DefaultModel,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// Request describes one chat turn to run.
type Request struct {
	ProjectID      string
	ConversationID string
	Workflow       *workflow.Workflow
	Reason         core.TurnReason
	Input          core.TurnInput
}

// Run executes one turn and streams TurnEvents. All failures are
// emitted in-band as an error event; the stream always terminates with
// a done event so consumers never hang.
func (c *Coordinator) Run(ctx context.Context, req Request) <-chan core.TurnEvent {
	out := make(chan core.TurnEvent, 32)
	go func() {
		defer close(out)
		c.run(ctx, req, out)
	}()
	return out
}

// emitter serializes event delivery and remembers whether the consumer
// went away so orphaned work stops promptly.
type emitter struct {
	ctx context.Context
	out chan<- core.TurnEvent
}

func (e *emitter) send(ev core.TurnEvent) bool {
	select {
	case <-e.ctx.Done():
		return false
	case e.out <- ev:
		return true
	}
}

func (c *Coordinator) run(ctx context.Context, req Request, out chan<- core.TurnEvent) {
	em := &emitter{ctx: ctx, out: out}
	turn := core.NewTurn(req.Reason, req.Input)
	started := time.Now()

	conversationID, fail := c.resolveConversation(ctx, req)
	if fail != nil {
		turn.Finalize(fail, false)
		em.send(core.ErrorEvent{Err: fail.Error()})
		em.send(core.DoneEvent{ConversationID: conversationID, Turn: turn})
		return
	}
	log := logging.Scope(c.logger, conversationID, turn.ID)

	finish := func(agentName string, rounds int, err error, billing bool) {
		turn.Finalize(err, billing)
		c.persistTurn(ctx, conversationID, turn)
		if err != nil {
			em.send(core.ErrorEvent{Err: err.Error(), IsBillingError: billing})
		}
		em.send(core.DoneEvent{ConversationID: conversationID, Turn: turn})
		logging.LogTurn(log, agentName, rounds, time.Since(started), err)
	}

	graph, err := agent.Compile(ctx, req.ProjectID, req.Workflow, c.binder, func(o *agent.CompileOptions) {
		o.MockOverrides = req.Input.MockTools
		o.Logger = c.logger
	})
	if err != nil {
		finish("", 0, fmt.Errorf("compile agent graph: %w", err), false)
		return
	}

	// A turn without user input is answered with the greeting prompt.
	if !hasUserMessage(req.Input.Messages) {
		greeting := core.NewAssistantMessage(
			startAgentNameOrEmpty(req.Workflow),
			req.Workflow.GreetingPrompt(defaultGreeting),
			core.ResponseExternal,
		)
		turn.Append(greeting)
		em.send(core.MessageEvent{Data: greeting})
		finish(greeting.AgentName, 0, nil, false)
		return
	}

	current := c.resolveStartAgent(req.Workflow, graph, req.Input.Messages)
	if current == nil {
		// Nothing to run; terminate normally with empty output.
		log.Warn("run.turn.no_start_agent")
		finish("", 0, nil, false)
		return
	}

	conversation := ensureSystemMessage(req.Input.Messages)
	transfers := newTransferCounter()

	for round := 0; round < c.maxIterations; round++ {
		outcome, err := c.streamRound(ctx, em, current, conversation)
		if err != nil {
			if errors.Is(err, errConsumerGone) {
				return
			}
			classified := Classify(err, current.Model, c.defaultModel)
			c.logger.Error("run.round.failed", "agent", current.Name, "kind", classified.Kind.String(), "error", err)
			finish(current.Name, round+1, fmt.Errorf("%s", classified.UserMessage), classified.IsBillingError)
			return
		}

		rt := responseTypeFor(current)
		if outcome.text != "" {
			turn.Append(core.NewAssistantMessage(current.Name, outcome.text, rt))
			conversation = append(conversation, core.NewAssistantMessage(current.Name, outcome.text, rt))
		}

		calls := outcome.calls
		if len(calls) > 0 {
			conversation = c.executeTools(ctx, em, current, calls, conversation, turn)
		}

		if outcome.handoff != "" {
			next := c.applyHandoff(em, current, outcome.handoff, transfers, turn, &conversation)
			if next != nil {
				current = next
				continue
			}
		}

		if len(calls) == 0 {
			finish(current.Name, round+1, nil, false)
			return
		}
	}

	// Iteration cap reached; terminate with what we have.
	log.Warn("run.turn.iteration_cap", "agent", current.Name, "cap", c.maxIterations)
	finish(current.Name, c.maxIterations, nil, false)
}

// errConsumerGone marks a round abandoned because the event consumer
// stopped reading; the turn ends without error framing.
var errConsumerGone = errors.New("event consumer gone")

// roundOutcome is everything one STREAMING phase produced.
type roundOutcome struct {
	text    string
	calls   []core.ToolCall
	handoff string
}

// streamRound drives a single provider stream to completion, merging
// tool-call deltas into a fresh accumulator. Text deltas are re-emitted
// immediately as partial assistant messages so consumers can render
// tokens live.
func (c *Coordinator) streamRound(ctx context.Context, em *emitter, current *agent.Node, conversation []core.Message) (*roundOutcome, error) {
	acc := NewAccumulator(func(o *AccumulatorOptions) { o.Logger = c.logger })
	outcome := &roundOutcome{}
	rt := responseTypeFor(current)
	var text strings.Builder

	events, errCh := c.runtime.RunStreamed(ctx, agentSpec(current), conversation)
	for ev := range events {
		switch e := ev.(type) {
		case model.TextDelta:
			text.WriteString(e.Text)
			if !em.send(core.MessageEvent{Data: core.NewAssistantMessage(current.Name, e.Text, rt)}) {
				return nil, errConsumerGone
			}
		case model.ToolCallDelta:
			acc.Merge(e)
		case model.Handoff:
			if outcome.handoff == "" {
				outcome.handoff = e.TargetAgent
			}
		case model.ProviderError:
			return nil, e.Err
		case model.Done:
			// Stream termination marker; channel close follows.
		case model.Unknown:
			c.logger.Debug("run.round.unknown_event", "agent", current.Name, "description", e.Description)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	outcome.text = text.String()
	outcome.calls = acc.Finalize()
	return outcome, nil
}

// executeTools runs TOOLS_PENDING through FEEDBACK for one round: the
// assistant-with-tool-calls message, one invocation per finalized call,
// and the tool-result messages fed back into the conversation.
func (c *Coordinator) executeTools(
	ctx context.Context,
	em *emitter,
	current *agent.Node,
	calls []core.ToolCall,
	conversation []core.Message,
	turn *core.Turn,
) []core.Message {
	callMsg := core.NewToolCallMessage(current.Name, calls...)
	turn.Append(callMsg)
	conversation = append(conversation, callMsg)
	em.send(core.MessageEvent{Data: callMsg})

	for _, call := range calls {
		result := c.invokeTool(ctx, current, call)
		resultMsg := core.NewToolResultMessage(call.ID, call.Function.Name, result)
		turn.Append(resultMsg)
		conversation = append(conversation, resultMsg)
		em.send(core.MessageEvent{Data: resultMsg})
	}
	return conversation
}

// invokeTool dispatches one finalized call against the agent's bound
// tool set. Failures never abort the turn; they become the result text
// so the model can react.
func (c *Coordinator) invokeTool(ctx context.Context, current *agent.Node, call core.ToolCall) string {
	name := call.Function.Name
	var target tool.Tool
	for _, tl := range current.Tools {
		if tl.Name() == name {
			target = tl
			break
		}
	}
	if target == nil {
		c.logger.Warn("run.tool.unknown", "agent", current.Name, "tool", name)
		return fmt.Sprintf("Tool %q is not available.", name)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		c.logger.Warn("run.tool.bad_arguments", "agent", current.Name, "tool", name, "error", err)
		return fmt.Sprintf("Invalid arguments for tool %q.", name)
	}

	started := time.Now()
	result, err := target.Invoke(ctx, args)
	logging.LogToolCall(c.logger, current.Name, name, time.Since(started), err)
	if err != nil {
		return fmt.Sprintf("Tool %q failed: %v", name, err)
	}
	return result
}

// applyHandoff validates a requested transfer against the edge set and
// the per-edge budget, records the transfer message pair and returns
// the next agent (nil when the handoff is refused).
func (c *Coordinator) applyHandoff(
	em *emitter,
	current *agent.Node,
	targetName string,
	transfers *transferCounter,
	turn *core.Turn,
	conversation *[]core.Message,
) *agent.Node {
	target := current.HandoffTo(targetName)
	if target == nil && current.NextInPipeline != nil && current.NextInPipeline.Name == targetName {
		target = current.NextInPipeline
	}
	if target == nil {
		c.logger.Warn("run.handoff.unknown_target", "from", current.Name, "to", targetName)
		return nil
	}
	if !transfers.allow(current.Name, target.Name, target.TransferBudget()) {
		c.logger.Warn("run.handoff.budget_exceeded", "from", current.Name, "to", target.Name, "budget", target.TransferBudget())
		return nil
	}

	callMsg, resultMsg := core.NewTransferMessages(current.Name, target.Name)
	for _, msg := range []core.Message{callMsg, resultMsg} {
		turn.Append(msg)
		*conversation = append(*conversation, msg)
		em.send(core.MessageEvent{Data: msg})
	}
	c.logger.Info("run.handoff.applied", "from", current.Name, "to", target.Name)
	return target
}

// transferCounter tracks handoffs per directed edge within one turn.
type transferCounter struct {
	counts map[string]int
}

func newTransferCounter() *transferCounter {
	return &transferCounter{counts: make(map[string]int)}
}

func (t *transferCounter) allow(from, to string, budget int) bool {
	key := from + "\x00" + to
	if t.counts[key] >= budget {
		return false
	}
	t.counts[key]++
	return true
}

// resolveConversation fetches or creates the persisted conversation and
// validates project ownership. Persistence disabled means no id.
func (c *Coordinator) resolveConversation(ctx context.Context, req Request) (string, error) {
	if c.store == nil {
		return req.ConversationID, nil
	}
	if req.ConversationID == "" {
		conv, err := c.store.Create(ctx, req.ProjectID)
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
		return conv.ID, nil
	}
	conv, err := c.store.Fetch(ctx, req.ConversationID)
	if err != nil {
		return req.ConversationID, fmt.Errorf("fetch conversation %s: %w", req.ConversationID, err)
	}
	if conv.ProjectID != req.ProjectID {
		return conv.ID, fmt.Errorf("conversation %s does not belong to project %s", conv.ID, req.ProjectID)
	}
	return conv.ID, nil
}

func (c *Coordinator) persistTurn(ctx context.Context, conversationID string, turn *core.Turn) {
	if c.store == nil || conversationID == "" {
		return
	}
	if err := c.store.AppendTurn(ctx, conversationID, turn); err != nil {
		c.logger.Error("run.turn.persist_failed", "conversation_id", conversationID, "turn_id", turn.ID, "error", err)
	}
}

// resolveStartAgent resumes with the last assistant's agent when it is
// still compiled, then the configured start agent, then the first
// non-disabled agent in declaration order.
func (c *Coordinator) resolveStartAgent(wf *workflow.Workflow, graph agent.Graph, msgs []core.Message) *agent.Node {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == core.RoleAssistant && m.AgentName != "" {
			if node := graph.Node(m.AgentName); node != nil {
				return node
			}
			break
		}
	}
	if node := graph.Node(wf.StartAgentName); node != nil {
		return node
	}
	if first := wf.FirstEnabledAgent(); first != nil {
		return graph.Node(first.Name)
	}
	return nil
}

// ensureSystemMessage prepends a default system context when the
// conversation lacks a non-empty system message.
func ensureSystemMessage(msgs []core.Message) []core.Message {
	for _, m := range msgs {
		if m.Role == core.RoleSystem && strings.TrimSpace(m.Content) != "" {
			return append([]core.Message(nil), msgs...)
		}
	}
	system := core.NewSystemMessage(fmt.Sprintf(
		"You are a helpful assistant. The current date and time is %s.",
		time.Now().UTC().Format(time.RFC1123),
	))
	out := make([]core.Message, 0, len(msgs)+1)
	out = append(out, system)
	return append(out, msgs...)
}

// agentSpec projects a compiled node onto the runtime boundary.
func agentSpec(node *agent.Node) model.AgentSpec {
	defs := make([]model.ToolDefinition, 0, len(node.Tools))
	for _, tl := range node.Tools {
		defs = append(defs, model.ToolDefinition{
			Name:        tl.Name(),
			Description: tl.Description(),
			Parameters:  tl.Parameters(),
		})
	}
	targets := node.HandoffNames()
	if node.IsPipelineStep() && node.NextInPipeline != nil {
		targets = append(targets, node.NextInPipeline.Name)
	}
	return model.AgentSpec{
		Name:           node.Name,
		Instructions:   node.Instructions,
		Model:          node.Model,
		Tools:          defs,
		HandoffTargets: targets,
	}
}

func responseTypeFor(node *agent.Node) core.ResponseType {
	if node.Type == workflow.AgentTypeConversation {
		return core.ResponseExternal
	}
	return core.ResponseInternal
}

func hasUserMessage(msgs []core.Message) bool {
	for _, m := range msgs {
		if m.Role == core.RoleUser {
			return true
		}
	}
	return false
}

func startAgentNameOrEmpty(wf *workflow.Workflow) string {
	if wf.StartAgentName != "" {
		return wf.StartAgentName
	}
	if first := wf.FirstEnabledAgent(); first != nil {
		return first.Name
	}
	return ""
}
