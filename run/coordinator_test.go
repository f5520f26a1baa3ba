package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/internal/testutil"
	"github.com/skiffworks/skiff/model"
	"github.com/skiffworks/skiff/store"
	"github.com/skiffworks/skiff/workflow"
)

func singleAgentWorkflow() *workflow.Workflow {
	return testutil.NewWorkflowBuilder().
		Start("A").
		ConversationAgent("A", "Help the user.").
		Build()
}

func chatRequest(wf *workflow.Workflow, msgs ...core.Message) Request {
	return Request{
		ProjectID: "p1",
		Workflow:  wf,
		Reason:    core.ReasonChat,
		Input:     core.TurnInput{Messages: msgs},
	}
}

func TestCoordinator_SimpleTextTurn(t *testing.T) {
	rt := model.NewMockRuntime().ScriptText("Hi there!")
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("hello"))))

	require.Len(t, events, 2)
	msg, ok := events[0].(core.MessageEvent)
	require.True(t, ok)
	assert.Equal(t, "Hi there!", msg.Data.Content)
	assert.Equal(t, "A", msg.Data.AgentName)

	done := testutil.LastDone(t, events)
	require.NotNil(t, done.Turn)
	require.Len(t, done.Turn.Output, 1)
	assert.Equal(t, core.RoleAssistant, done.Turn.Output[0].Role)
	assert.Empty(t, done.Turn.Error)
}

// gatedRuntime holds its stream open after the first delta until the
// test releases it.
type gatedRuntime struct {
	release chan struct{}
}

func (g *gatedRuntime) RunStreamed(ctx context.Context, spec model.AgentSpec, msgs []core.Message) (<-chan model.Event, <-chan error) {
	events := make(chan model.Event)
	errCh := make(chan error, 1)
	go func() {
		defer close(events)
		defer close(errCh)
		events <- model.TextDelta{Text: "first "}
		select {
		case <-g.release:
		case <-ctx.Done():
			return
		}
		events <- model.TextDelta{Text: "second"}
		events <- model.Done{FinishReason: "stop"}
	}()
	return events, errCh
}

func TestCoordinator_TextDeltasEmittedWhileStreaming(t *testing.T) {
	rt := &gatedRuntime{release: make(chan struct{})}
	coord := NewCoordinator(rt)

	out := coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("hello")))

	// The first partial message must arrive while the provider stream is
	// still open; the runtime refuses to finish until released.
	select {
	case ev := <-out:
		msg, ok := ev.(core.MessageEvent)
		require.True(t, ok, "expected a partial message, got %T", ev)
		assert.Equal(t, "first ", msg.Data.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no partial message before stream completion")
	}
	close(rt.release)

	events := testutil.DrainEvents(t, out)
	require.Len(t, events, 2)
	msg, ok := events[0].(core.MessageEvent)
	require.True(t, ok)
	assert.Equal(t, "second", msg.Data.Content)

	done := testutil.LastDone(t, events)
	require.NotNil(t, done.Turn)
	require.Len(t, done.Turn.Output, 1)
	assert.Equal(t, "first second", done.Turn.Output[0].Content)
}

func TestCoordinator_GreetingTurn(t *testing.T) {
	wf := singleAgentWorkflow()
	wf.Prompts = []workflow.Prompt{{Name: "greet", Type: workflow.PromptTypeGreeting, Prompt: "Welcome aboard!"}}

	rt := model.NewMockRuntime()
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf)))

	require.Len(t, events, 2)
	msg := events[0].(core.MessageEvent)
	assert.Equal(t, "Welcome aboard!", msg.Data.Content)
	assert.Empty(t, rt.Calls, "greeting turns never call the runtime")
}

func TestCoordinator_DefaultSystemMessagePrepended(t *testing.T) {
	rt := model.NewMockRuntime().ScriptText("ok")
	coord := NewCoordinator(rt)

	testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("hello"))))

	require.Len(t, rt.Calls, 1)
	first := rt.Calls[0].Messages[0]
	assert.Equal(t, core.RoleSystem, first.Role)
	assert.Contains(t, first.Content, "current date and time")
}

func TestCoordinator_ToolRoundThenAnswer(t *testing.T) {
	wf := singleAgentWorkflow()
	wf.Agents[0].Instructions = "Use [@tool:lookup](#mention) to check inventory."
	wf.Tools = []workflow.Tool{{Name: "lookup", Mock: true, MockInstructions: "42 units in stock"}}

	rt := model.NewMockRuntime().
		Script(
			model.ToolCallDelta{ID: "c1", Index: 0, Name: "lookup", ArgumentsFragment: `{"sk`},
			model.ToolCallDelta{ID: "c1", Index: 0, ArgumentsFragment: `u":"x1"}`},
		).
		ScriptText("There are 42 units in stock.")
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf, core.NewUserMessage("how many?"))))

	// tool-call message, tool-result message, final text, done.
	require.Len(t, events, 4)

	callMsg := events[0].(core.MessageEvent).Data
	require.True(t, callMsg.HasToolCalls())
	assert.Equal(t, "lookup", callMsg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"sku":"x1"}`, callMsg.ToolCalls[0].Function.Arguments)

	resultMsg := events[1].(core.MessageEvent).Data
	assert.Equal(t, core.RoleTool, resultMsg.Role)
	assert.Equal(t, "c1", resultMsg.ToolCallID)
	assert.Equal(t, "42 units in stock", resultMsg.Content)

	finalMsg := events[2].(core.MessageEvent).Data
	assert.Equal(t, "There are 42 units in stock.", finalMsg.Content)

	done := testutil.LastDone(t, events)
	require.Len(t, done.Turn.Output, 3)

	// The feedback round saw the tool result in its conversation.
	require.Len(t, rt.Calls, 2)
	feedback := rt.Calls[1].Messages
	assert.Equal(t, core.RoleTool, feedback[len(feedback)-1].Role)
}

func TestCoordinator_UnknownToolBecomesResultText(t *testing.T) {
	rt := model.NewMockRuntime().
		Script(model.ToolCallDelta{ID: "c1", Index: 0, Name: "ghost", ArgumentsFragment: `{}`}).
		ScriptText("sorry")
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("hi"))))

	resultMsg := events[1].(core.MessageEvent).Data
	assert.Equal(t, core.RoleTool, resultMsg.Role)
	assert.Contains(t, resultMsg.Content, "not available")
	assert.Empty(t, testutil.LastDone(t, events).Turn.Error)
}

func TestCoordinator_HandoffSwitchesAgent(t *testing.T) {
	wf := &workflow.Workflow{
		StartAgentName: "A",
		Agents: []workflow.Agent{
			{Name: "A", Type: workflow.AgentTypeConversation, Instructions: "Escalate to [@agent:B](#mention)."},
			{Name: "B", Type: workflow.AgentTypeConversation, Instructions: "Handle escalations."},
		},
	}

	rt := model.NewMockRuntime().
		Script(model.Handoff{TargetAgent: "B"}).
		ScriptText("B here, how can I help?")
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf, core.NewUserMessage("escalate"))))

	// transfer call message, transfer result message, B's text, done.
	require.Len(t, events, 4)

	transferCall := events[0].(core.MessageEvent).Data
	require.True(t, transferCall.HasToolCalls())
	assert.Equal(t, core.TransferToolName, transferCall.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"assistant":"B"}`, transferCall.ToolCalls[0].Function.Arguments)

	transferResult := events[1].(core.MessageEvent).Data
	assert.Equal(t, core.RoleTool, transferResult.Role)
	assert.Equal(t, transferCall.ToolCalls[0].ID, transferResult.ToolCallID)

	finalMsg := events[2].(core.MessageEvent).Data
	assert.Equal(t, "B", finalMsg.AgentName)

	require.Len(t, rt.Calls, 2)
	assert.Equal(t, "A", rt.Calls[0].Spec.Name)
	assert.Equal(t, "B", rt.Calls[1].Spec.Name)
	assert.Equal(t, []string{"B"}, rt.Calls[0].Spec.HandoffTargets)
}

func TestCoordinator_TransferBudgetLimitsRepeatedHandoffs(t *testing.T) {
	wf := &workflow.Workflow{
		StartAgentName: "A",
		Agents: []workflow.Agent{
			{Name: "A", Type: workflow.AgentTypeConversation, Instructions: "Ping [@agent:B](#mention)."},
			{Name: "B", Type: workflow.AgentTypeConversation, Instructions: "Pong [@agent:A](#mention)."},
		},
	}

	// A->B, B->A, then A->B again which exceeds B's budget of one.
	rt := model.NewMockRuntime().
		Script(model.Handoff{TargetAgent: "B"}).
		Script(model.Handoff{TargetAgent: "A"}).
		Script(model.Handoff{TargetAgent: "B"})
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf, core.NewUserMessage("go"))))

	done := testutil.LastDone(t, events)
	transfers := 0
	for _, m := range done.Turn.Output {
		if m.HasToolCalls() && m.ToolCalls[0].Function.Name == core.TransferToolName {
			transfers++
		}
	}
	assert.Equal(t, 2, transfers, "third handoff exceeds the A->B budget")
	assert.Empty(t, done.Turn.Error)
}

func TestCoordinator_ProviderErrorEmitsErrorThenDone(t *testing.T) {
	rt := model.NewMockRuntime().Script(model.ProviderError{Err: errors.New("model not found")})
	coord := NewCoordinator(rt, func(o *Options) { o.DefaultModel = "gpt-4o-mini" })

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("hi"))))

	require.Len(t, events, 2)
	errEvent, ok := events[0].(core.ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, errEvent.Err, "gpt-4o-mini")

	done := testutil.LastDone(t, events)
	assert.NotEmpty(t, done.Turn.Error)
}

func TestCoordinator_IterationCapTerminates(t *testing.T) {
	rt := model.NewMockRuntime()
	for i := 0; i < 10; i++ {
		rt.Script(model.ToolCallDelta{ID: "c1", Index: 0, Name: "ghost", ArgumentsFragment: `{}`})
	}
	coord := NewCoordinator(rt, func(o *Options) { o.MaxIterations = 3 })

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(singleAgentWorkflow(), core.NewUserMessage("loop"))))

	done := testutil.LastDone(t, events)
	assert.Empty(t, done.Turn.Error, "cap termination is not an error")
	assert.Len(t, rt.Calls, 3)
}

func TestCoordinator_NoStartAgentCompletesEmpty(t *testing.T) {
	wf := &workflow.Workflow{
		Agents: []workflow.Agent{{Name: "A", Disabled: true}},
	}
	rt := model.NewMockRuntime()
	coord := NewCoordinator(rt)

	events := testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf, core.NewUserMessage("hi"))))

	require.Len(t, events, 1)
	done := testutil.LastDone(t, events)
	assert.Empty(t, done.Turn.Output)
	assert.Empty(t, done.Turn.Error)
}

func TestCoordinator_ResumesWithLastAssistantAgent(t *testing.T) {
	wf := &workflow.Workflow{
		StartAgentName: "A",
		Agents: []workflow.Agent{
			{Name: "A", Type: workflow.AgentTypeConversation},
			{Name: "B", Type: workflow.AgentTypeConversation},
		},
	}

	rt := model.NewMockRuntime().ScriptText("continuing")
	coord := NewCoordinator(rt)

	testutil.DrainEvents(t, coord.Run(context.Background(), chatRequest(wf,
		core.NewUserMessage("hi"),
		core.NewAssistantMessage("B", "earlier reply", core.ResponseExternal),
		core.NewUserMessage("go on"),
	)))

	require.Len(t, rt.Calls, 1)
	assert.Equal(t, "B", rt.Calls[0].Spec.Name)
}

func TestCoordinator_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryConversationStore()
	rt := model.NewMockRuntime().ScriptText("hello!")
	coord := NewCoordinator(rt, func(o *Options) { o.Store = s })

	events := testutil.DrainEvents(t, coord.Run(ctx, chatRequest(singleAgentWorkflow(), core.NewUserMessage("hi"))))

	done := testutil.LastDone(t, events)
	require.NotEmpty(t, done.ConversationID)

	conv, err := s.Fetch(ctx, done.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.NotNil(t, conv.Turns[0].UpdatedAt)
}

func TestCoordinator_StoreProjectMismatchFails(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryConversationStore()
	conv, err := s.Create(ctx, "other-project")
	require.NoError(t, err)

	coord := NewCoordinator(model.NewMockRuntime(), func(o *Options) { o.Store = s })

	req := chatRequest(singleAgentWorkflow(), core.NewUserMessage("hi"))
	req.ConversationID = conv.ID
	events := testutil.DrainEvents(t, coord.Run(ctx, req))

	require.Len(t, events, 2)
	_, isErr := events[0].(core.ErrorEvent)
	assert.True(t, isErr)
	testutil.LastDone(t, events)
}
