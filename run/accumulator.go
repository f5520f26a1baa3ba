package run

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/skiffworks/skiff/core"
	"github.com/skiffworks/skiff/logging"
	"github.com/skiffworks/skiff/model"
)

// pendingCall is the mutable scratch state of one in-flight tool call,
// keyed primarily by provider-assigned id, falling back to the stream
// index while the id is absent on early deltas.
type pendingCall struct {
	id    string
	index int64
	name  string
	args  strings.Builder
}

// Accumulator reassembles complete tool calls from fragmented stream
// deltas. Argument fragments are appended in delivery order per call
// and parsed exactly once at Finalize time; parsing individual
// fragments would be incorrect since any split point is legal.
//
// An Accumulator is built fresh per round and never shared between
// turns.
type Accumulator struct {
	logger  logging.Logger
	order   []*pendingCall
	byID    map[string]*pendingCall
	byIndex map[int64]*pendingCall
}

// AccumulatorOptions configures an Accumulator.
type AccumulatorOptions struct {
	Logger logging.Logger
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator(optFns ...func(o *AccumulatorOptions)) *Accumulator {
	opts := AccumulatorOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Accumulator{
		logger:  opts.Logger,
		byID:    make(map[string]*pendingCall),
		byIndex: make(map[int64]*pendingCall),
	}
}

// Merge folds one stream delta into the pending state. The call is
// looked up by id when the delta carries one, otherwise by index; a
// name arriving on a later delta back-fills an entry created without
// one.
func (a *Accumulator) Merge(d model.ToolCallDelta) {
	call := a.resolve(d)

	if d.ID != "" && call.id == "" {
		call.id = d.ID
		a.byID[d.ID] = call
	}
	if d.Name != "" && call.name == "" {
		call.name = d.Name
	}
	if fragment := normalizeFragment(d.ArgumentsFragment); fragment != "" {
		call.args.WriteString(fragment)
	}
}

func (a *Accumulator) resolve(d model.ToolCallDelta) *pendingCall {
	if d.ID != "" {
		if call, ok := a.byID[d.ID]; ok {
			return call
		}
	}
	if call, ok := a.byIndex[d.Index]; ok {
		// The positional slot serves deltas without an id, and back-fills
		// the id onto an entry created without one. A fresh id arriving
		// at a reused index is a distinct call, not a continuation;
		// providers that never set Index deliver every call at slot zero.
		if d.ID == "" || call.id == "" || call.id == d.ID {
			return call
		}
	}

	call := &pendingCall{id: d.ID, index: d.Index}
	a.order = append(a.order, call)
	a.byIndex[d.Index] = call
	if d.ID != "" {
		a.byID[d.ID] = call
	}
	return call
}

// normalizeFragment unwraps provider shapes that nest the arguments
// fragment inside a complete JSON wrapper. Partial fragments pass
// through untouched.
func normalizeFragment(fragment string) string {
	if fragment == "" {
		return ""
	}
	if gjson.Valid(fragment) {
		if nested := gjson.Get(fragment, "function.arguments"); nested.Exists() && nested.Type == gjson.String {
			return nested.String()
		}
	}
	return fragment
}

// Finalize assembles every pending entry into a complete tool call.
// Entries with an empty or sentinel name are parsing artifacts, not
// calls, and are dropped. Arguments that fail to validate get one
// best-effort brace repair before the call is dropped with a warning;
// a tool is never invoked with garbage arguments.
func (a *Accumulator) Finalize() []core.ToolCall {
	calls := make([]core.ToolCall, 0, len(a.order))

	for _, pc := range a.order {
		if isArtifactName(pc.name) {
			a.logger.Warn("run.accumulator.dropped", "reason", "artifact name", "name", pc.name, "id", pc.id)
			continue
		}

		args := strings.TrimSpace(pc.args.String())
		if args == "" {
			args = "{}"
		}
		if !gjson.Valid(args) {
			args = repairJSON(args)
			if !gjson.Valid(args) {
				a.logger.Warn("run.accumulator.dropped", "reason", "unparseable arguments", "name", pc.name, "id", pc.id)
				continue
			}
		}

		id := pc.id
		if id == "" {
			id = core.NewID()
		}
		calls = append(calls, core.ToolCall{
			ID:   id,
			Type: "function",
			Function: core.ToolCallFunction{
				Name:      pc.name,
				Arguments: args,
			},
		})
	}
	return calls
}

// Len returns the number of pending entries.
func (a *Accumulator) Len() int { return len(a.order) }

// isArtifactName reports whether a finalized name is a stream parsing
// artifact rather than a real tool. Code-fence markers have been
// observed arriving as false tool names.
func isArtifactName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || strings.HasPrefix(trimmed, "```")
}

// repairJSON wraps a fragment that lost its surrounding braces.
func repairJSON(args string) string {
	if !strings.HasPrefix(args, "{") {
		args = "{" + args
	}
	if !strings.HasSuffix(args, "}") {
		args += "}"
	}
	return args
}
