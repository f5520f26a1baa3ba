package core

import "time"

// TurnReason records why a turn was started.
type TurnReason string

// Turn reasons.
const (
	ReasonChat TurnReason = "chat"
	ReasonAPI  TurnReason = "api"
	ReasonJob  TurnReason = "job"
)

// TurnInput is the immutable input of a turn: the conversation messages
// supplied by the caller plus optional per-tool mock responses used during
// workflow testing.
type TurnInput struct {
	Messages  []Message         `json:"messages"`
	MockTools map[string]string `json:"mockTools,omitempty"`
}

// Turn is one request/response cycle of a conversation, including all
// intermediate tool rounds. It is created at turn start, appended to as
// messages are produced and finalized exactly once.
type Turn struct {
	ID             string     `json:"id"`
	Reason         TurnReason `json:"reason"`
	Input          TurnInput  `json:"input"`
	Output         []Message  `json:"output"`
	Error          string     `json:"error,omitempty"`
	IsBillingError bool       `json:"isBillingError,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// NewTurn creates an open turn with a fresh id.
func NewTurn(reason TurnReason, input TurnInput) *Turn {
	return &Turn{
		ID:        NewID(),
		Reason:    reason,
		Input:     input,
		Output:    []Message{},
		CreatedAt: time.Now().UTC(),
	}
}

// Append adds a produced message to the turn output.
func (t *Turn) Append(msg Message) { t.Output = append(t.Output, msg) }

// Finalize marks the turn done, recording the failure if err is non-nil.
func (t *Turn) Finalize(err error, isBillingError bool) {
	now := time.Now().UTC()
	t.UpdatedAt = &now
	if err != nil {
		t.Error = err.Error()
		t.IsBillingError = isBillingError
	}
}
