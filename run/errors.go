package run

import (
	"fmt"
	"strings"
)

// ErrKind is the small taxonomy of provider-level failures. It only
// affects the user-facing message attached to the error TurnEvent;
// classification never changes control flow and no retry is performed
// here.
type ErrKind int

const (
	// ErrKindGeneric is the fall-through for unrecognized failures.
	ErrKindGeneric ErrKind = iota
	// ErrKindModelNotFound means the configured model identifier was
	// rejected by the provider.
	ErrKindModelNotFound
	// ErrKindProviderRequest means the provider rejected the request
	// itself (malformed parameters, bad payload).
	ErrKindProviderRequest
)

// String returns the string representation of the error kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindModelNotFound:
		return "model_not_found"
	case ErrKindProviderRequest:
		return "provider_request"
	default:
		return "generic"
	}
}

// ClassifiedError pairs the kind with the human-readable remediation
// text surfaced to the user, plus whether the failure looks
// billing-related.
type ClassifiedError struct {
	Kind           ErrKind
	UserMessage    string
	IsBillingError bool
}

// Classify maps a caught provider failure onto the taxonomy by string
// pattern matching against its rendered message. modelID is the model
// the failing agent was configured with and defaultModel the suggested
// replacement; unknown patterns fall through to a generic message that
// preserves the raw error text.
func Classify(err error, modelID, defaultModel string) ClassifiedError {
	raw := err.Error()
	lower := strings.ToLower(raw)

	billing := strings.Contains(lower, "billing") || strings.Contains(lower, "quota")

	switch {
	case strings.Contains(lower, "model not found"),
		strings.Contains(lower, "model_not_found"),
		modelID != "" && strings.Contains(lower, strings.ToLower(modelID)):
		msg := fmt.Sprintf("The model %q is not available.", modelID)
		if defaultModel != "" {
			msg = fmt.Sprintf("The model %q is not available. Try the default model %q instead.", modelID, defaultModel)
		}
		return ClassifiedError{Kind: ErrKindModelNotFound, UserMessage: msg, IsBillingError: billing}

	case strings.Contains(lower, "invalid request"),
		strings.Contains(lower, "invalid parameter"),
		strings.Contains(lower, "bad request"):
		return ClassifiedError{
			Kind:           ErrKindProviderRequest,
			UserMessage:    fmt.Sprintf("The model provider rejected the request: %s", raw),
			IsBillingError: billing,
		}

	default:
		return ClassifiedError{
			Kind:           ErrKindGeneric,
			UserMessage:    fmt.Sprintf("Model call failed: %s", raw),
			IsBillingError: billing,
		}
	}
}
