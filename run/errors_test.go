package run

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ModelNotFound(t *testing.T) {
	c := Classify(errors.New("404 model not found"), "gpt-x", "gpt-4o-mini")
	assert.Equal(t, ErrKindModelNotFound, c.Kind)
	assert.Contains(t, c.UserMessage, "gpt-x")
	assert.Contains(t, c.UserMessage, "gpt-4o-mini")
	assert.False(t, c.IsBillingError)
}

func TestClassify_ModelIdentifierInMessage(t *testing.T) {
	c := Classify(errors.New(`the model "gpt-imaginary" does not exist`), "gpt-imaginary", "")
	assert.Equal(t, ErrKindModelNotFound, c.Kind)
}

func TestClassify_ProviderRequest(t *testing.T) {
	c := Classify(errors.New("400 invalid request: messages must not be empty"), "gpt-4o", "")
	assert.Equal(t, ErrKindProviderRequest, c.Kind)
	assert.Contains(t, c.UserMessage, "rejected the request")
}

func TestClassify_GenericPreservesRawMessage(t *testing.T) {
	c := Classify(errors.New("connection reset by peer"), "gpt-4o", "")
	assert.Equal(t, ErrKindGeneric, c.Kind)
	assert.Contains(t, c.UserMessage, "connection reset by peer")
}

func TestClassify_BillingFlag(t *testing.T) {
	c := Classify(errors.New("you exceeded your current quota"), "", "")
	assert.True(t, c.IsBillingError)
}
