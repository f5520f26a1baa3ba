package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/core"
)

func TestInMemoryConversationStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryConversationStore()

	conv, err := s.Create(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, "p1", conv.ProjectID)

	turn := core.NewTurn(core.ReasonChat, core.TurnInput{
		Messages: []core.Message{core.NewUserMessage("hello")},
	})
	turn.Append(core.NewAssistantMessage("A", "hi", core.ResponseExternal))
	turn.Finalize(nil, false)

	require.NoError(t, s.AppendTurn(ctx, conv.ID, turn))

	got, err := s.Fetch(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, turn.ID, got.Turns[0].ID)
	require.NotNil(t, got.UpdatedAt)
}

func TestInMemoryConversationStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryConversationStore()

	_, err := s.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.AppendTurn(ctx, "missing", &core.Turn{}), ErrNotFound)
}

func TestInMemoryConversationStore_FetchReturnsClone(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryConversationStore()

	conv, err := s.Create(ctx, "p1")
	require.NoError(t, err)

	first, err := s.Fetch(ctx, conv.ID)
	require.NoError(t, err)
	first.ProjectID = "tampered"

	second, err := s.Fetch(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", second.ProjectID)
}

func TestInMemoryProjectStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryProjectStore()

	p, err := s.Create(ctx, "demo")
	require.NoError(t, err)

	got, err := s.Fetch(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)

	_, err = s.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
