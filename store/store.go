package store

import (
	"context"
	"errors"
	"time"

	"github.com/skiffworks/skiff/core"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// Conversation is a persisted chat thread: an ordered list of finalized
// turns owned by one project.
type Conversation struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Turns     []core.Turn `json:"turns,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// Project is the owning scope of workflows and conversations.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationStore persists conversations and their turns.
type ConversationStore interface {
	// Fetch returns the conversation with the given id, or ErrNotFound.
	Fetch(ctx context.Context, id string) (*Conversation, error)

	// Create stores a new conversation for the project and returns it.
	Create(ctx context.Context, projectID string) (*Conversation, error)

	// AppendTurn adds a finalized turn to an existing conversation.
	AppendTurn(ctx context.Context, conversationID string, turn *core.Turn) error
}

// ProjectStore persists projects.
type ProjectStore interface {
	// Fetch returns the project with the given id, or ErrNotFound.
	Fetch(ctx context.Context, id string) (*Project, error)

	// Create stores a new project with the given name and returns it.
	Create(ctx context.Context, name string) (*Project, error)
}
