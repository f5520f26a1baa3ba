// Package tool implements the tool invocation layer: it wraps each workflow
// tool (mock, RAG search, marketplace, webhook) as a uniformly invocable
// capability and assembles per-agent tool sets. Business-level failures are
// returned as human-readable result strings rather than errors so the run
// coordinator can feed them back to the model instead of aborting the turn.
package tool

import (
	"context"

	"github.com/skiffworks/skiff/workflow"
)

// Tool is a uniformly invocable capability bound to an agent.
//
// Invoke returns the stringified tool outcome. Implementations must report
// business-level failures ("no documents found", upstream rejections) in
// the returned string, reserving the error return for infrastructure
// failures such as context cancellation.
type Tool interface {
	// Name returns the unique identifier exposed to the model.
	Name() string

	// Description returns the natural-language description shown to the
	// model to guide tool selection.
	Description() string

	// Parameters returns a JSON-Schema-shaped map describing the accepted
	// arguments.
	Parameters() map[string]any

	// Invoke executes the tool with already-decoded arguments.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// RagResult is one document or chunk returned by the RAG collaborator.
type RagResult struct {
	Title    string `json:"title"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	DocID    string `json:"docId"`
	SourceID string `json:"sourceId"`
}

// RagSearcher is the external RAG search collaborator.
type RagSearcher interface {
	Search(
		ctx context.Context,
		projectID, query string,
		sourceIDs []string,
		returnType workflow.RagReturnType,
		k int,
	) ([]RagResult, error)
}

// Invocable is a resolved marketplace tool implementation.
type Invocable func(ctx context.Context, args map[string]any) (string, error)

// Marketplace is the external tool-marketplace collaborator (e.g.
// Composio). Resolve returns (nil, nil) for unsupported slugs; callers
// omit the tool in that case.
type Marketplace interface {
	Resolve(ctx context.Context, slug string) (Invocable, error)

	// Search finds marketplace tools matching a free-text use case and
	// returns them as importable workflow tool configurations.
	Search(ctx context.Context, query string) ([]workflow.Tool, error)
}
