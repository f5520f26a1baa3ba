package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skiffworks/skiff/workflow"
)

// RagToolName is the reserved name under which an agent's data-source
// binding is exposed to the model.
const RagToolName = "rag_search"

// ragTool delegates to the external RAG collaborator using the owning
// agent's bound data sources, return type and k.
type ragTool struct {
	searcher  RagSearcher
	projectID string

	description string
	sourceIDs   []string
	returnType  workflow.RagReturnType
	k           int
}

func newRagTool(searcher RagSearcher, projectID string, agent *workflow.Agent) *ragTool {
	description := agent.Description
	if description == "" {
		description = "Search for relevant documents in the agent's knowledge base."
	}
	k := agent.RagK
	if k <= 0 {
		k = 3
	}
	returnType := agent.RagReturnType
	if returnType == "" {
		returnType = workflow.RagReturnChunks
	}
	return &ragTool{
		searcher:    searcher,
		projectID:   projectID,
		description: description,
		sourceIDs:   agent.RagDataSources,
		returnType:  returnType,
		k:           k,
	}
}

// Name implements Tool.
func (t *ragTool) Name() string { return RagToolName }

// Description implements Tool.
func (t *ragTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *ragTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query describing what to look up.",
			},
		},
		"required": []string{"query"},
	}
}

// Invoke implements Tool. Results are serialized as a compact JSON array
// of {title, name, content, docId, sourceId}.
func (t *ragTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	results, err := t.searcher.Search(ctx, t.projectID, query, t.sourceIDs, t.returnType, t.k)
	if err != nil {
		return fmt.Sprintf("RAG search failed: %v", err), nil
	}
	if len(results) == 0 {
		return "No relevant documents found.", nil
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode rag results: %w", err)
	}
	return string(encoded), nil
}
