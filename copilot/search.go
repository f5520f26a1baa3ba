package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skiffworks/skiff/tool"
)

// SearchToolName is the copilot's single tool.
const SearchToolName = "search_relevant_tools"

const noToolsFound = "No tools found!"

// searchTool exposes the marketplace collaborator to the copilot so it
// can suggest real, integrable tools instead of inventing mocks.
type searchTool struct {
	marketplace tool.Marketplace
}

func newSearchTool(marketplace tool.Marketplace) *searchTool {
	return &searchTool{marketplace: marketplace}
}

// Name implements tool.Tool.
func (s *searchTool) Name() string { return SearchToolName }

// Description implements tool.Tool.
func (s *searchTool) Description() string {
	return "Search a library of real, production-ready tools that can be integrated into workflows. " +
		"Use this whenever the user wants to add tools to their agents, search for tools or has questions about specific tools. " +
		"Always search for real tools before suggesting mock tools."
}

// Parameters implements tool.Tool.
func (s *searchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type": "string",
				"description": "Describe the specific functionality or use-case needed. Be specific about the action " +
					"(e.g., 'send email via Gmail', 'create calendar events') and include the service if mentioned by the user.",
			},
		},
		"required": []string{"query"},
	}
}

// Invoke implements tool.Tool. Matching tool configurations are
// rendered as fenced JSON blocks ready to be pasted into a workflow.
func (s *searchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if s.marketplace == nil {
		return noToolsFound, nil
	}
	query, _ := args["query"].(string)

	results, err := s.marketplace.Search(ctx, query)
	if err != nil {
		return noToolsFound, nil
	}
	if len(results) == 0 {
		return noToolsFound, nil
	}

	var b strings.Builder
	b.WriteString("The following tools were found:\n\n")
	for i, cfg := range results {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "**%s**:\n```json\n%s\n```", cfg.Name, encoded)
	}
	return b.String(), nil
}
