package workflow

import "regexp"

// MentionType identifies the kind of entity a mention points at.
type MentionType string

// Mention types. The inline syntax additionally accepts "variable" as an
// alias for prompt mentions.
const (
	MentionAgent    MentionType = "agent"
	MentionTool     MentionType = "tool"
	MentionPipeline MentionType = "pipeline"
	MentionPrompt   MentionType = "prompt"
)

// Mention is a transient reference to another workflow entity embedded in
// free-text instructions. Mentions are parsed, never stored.
type Mention struct {
	Type MentionType
	Name string
}

// mentionPattern matches the tagged-reference syntax [@type:name](#mention)
// produced by the workflow editor.
var mentionPattern = regexp.MustCompile(`\[@(agent|tool|pipeline|prompt|variable):([^\]\n]+)\]\(#mention\)`)

// ParseMentions extracts every mention found in instructions, in parse
// order, validated against the workflow's known entities. A match that
// references an unknown entity, or a disabled agent, is silently dropped.
// Duplicates by {type, name} are preserved; callers de-duplicate when
// building edge sets.
func ParseMentions(instructions string, wf *Workflow) []Mention {
	var mentions []Mention
	for _, match := range mentionPattern.FindAllStringSubmatch(instructions, -1) {
		kind, name := match[1], match[2]
		switch kind {
		case "agent":
			a := wf.AgentByName(name)
			if a == nil || a.Disabled {
				continue
			}
			mentions = append(mentions, Mention{Type: MentionAgent, Name: name})
		case "tool":
			if wf.ToolByName(name) == nil {
				continue
			}
			mentions = append(mentions, Mention{Type: MentionTool, Name: name})
		case "pipeline":
			if wf.PipelineByName(name) == nil {
				continue
			}
			mentions = append(mentions, Mention{Type: MentionPipeline, Name: name})
		case "prompt", "variable":
			if wf.PromptByName(name) == nil {
				continue
			}
			mentions = append(mentions, Mention{Type: MentionPrompt, Name: name})
		}
	}
	return mentions
}
