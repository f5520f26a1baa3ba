package copilot

import (
	"regexp"
	"strings"

	"github.com/skiffworks/skiff/core"
)

// actionMarkerPattern matches the metadata header of a streamed
// configuration-edit block, tolerating a missing fence and an
// incomplete JSON body:
//
//	```copilot_change
//	// action: create_new
//	// config_type: agent
//	// name: Support
//	{ ... }
var actionMarkerPattern = regexp.MustCompile(
	`(?:copilot_change\s*\n?)?//\s*action:\s*(\w+)\s*//\s*config_type:\s*(\w+)\s*//\s*name:\s*([^\n{]+)`)

// changeBlockPattern detects the presence of any configuration-edit
// block, fenced or headerless.
var changeBlockPattern = regexp.MustCompile("```copilot_change|//\\s*action:")

// containsChangeBlock reports whether the text holds at least one
// structured configuration edit.
func containsChangeBlock(text string) bool {
	return changeBlockPattern.MatchString(text)
}

// actionTracker detects action markers in the accumulated stream text
// and deduplicates them per turn: the same {action, configType, name}
// tuple is reported at most once even though the marker text recurs as
// later chunks arrive.
type actionTracker struct {
	seen map[string]struct{}
}

func newActionTracker() *actionTracker {
	return &actionTracker{seen: make(map[string]struct{})}
}

// scan returns the action-start events for markers not reported before.
// It must be called on the full accumulated text, not on isolated
// chunks, since a marker may straddle a chunk boundary.
func (t *actionTracker) scan(text string) []core.ActionStartEvent {
	var events []core.ActionStartEvent
	for _, m := range actionMarkerPattern.FindAllStringSubmatch(text, -1) {
		action, configType, name := m[1], m[2], strings.TrimSpace(m[3])
		key := action + "\x00" + configType + "\x00" + name
		if _, ok := t.seen[key]; ok {
			continue
		}
		t.seen[key] = struct{}{}
		events = append(events, core.ActionStartEvent{
			Action:     action,
			ConfigType: configType,
			ConfigName: name,
		})
	}
	return events
}
