package copilot

import (
	"regexp"
	"strings"
)

// questionPatterns are the phrases treated as an unresolved question
// addressed to the user. Matching is restricted to the tail of the
// round's text so an early rhetorical question does not stop the loop.
var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)would you like\b[^?]*\?`),
	regexp.MustCompile(`(?i)do you want\b[^?]*\?`),
	regexp.MustCompile(`(?i)please tell me\b`),
	regexp.MustCompile(`(?i)please let me know\b`),
	regexp.MustCompile(`(?i)could you (?:provide|clarify|share|confirm)\b`),
	regexp.MustCompile(`(?i)what (?:would|should|do) you\b[^?]*\?`),
	regexp.MustCompile(`(?i)which (?:one|option|of these)\b[^?]*\?`),
}

// questionTailLen bounds how far back the heuristic looks.
const questionTailLen = 400

// endsWithOpenQuestion reports whether the round's text trails off into
// a clarification request the user has not answered yet. The heuristic
// is deliberately isolated here: precedence is (1) a bare trailing
// question mark counts, (2) otherwise any known clarification phrase in
// the tail counts. Callers must additionally check that no
// configuration-edit block is present before stopping the round loop.
func endsWithOpenQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	tail := trimmed
	if len(tail) > questionTailLen {
		tail = tail[len(tail)-questionTailLen:]
	}
	for _, p := range questionPatterns {
		if p.MatchString(tail) {
			return true
		}
	}
	return false
}
