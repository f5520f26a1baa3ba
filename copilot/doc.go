// Package copilot implements the multi-round coordinator behind the
// assistant-configuration copilot: one configuration-editing agent
// driven through up to ten tool-use rounds. Streamed text is scanned
// for structured configuration-edit markers which are surfaced as
// action-start events, de-duplicated per turn.
package copilot
