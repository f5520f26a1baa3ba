// Package agent compiles a declarative workflow into an executable
// agent graph. Compilation is a two-pass build: every non-disabled
// agent becomes a Node with its bound tools and assembled instruction
// text, then handoff edges are resolved from the mentions embedded in
// each agent's instructions. The graph is built fresh per turn and
// never shared across requests.
package agent
