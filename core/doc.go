// Package core defines the domain protocol shared by every other package:
// conversation messages, turns and the externally visible turn events that
// the transport layer frames (e.g. as Server-Sent Events). Values here are
// plain data; behavior lives in the workflow, agent, run and copilot
// packages.
package core
