// Package testutil provides shared helpers for tests: a fluent workflow
// builder and event-channel draining utilities.
package testutil
