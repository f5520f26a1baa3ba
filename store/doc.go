// Package store defines the persistence boundary for conversations and
// projects. The coordinator treats these as opaque asynchronous
// collaborators; the in-memory implementations here are safe for
// concurrent access and intended for tests and ephemeral demo servers.
package store
