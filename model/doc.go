// Package model defines the language-model runtime boundary: a
// provider-agnostic Event union describing everything a streaming
// completion can produce, and the Runtime interface adapters implement.
// Provider SDK chunk shapes are normalized at this boundary so the rest
// of the system never branches per vendor.
package model
