package models

import "context"

// Embedder turns texts into fixed-dimension vectors.
//
// EmbedBatch returns a slice with the same length and order as its input.
// A nil entry marks a text with no vector: either the provider call failed
// or the capability is disabled. A single provider error degrades the whole
// call to all-nil rather than partially succeeding, so callers never end up
// with chunks that silently lost their vector. The client does not retry.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) [][]float32
	Dimension() int
	Available() bool
}

// Completer turns a system instruction plus a user prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Available() bool
}
