package models

import (
	"context"
	"fmt"
)

var _ Embedder = Disabled{}
var _ Completer = Disabled{}

// Disabled is the unconfigured form of both provider capabilities. It keeps
// "unavailable" an explicit type rather than a runtime nil check scattered
// through callers.
type Disabled struct {
	Reason string
}

func (d Disabled) Available() bool { return false }

func (d Disabled) Dimension() int { return 0 }

func (d Disabled) EmbedBatch(_ context.Context, texts []string) [][]float32 {
	return make([][]float32, len(texts))
}

func (d Disabled) Complete(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("completion provider unavailable: %s", d.Reason)
}
