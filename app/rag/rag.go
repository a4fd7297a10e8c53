package rag

import (
	"context"
	"errors"
)

// ErrIndexWrite marks an upsert or delete that the vector index rejected.
// Callers decide whether to retry; ingestion records it as a per-chunk
// "not searchable" outcome instead of failing the document.
var ErrIndexWrite = errors.New("rag: index write failed")

// PreviewLimit bounds the chunk text stored next to a vector. The preview is
// for display only; the authoritative text lives in the relational chunk row.
const PreviewLimit = 1000

// IndexEntry is one vector plus the metadata stored alongside it.
type IndexEntry struct {
	ChunkID    int64
	DocumentID int64
	OwnerID    int64
	Vector     []float32
	Preview    string
}

// Match is a ranked retrieval hit, produced per query and never persisted.
type Match struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// Index is the vector index capability. The owner filter on Query is
// enforced by the provider's metadata filter, never by post-filtering, so
// another owner's chunk text is never transmitted to the caller.
type Index interface {
	UpsertBatch(ctx context.Context, entries []IndexEntry) error
	Query(ctx context.Context, vector []float32, ownerID int64, topK int, documentIDs []int64) ([]Match, error)
	DeleteByDocument(ctx context.Context, documentID, ownerID int64) error
	Available() bool
	Close() error
}

func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit])
}
