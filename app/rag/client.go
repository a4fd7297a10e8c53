package rag

import (
	"context"
	"log"

	"KnowledgeAPI/app/models"
	"KnowledgeAPI/app/storage"
)

const (
	DefaultTopK = 5

	// MaxTopK caps the retrieval fan-out; max_chunks is caller-controlled
	// and flows here from the HTTP surface.
	MaxTopK = 50
)

// Client composes the embedding capability with the vector index. It owns
// both directions: indexing chunk batches at ingestion and retrieving ranked
// matches for a question. Stateless after construction, safe for concurrent
// use.
type Client struct {
	embedder models.Embedder
	index    Index
}

func NewClient(embedder models.Embedder, index Index) *Client {
	return &Client{embedder: embedder, index: index}
}

// Retrieve finds the chunks most similar to the question, scoped to one
// owner and optionally to a document subset. Retrieval is best-effort: an
// absent query embedding or a failing index query degrades to zero matches,
// never an error, because synthesis has an explicit empty-context answer.
func (c *Client) Retrieve(ctx context.Context, question string, ownerID int64, topK int, documentIDs []int64) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vectors := c.embedder.EmbedBatch(ctx, []string{question})
	if len(vectors) != 1 || vectors[0] == nil {
		return nil
	}

	matches, err := c.index.Query(ctx, vectors[0], ownerID, topK, documentIDs)
	if err != nil {
		log.Printf("⚠️ Error searching similar chunks: %v", err)
		return nil
	}
	return matches
}

// IndexChunks embeds the chunk texts in one logical batch and upserts the
// vectors that came back. The returned slice parallels chunks: true means
// the chunk is now searchable. A missing vector or a failed upsert marks a
// chunk false without affecting the others' chunk rows.
func (c *Client) IndexChunks(ctx context.Context, chunks []storage.Chunk) []bool {
	searchable := make([]bool, len(chunks))
	if len(chunks) == 0 {
		return searchable
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors := c.embedder.EmbedBatch(ctx, texts)

	entries := make([]IndexEntry, 0, len(chunks))
	indexed := make([]int, 0, len(chunks))
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		entries = append(entries, IndexEntry{
			ChunkID:    chunks[i].ID,
			DocumentID: chunks[i].DocumentID,
			OwnerID:    chunks[i].OwnerID,
			Vector:     vec,
			Preview:    Preview(chunks[i].Content),
		})
		indexed = append(indexed, i)
	}
	if len(entries) == 0 {
		return searchable
	}

	if err := c.index.UpsertBatch(ctx, entries); err != nil {
		log.Printf("⚠️ Error storing batch embeddings: %v", err)
		return searchable
	}
	for _, i := range indexed {
		searchable[i] = true
	}
	return searchable
}

// DeleteDocument removes every index entry for the document/owner pair.
func (c *Client) DeleteDocument(ctx context.Context, documentID, ownerID int64) error {
	return c.index.DeleteByDocument(ctx, documentID, ownerID)
}

func (c *Client) Available() bool {
	return c.embedder.Available() && c.index.Available()
}
