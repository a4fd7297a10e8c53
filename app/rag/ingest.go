package rag

import (
	"context"
	"log"

	"KnowledgeAPI/app/chunker"
	"KnowledgeAPI/app/storage"
)

// ChunkOutcome reports, per chunk, whether it is now findable through the
// vector index. Observability only: chunk rows are created regardless.
type ChunkOutcome struct {
	ChunkID    int64 `json:"chunk_id"`
	Index      int   `json:"chunk_index"`
	Searchable bool  `json:"searchable"`
}

// Ingestor runs the document ingestion pipeline: segment the text, persist
// the chunk rows, then embed and index. Chunk rows are written before any
// embedding call so the relational store stays authoritative for what text
// exists; the vector index is an accelerator that may lag behind it.
type Ingestor struct {
	store      storage.Interface
	client     *Client
	targetSize int
	overlap    int
}

func NewIngestor(store storage.Interface, client *Client, targetSize, overlap int) *Ingestor {
	if targetSize == 0 {
		targetSize = chunker.DefaultTargetSize
		// Zero overlap alongside a zero target means "use the defaults";
		// a configured overlap is kept as given.
		if overlap == 0 {
			overlap = chunker.DefaultOverlap
		}
	}
	return &Ingestor{store: store, client: client, targetSize: targetSize, overlap: overlap}
}

// Ingest runs once per uploaded document. The error covers segmentation and
// chunk persistence only; embedding or indexing failures show up as
// non-searchable outcomes, not as an error.
func (in *Ingestor) Ingest(ctx context.Context, documentID, ownerID int64, text string) ([]ChunkOutcome, error) {
	segments, err := chunker.Split(text, in.targetSize, in.overlap)
	if err != nil {
		return nil, err
	}

	chunks, err := in.store.CreateChunks(ctx, documentID, segments)
	if err != nil {
		return nil, err
	}

	searchable := in.client.IndexChunks(ctx, chunks)

	outcomes := make([]ChunkOutcome, len(chunks))
	indexed := 0
	for i, ch := range chunks {
		outcomes[i] = ChunkOutcome{ChunkID: ch.ID, Index: ch.Index, Searchable: searchable[i]}
		if searchable[i] {
			indexed++
		}
	}

	if err = in.store.MarkDocumentProcessed(ctx, documentID); err != nil {
		log.Printf("⚠️ Error marking document %d processed: %v", documentID, err)
	}

	log.Printf("📄 Ingested document %d for user %d: %d chunks, %d searchable",
		documentID, ownerID, len(chunks), indexed)
	return outcomes, nil
}
