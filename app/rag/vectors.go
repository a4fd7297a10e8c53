package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"KnowledgeAPI/app/storage"
)

const (
	// Ceiling for the delete scan; documents are bounded well below this by
	// the upload size limit.
	deleteScanLimit = 10000

	payloadChunkID    = "chunk_id"
	payloadDocumentID = "document_id"
	payloadOwnerID    = "user_id"
	payloadText       = "text"
)

// Qdrant point ids must be uuids, so each entry's id is the deterministic
// UUIDv5 of its "chunk_<id>" key. The key stays recoverable for deletion
// without a separate id table.
var pointNamespace = uuid.MustParse("8a44d1a6-9c1e-4f3a-b8e5-2f6d1c0a7b42")

func pointID(chunkID int64) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(storage.VectorKey(chunkID))).String())
}

type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	Dimension  int
}

// qdrantAPI is the slice of the qdrant client the index uses. Satisfied by
// *qdrant.Client; tests substitute an in-memory backend.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

type QdrantIndex struct {
	client     qdrantAPI
	collection string
	dimension  int
}

var _ Index = &QdrantIndex{}

// NewIndex connects to qdrant and makes sure the collection exists. Any
// initialization failure yields a DisabledIndex so retrieval degrades to
// zero matches instead of erroring on every request.
func NewIndex(ctx context.Context, cfg QdrantConfig) Index {
	if cfg.Host == "" {
		log.Println("⚠️ QDRANT_HOST not set, vector index disabled")
		return DisabledIndex{Reason: "QDRANT_HOST not set"}
	}
	idx, err := NewQdrantIndex(ctx, cfg)
	if err != nil {
		log.Printf("❌ Failed to initialize vector index: %v", err)
		return DisabledIndex{Reason: err.Error()}
	}
	log.Printf("✅ Vector index initialized with collection: %s", cfg.Collection)
	return idx
}

func NewQdrantIndex(ctx context.Context, cfg QdrantConfig) (*QdrantIndex, error) {
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, err
	}

	idx := &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}
	if err = idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *QdrantIndex) Available() bool { return true }

func (s *QdrantIndex) Close() error { return s.client.Close() }

func (s *QdrantIndex) UpsertBatch(ctx context.Context, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pts := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		pts[i] = &qdrant.PointStruct{
			Id:      pointID(e.ChunkID),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadChunkID:    e.ChunkID,
				payloadDocumentID: e.DocumentID,
				payloadOwnerID:    e.OwnerID,
				payloadText:       e.Preview,
			}),
		}
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         pts,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return nil
}

func (s *QdrantIndex) Query(ctx context.Context, vector []float32, ownerID int64, topK int, documentIDs []int64) ([]Match, error) {
	limit := uint64(topK)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Filter:         ownerFilter(ownerID, documentIDs),
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp))
	for _, r := range resp {
		matches = append(matches, Match{
			ChunkID:    payloadInt(r.Payload, payloadChunkID),
			DocumentID: payloadInt(r.Payload, payloadDocumentID),
			Text:       payloadString(r.Payload, payloadText),
			Score:      r.Score,
		})
	}
	return matches, nil
}

// DeleteByDocument scans for the document's entries and deletes them by id;
// qdrant point ids cannot be enumerated from chunk rows without the scan.
// The two steps are racy against a concurrent ingest of the same document: a
// chunk upserted after the scan survives the delete. Deletion and re-upload
// are not expected to interleave, so the race is documented rather than
// locked away.
func (s *QdrantIndex) DeleteByDocument(ctx context.Context, documentID, ownerID int64) error {
	limit := uint64(deleteScanLimit)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Filter: &qdrant.Filter{Must: []*qdrant.Condition{
			qdrant.NewMatchInt(payloadDocumentID, documentID),
			qdrant.NewMatchInt(payloadOwnerID, ownerID),
		}},
		// Dummy vector; only the filter matters for the scan.
		Query:       qdrant.NewQuery(make([]float32, s.dimension)...),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	if len(resp) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(resp))
	for _, r := range resp {
		ids = append(ids, pointID(payloadInt(r.Payload, payloadChunkID)))
	}

	if _, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(ids...),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return nil
}

func ownerFilter(ownerID int64, documentIDs []int64) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatchInt(payloadOwnerID, ownerID)}
	if len(documentIDs) > 0 {
		must = append(must, qdrant.NewMatchInts(payloadDocumentID, documentIDs...))
	}
	return &qdrant.Filter{Must: must}
}

func payloadInt(payload map[string]*qdrant.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		if iv, ok := v.Kind.(*qdrant.Value_IntegerValue); ok {
			return iv.IntegerValue
		}
	}
	return 0
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}

// DisabledIndex is the unconfigured vector index: deletes report success
// (nothing to clean up), queries report zero matches, writes fail.
type DisabledIndex struct {
	Reason string
}

var _ Index = DisabledIndex{}

func (d DisabledIndex) Available() bool { return false }

func (d DisabledIndex) Close() error { return nil }

func (d DisabledIndex) UpsertBatch(_ context.Context, _ []IndexEntry) error {
	return fmt.Errorf("%w: vector index unavailable: %s", ErrIndexWrite, d.Reason)
}

func (d DisabledIndex) Query(_ context.Context, _ []float32, _ int64, _ int, _ []int64) ([]Match, error) {
	return nil, nil
}

func (d DisabledIndex) DeleteByDocument(_ context.Context, _, _ int64) error {
	return nil
}
