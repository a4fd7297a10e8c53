package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type User struct {
	ID             int64     `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Document struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Filename  string    `json:"filename" db:"filename"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	Content   string    `json:"-" db:"content"`
	FileSize  int64     `json:"file_size" db:"file_size"`
	Processed bool      `json:"processed" db:"processed"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chunk is one bounded slice of a document's text, the unit of embedding and
// retrieval. Rows are created once at ingestion, never mutated, and removed
// only when the owning document is deleted.
type Chunk struct {
	ID         int64  `json:"id" db:"id"`
	DocumentID int64  `json:"document_id" db:"document_id"`
	OwnerID    int64  `json:"owner_id" db:"owner_id"`
	Index      int    `json:"chunk_index" db:"chunk_index"`
	Content    string `json:"content" db:"content"`
	VectorID   string `json:"vector_id" db:"vector_id"`
}

// VectorKey is the index entry id for a chunk, stable so the entry can be
// targeted for deletion without a separate id table.
func VectorKey(chunkID int64) string {
	return fmt.Sprintf("chunk_%d", chunkID)
}

type RefreshToken struct {
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

type Interface interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)

	CreateDocument(ctx context.Context, doc *Document) (int64, error)
	GetDocument(ctx context.Context, id, ownerID int64) (*Document, error)
	ListDocuments(ctx context.Context, ownerID int64) ([]Document, error)
	// DeleteDocument removes the document's chunk rows and the document row.
	// Index entries must already be gone by the time this is called.
	DeleteDocument(ctx context.Context, id, ownerID int64) error
	MarkDocumentProcessed(ctx context.Context, id int64) error
	DocumentTitles(ctx context.Context, ids []int64) (map[int64]string, error)

	// CreateChunks persists segments in order with contiguous chunk_index
	// starting at 0 and returns the stored rows with assigned ids.
	CreateChunks(ctx context.Context, documentID int64, texts []string) ([]Chunk, error)
	ChunksByDocument(ctx context.Context, documentID int64) ([]Chunk, error)

	SaveRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error

	Close() error
}
