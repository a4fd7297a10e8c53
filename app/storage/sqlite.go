package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type SQLiteStorage struct {
	db *sql.DB
}

var _ Interface = &SQLiteStorage{}

// DBPath resolves the database location from DB_PATH, falling back to
// ./data/knowledge.db under the working directory.
func DBPath() string {
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		return dbPath
	}
	projectDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("❌ Error getting project directory: %v", err)
	}
	defaultPath := filepath.Join(projectDir, "data", "knowledge.db")
	if err := os.MkdirAll(filepath.Dir(defaultPath), os.ModePerm); err != nil {
		log.Fatalf("❌ Error creating data directory: %v", err)
	}
	log.Printf("📂 DB_PATH not set, using default: %s", defaultPath)
	return defaultPath
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", dbPath, err)
	}

	if _, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT NOT NULL UNIQUE,
            hashed_password TEXT NOT NULL,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS documents (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            filename TEXT NOT NULL,
            mime_type TEXT NULL,
            content TEXT NULL,
            file_size INTEGER NULL,
            processed INTEGER NOT NULL DEFAULT 0,
            owner_id INTEGER NOT NULL REFERENCES users(id),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id);
        CREATE TABLE IF NOT EXISTS document_chunks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            document_id INTEGER NOT NULL REFERENCES documents(id),
            chunk_index INTEGER NOT NULL,
            content TEXT NOT NULL,
            vector_id TEXT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (document_id, chunk_index)
        );
        CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks (document_id);
        CREATE TABLE IF NOT EXISTS refresh_tokens (
            token TEXT PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id),
            expires_at TIMESTAMP NOT NULL,
            is_active INTEGER NOT NULL DEFAULT 1
        );
    `); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, email, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, is_active, created_at) VALUES (?, ?, 1, datetime(?))`,
		email, hashedPassword, now.Format(timeLayout),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Email: email, HashedPassword: hashedPassword, IsActive: true, CreatedAt: now}, nil
}

func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, is_active, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLiteStorage) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, is_active, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*User, error) {
	var u User
	var isActive int
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &isActive, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.IsActive = isActive != 0
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &u, nil
}

func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *Document) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (title, filename, mime_type, content, file_size, processed, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, datetime(?))`,
		doc.Title, doc.Filename, doc.MimeType, doc.Content, doc.FileSize, doc.OwnerID, now.Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	doc.ID = id
	doc.CreatedAt = now
	return id, nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, id, ownerID int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, filename, mime_type, content, file_size, processed, owner_id, created_at
		 FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanDocument(row)
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, ownerID int64) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, filename, mime_type, content, file_size, processed, owner_id, created_at
		 FROM documents WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			log.Printf("⚠️ Error scanning document row: %v", err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id, ownerID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM document_chunks WHERE document_id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) MarkDocumentProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE documents SET processed = 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteStorage) DocumentTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title FROM documents WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var title string
		if err = rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

func (s *SQLiteStorage) CreateChunks(ctx context.Context, documentID int64, texts []string) ([]Chunk, error) {
	var ownerID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id FROM documents WHERE id = ?`, documentID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	chunks := make([]Chunk, 0, len(texts))
	for i, text := range texts {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO document_chunks (document_id, chunk_index, content) VALUES (?, ?, ?)`,
			documentID, i, text)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		vectorID := VectorKey(id)
		if _, err = tx.ExecContext(ctx,
			`UPDATE document_chunks SET vector_id = ? WHERE id = ?`, vectorID, id); err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{
			ID:         id,
			DocumentID: documentID,
			OwnerID:    ownerID,
			Index:      i,
			Content:    text,
			VectorID:   vectorID,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *SQLiteStorage) ChunksByDocument(ctx context.Context, documentID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, d.owner_id, c.chunk_index, c.content, COALESCE(c.vector_id, '')
		 FROM document_chunks c JOIN documents d ON d.id = c.document_id
		 WHERE c.document_id = ? ORDER BY c.chunk_index ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err = rows.Scan(&c.ID, &c.DocumentID, &c.OwnerID, &c.Index, &c.Content, &c.VectorID); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) SaveRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, is_active) VALUES (?, ?, datetime(?), 1)`,
		token, userID, expiresAt.UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStorage) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	var rt RefreshToken
	var isActive int
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, is_active FROM refresh_tokens WHERE token = ?`, token).
		Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &isActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rt.IsActive = isActive != 0
	rt.ExpiresAt = rt.ExpiresAt.UTC()
	return &rt, nil
}

func (s *SQLiteStorage) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_active = 0 WHERE token = ?`, token)
	return err
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var mimeType, content sql.NullString
	var fileSize sql.NullInt64
	var processed int
	var createdAt string
	err := row.Scan(&doc.ID, &doc.Title, &doc.Filename, &mimeType, &content, &fileSize, &processed, &doc.OwnerID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.MimeType = mimeType.String
	doc.Content = content.String
	doc.FileSize = fileSize.Int64
	doc.Processed = processed != 0
	doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*Document, error) {
	var doc Document
	var mimeType, content sql.NullString
	var fileSize sql.NullInt64
	var processed int
	var createdAt string
	err := rows.Scan(&doc.ID, &doc.Title, &doc.Filename, &mimeType, &content, &fileSize, &processed, &doc.OwnerID, &createdAt)
	if err != nil {
		return nil, err
	}
	doc.MimeType = mimeType.String
	doc.Content = content.String
	doc.FileSize = fileSize.Int64
	doc.Processed = processed != 0
	doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &doc, nil
}
