package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"KnowledgeAPI/app/extract"
	"KnowledgeAPI/app/rag"
	"KnowledgeAPI/app/storage"
)

type uploadResponse struct {
	Document *storage.Document `json:"document"`
	Chunks   []rag.ChunkOutcome `json:"chunks"`
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseMultipartForm(extract.MaxFileSize + 1024*1024); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, extract.MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(content) > extract.MaxFileSize {
		writeError(w, http.StatusBadRequest, extract.ErrFileTooLarge.Error())
		return
	}

	mimeType, err := extract.ValidateFile(header.Filename, content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, err := extract.Text(content, mimeType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	doc := &storage.Document{
		Title:    title,
		Filename: header.Filename,
		MimeType: mimeType,
		Content:  text,
		FileSize: int64(len(content)),
		OwnerID:  user.ID,
	}
	if _, err = s.store.CreateDocument(r.Context(), doc); err != nil {
		log.Printf("❌ Error creating document: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	outcomes, err := s.ingest.Ingest(r.Context(), doc.ID, user.ID, text)
	if err != nil {
		log.Printf("❌ Error ingesting document %d: %v", doc.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to process document")
		return
	}
	doc.Processed = true

	writeJSON(w, http.StatusOK, uploadResponse{Document: doc, Chunks: outcomes})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), currentUser(r).ID)
	if err != nil {
		log.Printf("❌ Error listing documents: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []storage.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := s.store.GetDocument(r.Context(), id, currentUser(r).ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		log.Printf("❌ Error fetching document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument removes index entries first, then the chunk and
// document rows, so vectors never outlive their chunks.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := s.store.GetDocument(r.Context(), id, user.ID); errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	} else if err != nil {
		log.Printf("❌ Error fetching document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	if err := s.rag.DeleteDocument(r.Context(), id, user.ID); err != nil {
		log.Printf("❌ Error deleting embeddings for document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to remove document vectors")
		return
	}

	if err := s.store.DeleteDocument(r.Context(), id, user.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("❌ Error deleting document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}
