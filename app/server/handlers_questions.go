package server

import (
	"net/http"
	"strings"
)

type askRequest struct {
	Question    string  `json:"question"`
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	MaxChunks   int     `json:"max_chunks,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question cannot be empty")
		return
	}

	answer := s.answer.GenerateAnswer(r.Context(), req.Question, currentUser(r).ID, req.DocumentIDs, req.MaxChunks)
	writeJSON(w, http.StatusOK, answer)
}
