package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"KnowledgeAPI/app/auth"
	"KnowledgeAPI/app/configs"
	"KnowledgeAPI/app/rag"
	"KnowledgeAPI/app/storage"
)

// Server owns the HTTP surface. All state lives in the injected
// collaborators, which are safe for concurrent use; handlers hold no
// per-request fields.
type Server struct {
	cfg    configs.ServerConfig
	store  storage.Interface
	auth   *auth.Service
	rag    *rag.Client
	ingest *rag.Ingestor
	answer *rag.Synthesizer
	server *http.Server
}

func New(cfg configs.ServerConfig, store storage.Interface, authService *auth.Service,
	ragClient *rag.Client, ingestor *rag.Ingestor, synthesizer *rag.Synthesizer) *Server {

	s := &Server{
		cfg:    cfg,
		store:  store,
		auth:   authService,
		rag:    ragClient,
		ingest: ingestor,
		answer: synthesizer,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.withMiddleware(s.routes()),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Printf("🚀 Personal Knowledge API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/me", s.requireUser(s.handleMe))

	mux.HandleFunc("POST /documents", s.requireUser(s.handleUploadDocument))
	mux.HandleFunc("GET /documents", s.requireUser(s.handleListDocuments))
	mux.HandleFunc("GET /documents/{id}", s.requireUser(s.handleGetDocument))
	mux.HandleFunc("DELETE /documents/{id}", s.requireUser(s.handleDeleteDocument))

	mux.HandleFunc("POST /questions/ask", s.requireUser(s.handleAsk))

	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Personal Knowledge API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
