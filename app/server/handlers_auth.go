package server

import (
	"errors"
	"log"
	"net/http"
	"net/mail"

	"KnowledgeAPI/app/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		log.Printf("❌ Error registering user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		log.Printf("❌ Error authenticating user: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	s.issueTokens(w, r, user.ID, func() (string, error) { return s.auth.CreateAccessToken(user) })
}

// handleRefresh rotates the refresh token: the presented token is revoked
// and a fresh pair is issued.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !readJSON(w, r, &req) {
		return
	}

	user, err := s.auth.UserFromRefreshToken(r.Context(), req.RefreshToken)
	if errors.Is(err, auth.ErrInvalidToken) {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		log.Printf("❌ Error verifying refresh token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	if err = s.auth.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		log.Printf("⚠️ Error revoking refresh token: %v", err)
	}

	s.issueTokens(w, r, user.ID, func() (string, error) { return s.auth.CreateAccessToken(user) })
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.auth.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		log.Printf("⚠️ Error revoking refresh token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, userID int64, makeAccess func() (string, error)) {
	accessToken, err := makeAccess()
	if err != nil {
		log.Printf("❌ Error creating access token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	refreshToken, err := s.auth.CreateRefreshToken(r.Context(), userID)
	if err != nil {
		log.Printf("❌ Error creating refresh token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}
