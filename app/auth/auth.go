package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"KnowledgeAPI/app/storage"
)

const (
	AccessTokenTTL  = 30 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrEmailTaken         = errors.New("auth: email already registered")
)

type Service struct {
	store  storage.Interface
	secret []byte
}

func NewService(store storage.Interface) *Service {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = "your-secret-key-change-in-production"
		log.Println("⚠️ SECRET_KEY not set, using insecure default")
	}
	return NewServiceWithSecret(store, secret)
}

func NewServiceWithSecret(store storage.Interface, secret string) *Service {
	return &Service{store: store, secret: []byte(secret)}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) Register(ctx context.Context, email, password string) (*storage.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, email, hash)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*storage.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !VerifyPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateAccessToken issues a short-lived HS256 token. The type claim keeps
// refresh tokens from being replayed as access tokens.
func (s *Service) CreateAccessToken(user *storage.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Email,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

// UserFromAccessToken verifies the token and resolves its subject to an
// active user.
func (s *Service) UserFromAccessToken(ctx context.Context, tokenString string) (*storage.User, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// CreateRefreshToken issues an opaque token persisted in the store.
func (s *Service) CreateRefreshToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString() + uuid.NewString()
	expiresAt := time.Now().UTC().Add(RefreshTokenTTL)
	if err := s.store.SaveRefreshToken(ctx, token, userID, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// UserFromRefreshToken resolves an active, unexpired refresh token to its
// user without consuming it.
func (s *Service) UserFromRefreshToken(ctx context.Context, token string) (*storage.User, error) {
	rt, err := s.store.GetRefreshToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !rt.IsActive || time.Now().UTC().After(rt.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, rt.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	return s.store.RevokeRefreshToken(ctx, token)
}
