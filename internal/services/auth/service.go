package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
)

// Service is the principal resolver plus the account flows around it:
// registration, login, logout, change-password. Every other component takes
// a resolved *domain.Principal, never a raw credential.
type Service struct {
	principals ports.PrincipalRepository
	tokens     ports.TokenRepository
	tokenTTL   time.Duration
	now        func() time.Time
}

func New(principals ports.PrincipalRepository, tokens ports.TokenRepository, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Service{principals: principals, tokens: tokens, tokenTTL: tokenTTL, now: time.Now}
}

// Resolve maps a bearer token to exactly one principal. Total over the token
// space: unknown tokens are ErrUnauthenticated, invalidated ones are
// ErrTokenExpired/ErrTokenRevoked. No side effects.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	rec, found, err := s.tokens.LookupToken(ctx, tokenHash(token))
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if !found {
		return nil, domain.ErrUnauthenticated
	}
	if rec.RevokedAt != nil {
		return nil, domain.ErrTokenRevoked
	}
	if s.now().After(rec.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}
	p, err := s.principals.GetPrincipal(ctx, rec.Principal)
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

func (s *Service) RegisterIndividual(ctx context.Context, name, email, password string) (*domain.Principal, error) {
	return s.register(ctx, domain.KindIndividual, name, email, password)
}

func (s *Service) RegisterCompany(ctx context.Context, name, email, password string) (*domain.Principal, error) {
	return s.register(ctx, domain.KindCompany, name, email, password)
}

func (s *Service) register(ctx context.Context, kind domain.PrincipalKind, name, email, password string) (*domain.Principal, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || len(password) < 8 {
		return nil, domain.ErrValidation
	}
	existing, err := s.principals.GetPrincipalByEmail(ctx, kind, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &domain.Principal{
		Kind:         kind,
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Settings:     map[string]any{},
		CreatedAt:    s.now(),
	}
	if err := s.principals.CreatePrincipal(ctx, p); err != nil {
		return nil, fmt.Errorf("create principal: %w", err)
	}
	return p, nil
}

// Login verifies credentials for the given account kind and mints an opaque
// bearer token. The caller states the kind; the two id spaces never mix.
func (s *Service) Login(ctx context.Context, kind domain.PrincipalKind, email, password string) (string, *domain.Principal, error) {
	p, err := s.principals.GetPrincipalByEmail(ctx, kind, normalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("load principal: %w", err)
	}
	if p == nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	ok, err := verifyPassword(password, p.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := mintToken()
	if err != nil {
		return "", nil, err
	}
	rec := ports.TokenRecord{
		Hash:      tokenHash(token),
		Principal: p.Ref(),
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := s.tokens.InsertToken(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	return token, p, nil
}

// Logout revokes the presented token. Resolving it afterwards reports
// ErrTokenRevoked, not a silent miss.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.Resolve(ctx, token); err != nil {
		return err
	}
	return s.tokens.RevokeToken(ctx, tokenHash(token))
}

// ChangePassword verifies the old password, stores the new hash and revokes
// every other live session of the principal.
func (s *Service) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	p, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return domain.ErrValidation
	}
	ok, err := verifyPassword(oldPassword, p.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.principals.UpdatePassword(ctx, p.Ref(), hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.tokens.RevokeOtherTokens(ctx, p.Ref(), tokenHash(token))
}

// Capabilities exposes the two predicates downstream components switch on.
func (s *Service) Capabilities(p *domain.Principal) domain.Capabilities {
	return domain.CapabilitiesOf(p)
}

func mintToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
