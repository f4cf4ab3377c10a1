package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vault-gateway/internal/model"
	"vault-gateway/internal/terabox"
)

// TokenStore is the persisted token collection. Implemented by
// repository.TokenRepository.
type TokenStore interface {
	ExpireActive(ctx context.Context) error
	Insert(ctx context.Context, token model.AuthToken) error
	GetActive(ctx context.Context) (*model.AuthToken, error)
	TouchLastUsed(ctx context.Context, id string) error
	MarkInvalid(ctx context.Context, id string) error
}

// TokenService owns the single-active-token invariant: saving a new
// credential demotes every active token before the insert, under one lock so
// concurrent saves cannot interleave.
type TokenService struct {
	saveMu sync.Mutex
	store  TokenStore
}

func NewTokenService(store TokenStore) *TokenService {
	return &TokenService{store: store}
}

// SaveCaptured persists a freshly captured credential bundle as the active
// token. Satisfies capture.TokenSaver.
func (s *TokenService) SaveCaptured(ctx context.Context, data model.AuthData) error {
	token := model.AuthToken{
		ID:         uuid.NewString(),
		Provider:   data.Provider,
		JSToken:    data.JSToken,
		Cookies:    data.Cookies,
		Status:     model.TokenActive,
		CapturedAt: data.CapturedAt,
		// ExpiresAt stays unset: the remote host gives no explicit expiry;
		// staleness is detected reactively on use.
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.store.ExpireActive(ctx); err != nil {
		return fmt.Errorf("demote active tokens: %w", err)
	}
	if err := s.store.Insert(ctx, token); err != nil {
		return fmt.Errorf("insert captured token: %w", err)
	}
	return nil
}

// ActiveAuthData returns the active token's credential bundle and records
// the use. Returns model.ErrTokenNotFound when nothing is active.
func (s *TokenService) ActiveAuthData(ctx context.Context) (*model.AuthData, error) {
	token, err := s.store.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.TouchLastUsed(ctx, token.ID); err != nil {
		return nil, err
	}
	return token.AuthData(), nil
}

// InvalidateActive demotes the active token after the remote host stopped
// honoring it. The next authenticated call then fails fast with
// model.ErrTokenNotFound instead of hitting the remote again.
func (s *TokenService) InvalidateActive(ctx context.Context) error {
	token, err := s.store.GetActive(ctx)
	if errors.Is(err, model.ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.MarkInvalid(ctx, token.ID)
}

// CookieHeaderSnapshot builds the Cookie header for upstream content
// requests from the active token, or "" when no token is active. The
// snapshot is taken once at request start; streaming never holds the store.
func (s *TokenService) CookieHeaderSnapshot(ctx context.Context) string {
	token, err := s.store.GetActive(ctx)
	if err != nil {
		return ""
	}
	return terabox.CookieHeader(token.Cookies)
}

// Summary is the active-token view for the HTTP surface; the credential
// itself never leaves the process.
func (s *TokenService) Summary(ctx context.Context) (model.TokenSummary, error) {
	token, err := s.store.GetActive(ctx)
	if errors.Is(err, model.ErrTokenNotFound) {
		return model.TokenSummary{Present: false}, nil
	}
	if err != nil {
		return model.TokenSummary{}, err
	}

	summary := model.TokenSummary{
		Present:    true,
		Provider:   token.Provider,
		CapturedAt: token.CapturedAt.Format(time.RFC3339),
	}
	if token.LastUsedAt != nil {
		lastUsed := token.LastUsedAt.Format(time.RFC3339)
		summary.LastUsedAt = &lastUsed
	}
	return summary, nil
}
