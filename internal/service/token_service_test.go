package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-gateway/internal/model"
)

// memoryTokenStore mirrors the repository's row semantics in memory.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens []model.AuthToken
}

func (s *memoryTokenStore) ExpireActive(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tokens {
		if s.tokens[i].Status == model.TokenActive {
			s.tokens[i].Status = model.TokenExpired
		}
	}
	return nil
}

func (s *memoryTokenStore) Insert(_ context.Context, token model.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *memoryTokenStore) GetActive(context.Context) (*model.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i].Status == model.TokenActive {
			token := s.tokens[i]
			return &token, nil
		}
	}
	return nil, model.ErrTokenNotFound
}

func (s *memoryTokenStore) TouchLastUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.tokens {
		if s.tokens[i].ID == id {
			s.tokens[i].LastUsedAt = &now
		}
	}
	return nil
}

func (s *memoryTokenStore) MarkInvalid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tokens {
		if s.tokens[i].ID == id {
			s.tokens[i].Status = model.TokenInvalid
		}
	}
	return nil
}

func (s *memoryTokenStore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.tokens {
		if t.Status == model.TokenActive {
			count++
		}
	}
	return count
}

func capturedData(jsToken string) model.AuthData {
	return model.AuthData{
		Provider: "terabox",
		JSToken:  jsToken,
		Cookies: []model.CapturedCookie{
			{Name: "ndus", Value: "v-" + jsToken, Domain: ".terabox.com"},
		},
		CapturedAt: time.Now().UTC(),
	}
}

func TestSaveCapturedKeepsSingleActiveToken(t *testing.T) {
	store := &memoryTokenStore{}
	svc := NewTokenService(store)
	ctx := context.Background()

	require.NoError(t, svc.SaveCaptured(ctx, capturedData("tokenA-0123456789")))
	require.NoError(t, svc.SaveCaptured(ctx, capturedData("tokenB-0123456789")))

	assert.Equal(t, 1, store.activeCount())

	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tokenB-0123456789", active.JSToken)
	assert.Equal(t, model.TokenExpired, store.tokens[0].Status)
	assert.Nil(t, active.ExpiresAt, "remote host gives no expiry; must stay unset")
}

func TestSaveCapturedConcurrent(t *testing.T) {
	store := &memoryTokenStore{}
	svc := NewTokenService(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.SaveCaptured(context.Background(), capturedData("concurrent-token-xyz"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.activeCount())
}

func TestActiveAuthDataTouchesLastUsed(t *testing.T) {
	store := &memoryTokenStore{}
	svc := NewTokenService(store)
	ctx := context.Background()

	require.NoError(t, svc.SaveCaptured(ctx, capturedData("tokenA-0123456789")))

	data, err := svc.ActiveAuthData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tokenA-0123456789", data.JSToken)
	assert.NotNil(t, store.tokens[0].LastUsedAt)
}

func TestActiveAuthDataWithoutToken(t *testing.T) {
	svc := NewTokenService(&memoryTokenStore{})

	_, err := svc.ActiveAuthData(context.Background())
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestCookieHeaderSnapshot(t *testing.T) {
	store := &memoryTokenStore{}
	svc := NewTokenService(store)
	ctx := context.Background()

	assert.Empty(t, svc.CookieHeaderSnapshot(ctx))

	require.NoError(t, svc.SaveCaptured(ctx, capturedData("tokenA-0123456789")))
	assert.Equal(t, "ndus=v-tokenA-0123456789", svc.CookieHeaderSnapshot(ctx))
}

func TestSummary(t *testing.T) {
	store := &memoryTokenStore{}
	svc := NewTokenService(store)
	ctx := context.Background()

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.False(t, summary.Present)

	require.NoError(t, svc.SaveCaptured(ctx, capturedData("tokenA-0123456789")))

	summary, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Present)
	assert.Equal(t, "terabox", summary.Provider)
	assert.NotEmpty(t, summary.CapturedAt)
}
