package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vault-gateway/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// ExpireActive demotes every currently active token to expired.
func (r *TokenRepository) ExpireActive(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET status = $1 WHERE status = $2`,
		model.TokenExpired, model.TokenActive)
	if err != nil {
		return fmt.Errorf("expire active tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) Insert(ctx context.Context, token model.AuthToken) error {
	cookies, err := json.Marshal(token.Cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO auth_tokens (id, provider, js_token, cookies, status, captured_at, expires_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID, token.Provider, token.JSToken, cookies, token.Status,
		token.CapturedAt, token.ExpiresAt, token.LastUsedAt)
	if err != nil {
		return fmt.Errorf("insert auth token: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetActive(ctx context.Context) (*model.AuthToken, error) {
	var (
		token      model.AuthToken
		cookiesRaw []byte
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, provider, js_token, cookies, status, captured_at, expires_at, last_used_at
		 FROM auth_tokens
		 WHERE status = $1
		 ORDER BY captured_at DESC
		 LIMIT 1`, model.TokenActive).
		Scan(&token.ID, &token.Provider, &token.JSToken, &cookiesRaw,
			&token.Status, &token.CapturedAt, &token.ExpiresAt, &token.LastUsedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active token: %w", err)
	}

	if err := json.Unmarshal(cookiesRaw, &token.Cookies); err != nil {
		return nil, fmt.Errorf("unmarshal token cookies: %w", err)
	}

	return &token, nil
}

func (r *TokenRepository) TouchLastUsed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET last_used_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch token last_used_at: %w", err)
	}
	return nil
}

// MarkInvalid flags a token the remote host rejected, so it is never handed
// out again even if nothing newer was captured.
func (r *TokenRepository) MarkInvalid(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET status = $1 WHERE id = $2`, model.TokenInvalid, id)
	if err != nil {
		return fmt.Errorf("mark token invalid: %w", err)
	}
	return nil
}
