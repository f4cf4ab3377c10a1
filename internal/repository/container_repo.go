package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vault-gateway/internal/model"
)

type ContainerRepository struct {
	pool *pgxpool.Pool
}

func NewContainerRepository(pool *pgxpool.Pool) *ContainerRepository {
	return &ContainerRepository{pool: pool}
}

func (r *ContainerRepository) Create(ctx context.Context, c model.Container) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO containers (id, name, share_url, share_ref, type, title, item_count, thumbnail, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.ShareURL, c.ShareRef, c.Type, c.Title, c.ItemCount, c.Thumbnail, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert container: %w", err)
	}
	return nil
}

func (r *ContainerRepository) Get(ctx context.Context, id string) (*model.Container, error) {
	var c model.Container
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, share_url, share_ref, type, title, item_count, thumbnail, created_at, updated_at
		 FROM containers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ShareURL, &c.ShareRef, &c.Type, &c.Title,
			&c.ItemCount, &c.Thumbnail, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrContainerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get container: %w", err)
	}
	return &c, nil
}

func (r *ContainerRepository) List(ctx context.Context) ([]model.Container, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, share_url, share_ref, type, title, item_count, thumbnail, created_at, updated_at
		 FROM containers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer rows.Close()

	containers := []model.Container{}
	for rows.Next() {
		var c model.Container
		if err := rows.Scan(&c.ID, &c.Name, &c.ShareURL, &c.ShareRef, &c.Type, &c.Title,
			&c.ItemCount, &c.Thumbnail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		containers = append(containers, c)
	}

	return containers, rows.Err()
}

func (r *ContainerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM containers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrContainerNotFound
	}
	return nil
}

// UpdateShareInfo stores what a public fetch learned about the share.
func (r *ContainerRepository) UpdateShareInfo(ctx context.Context, id string, info model.PublicShareInfo) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE containers SET type = $1, title = $2, item_count = $3, thumbnail = $4, updated_at = $5
		 WHERE id = $6`,
		info.Type, info.Title, info.ItemCount, info.Thumbnail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update container share info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrContainerNotFound
	}
	return nil
}

func (r *ContainerRepository) UpdateItemCount(ctx context.Context, id string, count int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE containers SET item_count = $1, updated_at = $2 WHERE id = $3`,
		count, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update container item count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrContainerNotFound
	}
	return nil
}
