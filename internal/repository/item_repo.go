package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vault-gateway/internal/model"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// ReplaceForContainer swaps a container's stored items for a freshly fetched
// listing in one transaction, so readers never see a half-replaced set.
func (r *ItemRepository) ReplaceForContainer(ctx context.Context, containerID string, items []model.RemoteItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace items: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM remote_items WHERE container_id = $1`, containerID); err != nil {
		return fmt.Errorf("clear container items: %w", err)
	}

	for _, item := range items {
		thumbs, err := json.Marshal(item.Thumbs)
		if err != nil {
			return fmt.Errorf("marshal thumbs: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO remote_items (fs_id, container_id, name, path, is_folder, size, size_text, category, md5, dlink, thumbs)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.FSID, containerID, item.Name, item.Path, item.IsFolder,
			item.Size, item.SizeText, item.Category, item.MD5, item.DLink, thumbs)
		if err != nil {
			return fmt.Errorf("insert remote item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace items: %w", err)
	}
	return nil
}

func (r *ItemRepository) ListByContainer(ctx context.Context, containerID string) ([]model.RemoteItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT fs_id, name, path, is_folder, size, size_text, category, md5, dlink, thumbs
		 FROM remote_items WHERE container_id = $1 ORDER BY name ASC`, containerID)
	if err != nil {
		return nil, fmt.Errorf("list container items: %w", err)
	}
	defer rows.Close()

	items := []model.RemoteItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// GetByFileID resolves one item by its remote file id, newest record first
// when the same file appears in multiple containers.
func (r *ItemRepository) GetByFileID(ctx context.Context, fsID int64) (*model.RemoteItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT fs_id, name, path, is_folder, size, size_text, category, md5, dlink, thumbs
		 FROM remote_items WHERE fs_id = $1
		 ORDER BY created_at DESC LIMIT 1`, fsID)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func scanItem(row pgx.Row) (*model.RemoteItem, error) {
	var (
		item      model.RemoteItem
		thumbsRaw []byte
	)

	err := row.Scan(&item.FSID, &item.Name, &item.Path, &item.IsFolder,
		&item.Size, &item.SizeText, &item.Category, &item.MD5, &item.DLink, &thumbsRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan remote item: %w", err)
	}

	if len(thumbsRaw) > 0 {
		if err := json.Unmarshal(thumbsRaw, &item.Thumbs); err != nil {
			return nil, fmt.Errorf("unmarshal item thumbs: %w", err)
		}
	}

	return &item, nil
}
