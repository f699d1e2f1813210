// Package assets keeps a registry of uploaded objects in Postgres. The
// registry is an optional sidecar to the gateway: when no database is
// configured the upload flow runs without it.
package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAssetNotFound is returned when no asset matches the given key.
var ErrAssetNotFound = errors.New("asset not found")

// Repository defines the registry operations used by the gateway.
type Repository interface {
	Record(ctx context.Context, asset *Asset) error
	List(ctx context.Context, page, pageSize int) ([]Asset, int64, error)
	DeleteByKey(ctx context.Context, key string) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Postgres-backed asset repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// EnsureSchema creates the assets table if it doesn't exist. The registry is
// a single table, so plain DDL beats carrying a migration tool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id UUID PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			public_url TEXT NOT NULL,
			category TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size BIGINT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure assets schema: %w", err)
	}
	return nil
}

// Record inserts a new asset row.
func (r *pgRepository) Record(ctx context.Context, asset *Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}

	query := `
		INSERT INTO assets (id, key, public_url, category, content_type, size, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		asset.ID, asset.Key, asset.PublicURL, asset.Category,
		asset.ContentType, asset.Size, asset.Name,
	).Scan(&asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record asset: %w", err)
	}

	return nil
}

// List returns assets ordered by newest first, with pagination.
func (r *pgRepository) List(ctx context.Context, page, pageSize int) ([]Asset, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	query := `
		SELECT id, key, public_url, category, content_type, size, name, created_at
		FROM assets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0, pageSize)
	for rows.Next() {
		var a Asset
		if err := rows.Scan(
			&a.ID, &a.Key, &a.PublicURL, &a.Category,
			&a.ContentType, &a.Size, &a.Name, &a.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read assets: %w", err)
	}

	return assets, totalCount, nil
}

// DeleteByKey removes the asset row for a storage key.
func (r *pgRepository) DeleteByKey(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}
