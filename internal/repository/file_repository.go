package repository

import (
	"context"
	"database/sql"
	"time"
)

// FileRepo provides data access to the file_assets table owned by the file
// service.  Assets are addressed by their public URL; the cleanup consumer
// resolves URLs back to storage keys through this repository.
type FileRepo struct {
	db *sql.DB
}

// NewFileRepo returns a new FileRepo bound to the given database.
func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{db: db} }

// FileAssetRecord mirrors the schema of the file_assets table.
type FileAssetRecord struct {
	ID         uint64
	URL        string
	StorageKey string
	CreatedAt  time.Time
}

// Create registers an uploaded asset under its public URL.
func (r *FileRepo) Create(ctx context.Context, asset *FileAssetRecord) error {
	const q = `INSERT INTO file_assets (url, storage_key) VALUES (?, ?)`
	result, err := r.db.ExecContext(ctx, q, asset.URL, asset.StorageKey)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	asset.ID = uint64(id)
	return nil
}

// DeleteByURL removes the asset record for a public URL and returns its
// storage key so the caller can remove the underlying object.  A URL with
// no record reports found=false and no error: the cleanup consumer runs
// at-least-once, so a redelivered message routinely targets rows that the
// first delivery already removed.
func (r *FileRepo) DeleteByURL(ctx context.Context, url string) (storageKey string, found bool, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT storage_key FROM file_assets WHERE url = ?`, url).Scan(&storageKey)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM file_assets WHERE url = ?`, url); err != nil {
		return "", false, err
	}
	return storageKey, true, nil
}
