package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uf-rooms-api/internal/models"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	id BIGSERIAL PRIMARY KEY,
	key TEXT NOT NULL,
	payload JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS snapshots_key_fetched_at_idx ON snapshots (key, fetched_at DESC)`

// SnapshotRepository reads scraped snapshots stored in PostgreSQL.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository instantiates a snapshot repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// EnsureSchema creates the snapshots table when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure snapshots schema: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot stored under key.
func (r *SnapshotRepository) Latest(ctx context.Context, key string) (*models.Snapshot, error) {
	const query = `SELECT key, payload, fetched_at FROM snapshots WHERE key = $1 ORDER BY fetched_at DESC LIMIT 1`
	var snapshot models.Snapshot
	if err := r.db.GetContext(ctx, &snapshot, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return &snapshot, nil
}

// Save appends a snapshot for key. The payload is sent as text so the driver does not
// encode it as bytea.
func (r *SnapshotRepository) Save(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("save snapshot %s: invalid json", key)
	}
	const query = `INSERT INTO snapshots (key, payload, fetched_at) VALUES ($1, $2::jsonb, $3)`
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}
