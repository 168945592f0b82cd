package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/noah-isme/uf-rooms-api/internal/models"
	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/storage"
)

// FileSnapshotRepository reads snapshots stored as <key>.json files.
type FileSnapshotRepository struct {
	storage *storage.LocalStorage
}

// NewFileSnapshotRepository wraps local storage as a snapshot source.
func NewFileSnapshotRepository(store *storage.LocalStorage) *FileSnapshotRepository {
	return &FileSnapshotRepository{storage: store}
}

// Latest returns the snapshot file for key. The file modification time is used as fetch time.
func (r *FileSnapshotRepository) Latest(_ context.Context, key string) (*models.Snapshot, error) {
	data, modTime, err := r.storage.Read(key + ".json")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("load snapshot %s: invalid json", key)
	}
	return &models.Snapshot{Key: key, Payload: data, FetchedAt: modTime}, nil
}

// Save replaces the snapshot file for key.
func (r *FileSnapshotRepository) Save(_ context.Context, key string, payload json.RawMessage) error {
	if _, err := r.storage.Save(key+".json", payload); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}
