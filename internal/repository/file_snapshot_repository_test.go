package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/uf-rooms-api/pkg/errors"
	"github.com/noah-isme/uf-rooms-api/pkg/storage"
)

func newFileRepo(t *testing.T) (*FileSnapshotRepository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewFileSnapshotRepository(store), dir
}

func TestFileSnapshotRepositorySaveThenLatest(t *testing.T) {
	repo, dir := newFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "schedule", json.RawMessage(`{"term":"Fall 2024"}`)))
	require.FileExists(t, filepath.Join(dir, "schedule.json"))

	snapshot, err := repo.Latest(ctx, "schedule")
	require.NoError(t, err)
	assert.Equal(t, "schedule", snapshot.Key)
	assert.JSONEq(t, `{"term":"Fall 2024"}`, string(snapshot.Payload))
	assert.False(t, snapshot.FetchedAt.IsZero())

	require.NoError(t, repo.Save(ctx, "schedule", json.RawMessage(`{"term":"Spring 2025"}`)))
	snapshot, err = repo.Latest(ctx, "schedule")
	require.NoError(t, err)
	assert.JSONEq(t, `{"term":"Spring 2025"}`, string(snapshot.Payload))
}

func TestFileSnapshotRepositoryMissing(t *testing.T) {
	repo, _ := newFileRepo(t)

	_, err := repo.Latest(context.Background(), "room-metadata")

	assert.ErrorIs(t, err, appErrors.ErrSnapshotNotFound)
}

func TestFileSnapshotRepositoryInvalidJSON(t *testing.T) {
	repo, dir := newFileRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedule.json"), []byte("{broken"), 0o644))

	_, err := repo.Latest(context.Background(), "schedule")

	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrSnapshotNotFound)
	assert.Contains(t, err.Error(), "invalid json")
}
