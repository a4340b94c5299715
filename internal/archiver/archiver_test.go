package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdubravic83/POtranslate/internal/local"
	"github.com/mdubravic83/POtranslate/internal/parquet"
	"github.com/mdubravic83/POtranslate/internal/store/memory"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

func seed(t *testing.T, s *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.SaveJob(context.Background(), &translation.Job{
			Summary: translation.Summary{
				ID:           uuid.NewString(),
				Filename:     "app.po",
				TargetLang:   "hr",
				TotalEntries: 2,
				CreatedAt:    time.Now().UTC().Add(time.Duration(i) * time.Second),
			},
			Entries: []translation.Outcome{
				{MsgID: "a", Translated: "A", Status: translation.StatusSuccess},
				{MsgID: "b", Translated: "b", Status: translation.StatusError},
			},
		}))
	}
}

func newArchiver(t *testing.T, s *memory.Store, dir string, id uuid.UUID) *Archiver {
	t.Helper()
	repo := local.New(dir, local.WithPrefix(id.String()))
	preserver, err := parquet.New(parquet.WithRepository(repo), parquet.WithBatchSizeNumRecords(4))
	require.NoError(t, err)

	return New(
		WithStore(s),
		WithPreserver(preserver),
		WithRepository(repo),
		WithSourceName("memory"),
	)
}

func TestSnapshot(t *testing.T) {
	s := memory.New()
	seed(t, s, 3)

	dir := t.TempDir()
	id := uuid.New()
	m, err := newArchiver(t, s, dir, id).Snapshot(context.Background(), id, 100)
	require.NoError(t, err)

	assert.True(t, m.Completed)
	assert.Equal(t, 3, m.NumSourceRecords)
	assert.Equal(t, 6, m.NumRecordsProcessed)
	assert.Equal(t, []string{"outcomes-00000.parquet", "outcomes-00001.parquet"}, m.Files)

	b, err := os.ReadFile(filepath.Join(dir, id.String(), ManifestKey))
	require.NoError(t, err)
	var onDisk Manifest
	require.NoError(t, json.Unmarshal(b, &onDisk))
	assert.Equal(t, id.String(), onDisk.ID)
	assert.Equal(t, "memory", onDisk.Source)
	assert.True(t, onDisk.Completed)

	for _, f := range m.Files {
		_, err := os.Stat(filepath.Join(dir, id.String(), f))
		assert.NoError(t, err)
	}
}

func TestSnapshotLimit(t *testing.T) {
	s := memory.New()
	seed(t, s, 3)

	id := uuid.New()
	m, err := newArchiver(t, s, t.TempDir(), id).Snapshot(context.Background(), id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumSourceRecords)
	assert.Equal(t, 2, m.NumRecordsProcessed)
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) GetJob(ctx context.Context, id string) (*translation.Job, error) {
	return nil, errors.New("connection reset")
}

func TestSnapshotPartial(t *testing.T) {
	s := memory.New()
	seed(t, s, 1)

	dir := t.TempDir()
	id := uuid.New()
	a := newArchiver(t, s, dir, id)
	a.store = brokenStore{s}

	m, err := a.Snapshot(context.Background(), id, 10)
	require.Error(t, err)
	assert.False(t, m.Completed)

	b, err := os.ReadFile(filepath.Join(dir, id.String(), ManifestKey))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"completed": false`)
}
