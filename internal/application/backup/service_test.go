package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = raw
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.objects[key]
	if !ok {
		return nil, shared.NewNotFoundError("backup", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStore) List(context.Context) ([]StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StoredObject, 0, len(m.objects))
	for k, v := range m.objects {
		out = append(out, StoredObject{Key: k, Size: int64(len(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return shared.NewNotFoundError("backup", key)
	}
	delete(m.objects, key)
	return nil
}

// jsonSnapshotter stores only the manifest; the rows are the tables map
type jsonSnapshotter struct {
	tables   map[string]int64
	restored []string
	dumpErr  error
}

func (j *jsonSnapshotter) Dump(_ context.Context, w io.Writer, m Manifest) (*Manifest, error) {
	if j.dumpErr != nil {
		return nil, j.dumpErr
	}
	m.Tables = j.tables
	return &m, json.NewEncoder(w).Encode(&m)
}

func (j *jsonSnapshotter) Inspect(r io.ReaderAt, size int64) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(io.NewSectionReader(r, 0, size)).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (j *jsonSnapshotter) Restore(_ context.Context, r io.ReaderAt, size int64) (*Manifest, error) {
	m, err := j.Inspect(r, size)
	if err != nil {
		return nil, err
	}
	j.restored = append(j.restored, m.CreatedAt.Format(time.RFC3339))
	return m, nil
}

func newTestService(now time.Time) (*Service, *memoryStore, *jsonSnapshotter) {
	store := newMemoryStore()
	snap := &jsonSnapshotter{tables: map[string]int64{"parties": 3, "products": 7}}
	svc := NewService(snap, store, "dinarbooks", nil).WithClock(testutil.FixedClock(now))
	return svc, store, snap
}

func TestService_Create(t *testing.T) {
	now := time.Date(2024, time.May, 4, 2, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(now)
	ctx := context.Background()

	info, err := svc.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "backup_20240504_020000", info.Name)
	assert.Equal(t, FormatVersion, info.Version)
	assert.Equal(t, "dinarbooks", info.Database)
	assert.Equal(t, int64(7), info.Tables["products"])
	assert.True(t, info.CreatedAt.Equal(now))
	assert.Positive(t, info.Size)
	assert.Contains(t, store.objects, "backup_20240504_020000.zip")

	t.Run("existing name conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, "backup_20240504_020000")
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("names are restricted", func(t *testing.T) {
		for _, name := range []string{"../etc/passwd", "has space", "_leading", strings.Repeat("a", 101)} {
			_, err := svc.Create(ctx, name)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de, name)
			assert.Equal(t, shared.KindValidation, de.Kind)
		}
	})

	t.Run("dump failure stores nothing", func(t *testing.T) {
		failing, store, snap := newTestService(now)
		snap.dumpErr = errors.New("connection reset")
		_, err := failing.Create(ctx, "broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Empty(t, store.objects)
	})
}

func TestService_ListSkipsForeignObjects(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2024, time.May, 1, 2, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(first)
	_, err := svc.Create(ctx, "older")
	require.NoError(t, err)
	svc.WithClock(testutil.FixedClock(first.Add(48 * time.Hour)))
	_, err = svc.Create(ctx, "newer")
	require.NoError(t, err)

	store.objects["notes.txt"] = []byte("hello")
	store.objects["garbage.zip"] = []byte("not an archive")

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "newer", backups[0].Name)
	assert.Equal(t, "older", backups[1].Name)
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc, store, snap := newTestService(now)
	_, err := svc.Create(ctx, "before_stocktake")
	require.NoError(t, err)

	info, err := svc.Restore(ctx, "before_stocktake")
	require.NoError(t, err)
	assert.Equal(t, "before_stocktake", info.Name)
	assert.Equal(t, []string{now.Format(time.RFC3339)}, snap.restored)

	t.Run("unknown backup", func(t *testing.T) {
		_, err := svc.Restore(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other database is refused", func(t *testing.T) {
		other := NewService(snap, store, "another_shop", nil)
		_, err := other.Restore(ctx, "before_stocktake")
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeBackupMismatch, de.Code)
		assert.Equal(t, shared.KindState, de.Kind)
		assert.Equal(t, "dinarbooks", de.Details["backup_database"])
	})

	t.Run("other format version is refused", func(t *testing.T) {
		raw, err := json.Marshal(Manifest{FormatVersion: "0", Database: "dinarbooks", CreatedAt: now})
		require.NoError(t, err)
		store.objects["legacy.zip"] = raw
		_, err = svc.Restore(ctx, "legacy")
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeBackupMismatch, de.Code)
	})

	assert.Len(t, snap.restored, 1)
}

func TestService_Prune(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(start)
	for day := 0; day < 10; day++ {
		at := start.AddDate(0, 0, day)
		svc.WithClock(testutil.FixedClock(at))
		_, err := svc.Create(ctx, "daily_backup_"+at.Format("20060102"))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "monthly_backup_202402")
	require.NoError(t, err)

	// now is 2024-03-10 02:00; a 7 day window keeps 03-03 onwards
	removed, err := svc.Prune(ctx, "daily_backup_", 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NotContains(t, store.objects, "daily_backup_20240301.zip")
	assert.NotContains(t, store.objects, "daily_backup_20240302.zip")
	assert.Contains(t, store.objects, "daily_backup_20240303.zip")
	assert.Contains(t, store.objects, "monthly_backup_202402.zip")
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(time.Now())
	_, err := svc.Create(ctx, "scratch")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "scratch"))
	assert.Empty(t, store.objects)
	assert.ErrorIs(t, svc.Delete(ctx, "scratch"), shared.ErrNotFound)

	_, err = svc.Open(ctx, "scratch")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
