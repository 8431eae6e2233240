package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store, err := NewFileStore(fsys, "/var/backups/dinar")
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "daily_backup_20240501.zip")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, "daily_backup_20240501.zip", strings.NewReader("archive-bytes"), 13))

	exists, err = store.Exists(ctx, "daily_backup_20240501.zip")
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := store.Get(ctx, "daily_backup_20240501.zip")
	require.NoError(t, err)
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "archive-bytes", string(raw))

	require.NoError(t, fsys.Mkdir("/var/backups/dinar/nested", 0o750))
	require.NoError(t, afero.WriteFile(fsys, "/var/backups/dinar/half.zip.tmp", []byte("x"), 0o640))

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "daily_backup_20240501.zip", objects[0].Key)
	assert.Equal(t, int64(13), objects[0].Size)

	require.NoError(t, store.Delete(ctx, "daily_backup_20240501.zip"))
	assert.ErrorIs(t, store.Delete(ctx, "daily_backup_20240501.zip"), shared.ErrNotFound)

	_, err = store.Get(ctx, "daily_backup_20240501.zip")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.KindNotFound, de.Kind)
	assert.Equal(t, "daily_backup_20240501", de.Details["id"])
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(afero.NewMemMapFs(), "backups")
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.zip", `dir\file.zip`, "a/b.zip"} {
		assert.Error(t, store.Put(ctx, key, strings.NewReader(""), 0), key)
		_, err := store.Get(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore(afero.NewMemMapFs(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory is required")
}
