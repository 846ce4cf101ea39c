package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanName(t *testing.T) {
	name := CleanName("King Crab.jpg.jpg")
	assert.True(t, strings.HasSuffix(name, "_King_Crab.jpg"), name)

	assert.True(t, strings.HasSuffix(CleanName(".png"), "_image.png"))
	assert.True(t, IsImage("a.JPEG"))
	assert.False(t, IsImage("a.exe"))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/")
	require.NoError(t, err)

	obj, err := store.Save(ctx, "products", "salmon fillet.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Path, "products/"))
	assert.Equal(t, "http://localhost:8080/uploads/"+obj.Path, obj.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(obj.Path)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, obj.Path))
	require.NoError(t, store.Delete(ctx, obj.Path), "deleting twice is fine")
	assert.Error(t, store.Delete(ctx, "../outside.txt"))
}

func TestBackupRunOnceAndPrune(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "products", "a.jpg"), []byte("a"), 0o644))

	b := Backup{Source: src, Dest: dest, Retention: time.Hour, Hour: 2, Log: zap.NewNop()}
	dir, err := b.RunOnce(time.Date(2026, 1, 2, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "products", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	old := filepath.Join(dest, "old")
	require.NoError(t, os.MkdirAll(old, 0o755))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	b.Prune(time.Now())
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestNextRun(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, time.Date(2026, 3, 1, 2, 0, 0, 0, loc), nextRun(time.Date(2026, 3, 1, 1, 0, 0, 0, loc), 2))
	assert.Equal(t, time.Date(2026, 3, 2, 2, 0, 0, 0, loc), nextRun(time.Date(2026, 3, 1, 2, 0, 0, 0, loc), 2))
}
