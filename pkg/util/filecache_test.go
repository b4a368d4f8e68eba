package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_ReadAndCache(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export interface A {}"), 0644))

	fc := NewFileCache(nil)
	defer fc.Close()

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export interface A {}", string(data))
	assert.Equal(t, 1, fc.Size())

	// Second read hits the cache.
	again, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, 1, fc.Size())
}

func TestFileCache_EmptyFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "empty.ts")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	fc := NewFileCache(nil)
	defer fc.Close()

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileCache_MissingFile(t *testing.T) {
	fc := NewFileCache(nil)
	defer fc.Close()

	_, err := fc.Read(filepath.Join(t.TempDir(), "nope.ts"))
	assert.Error(t, err)
}

func TestFileCache_Invalidate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fc := NewFileCache(nil)
	defer fc.Close()

	data, err := fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	fc.Invalidate(path)

	data, err = fc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
