package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/bagsakan/pkg/util"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestExpand_MatchesGlob(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "src/a.ts", "")
	writeFile(t, tmp, "src/nested/b.ts", "")
	writeFile(t, tmp, "src/c.js", "")
	writeFile(t, tmp, "other/d.ts", "")

	files, err := Expand(tmp, "src/**/*.ts")
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(tmp, "src/a.ts"), files[0])
	assert.Equal(t, filepath.Join(tmp, "src/nested/b.ts"), files[1])
}

func TestExpand_SortedOutput(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "src/z.ts", "")
	writeFile(t, tmp, "src/a.ts", "")
	writeFile(t, tmp, "src/m.ts", "")

	files, err := Expand(tmp, "src/**/*.ts")
	require.NoError(t, err)

	for i := 1; i < len(files); i++ {
		assert.LessOrEqual(t, files[i-1], files[i], "files should be sorted")
	}
}

func TestExpand_SkipsNodeModules(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "src/a.ts", "")
	writeFile(t, tmp, "node_modules/pkg/index.ts", "")

	files, err := Expand(tmp, "**/*.ts")
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(tmp, "src/a.ts"), files[0])
}

func TestExpand_InvalidPattern(t *testing.T) {
	_, err := Expand(t.TempDir(), "src/[broken")
	assert.Error(t, err)
}

func TestLoad_ReadsContents(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a.ts", "export interface A {}")

	cache := util.NewFileCache(nil)
	defer cache.Close()

	files, err := Load([]string{filepath.Join(tmp, "a.ts")}, cache)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "export interface A {}", string(files[0].Content))
}

func TestLoad_RejectsInvalidUTF8(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.ts")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644))

	cache := util.NewFileCache(nil)
	defer cache.Close()

	_, err := Load([]string{path}, cache)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}

func TestLoad_MissingFile(t *testing.T) {
	cache := util.NewFileCache(nil)
	defer cache.Close()

	_, err := Load([]string{filepath.Join(t.TempDir(), "gone.ts")}, cache)
	assert.Error(t, err)
}
