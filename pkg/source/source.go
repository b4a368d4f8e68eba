// Package source builds the deterministic set of user source files from the
// configured glob and reads their contents.
package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/bagsakan/pkg/util"
)

// File is one user source file with its contents loaded.
type File struct {
	// Path is the absolute path on disk.
	Path string
	// Content is the UTF-8 file body. Aliases the file cache mapping.
	Content []byte
}

// Expand resolves the glob pattern against rootDir and returns a
// lexicographically sorted list of absolute paths. Sorting here is what makes
// the rest of the pipeline deterministic regardless of filesystem iteration
// order.
func Expand(rootDir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid sourceFiles pattern: %s", pattern)
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue walking on errors.
		}
		if d.IsDir() {
			// Never descend into node_modules; package files are read on
			// demand during import resolution, not globbed.
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads one source file through the cache, enforcing UTF-8.
func ReadFile(path string, cache *util.FileCache) ([]byte, error) {
	data, err := cache.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read source file %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("source file %s is not valid UTF-8", path)
	}
	return data, nil
}

// Load reads every path through the file cache, enforcing UTF-8.
func Load(paths []string, cache *util.FileCache) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		data, err := ReadFile(path, cache)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: path, Content: data})
	}
	return files, nil
}
