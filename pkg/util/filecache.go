package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides read-only file access backed by memory-mapped files.
//
// The generator reads the same files repeatedly across watch-mode runs
// (sources, package.json manifests, .d.ts package entry points); mapping them
// once and slicing is much cheaper than re-reading. Only accessed pages are
// loaded into RAM, and mmap failures fall back to os.ReadFile transparently.
//
// Thread-safe: reads take an RLock, loads take the write lock with a
// double-check.
type FileCache struct {
	mu       sync.RWMutex
	mapped   map[string]mmap.MMap
	fallback map[string][]byte
	files    []*os.File
	logger   *slog.Logger
}

// NewFileCache creates an empty cache. Close must be called to unmap.
func NewFileCache(logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCache{
		mapped:   make(map[string]mmap.MMap),
		fallback: make(map[string][]byte),
		logger:   logger,
	}
}

// Read returns the file's contents. The returned slice aliases the mapping
// and must not be modified or retained past Close.
func (fc *FileCache) Read(path string) ([]byte, error) {
	fc.mu.RLock()
	if data, ok := fc.mapped[path]; ok {
		fc.mu.RUnlock()
		return data, nil
	}
	if data, ok := fc.fallback[path]; ok {
		fc.mu.RUnlock()
		return data, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if data, ok := fc.mapped[path]; ok {
		return data, nil
	}
	if data, ok := fc.fallback[path]; ok {
		return data, nil
	}

	return fc.load(path)
}

// Invalidate drops a cached entry so the next Read sees fresh contents.
// Called by the watcher when a file changes on disk.
func (fc *FileCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if data, ok := fc.mapped[path]; ok {
		if err := data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", path, "error", err)
		}
		delete(fc.mapped, path)
	}
	delete(fc.fallback, path)
}

// load maps the file, falling back to a plain read. Caller holds the write lock.
func (fc *FileCache) load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	// Zero-byte files cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		fc.fallback[path] = []byte{}
		return fc.fallback[path], nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		fc.logger.Warn("mmap failed, using fallback read", "path", path, "error", err)
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, readErr)
		}
		fc.fallback[path] = raw
		return raw, nil
	}

	fc.mapped[path] = data
	fc.files = append(fc.files, file)
	return data, nil
}

// Size returns the number of cached files.
func (fc *FileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.mapped) + len(fc.fallback)
}

// Close unmaps every file and releases descriptors.
func (fc *FileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, data := range fc.mapped {
		if err := data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unmap %q: %w", path, err)
		}
	}
	for _, file := range fc.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	fc.mapped = make(map[string]mmap.MMap)
	fc.fallback = make(map[string][]byte)
	fc.files = nil
	return firstErr
}
