package util

import "runtime"

// GetOptimalPoolSize returns the pool size used for CPU-bound parallel work:
// min(max(NumCPU * 2, 4), 32).
//
// The 2x factor keeps goroutines runnable while others block inside CGO
// (tree-sitter parses hold the thread); the bounds keep weak machines usable
// and high-core machines from over-provisioning parsers.
//
// Used for both the parser pool and the extraction worker pool — the two
// MUST match so workers never block waiting for a parser.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// GetOptimalPoolSizeWithOverride returns override when > 0, otherwise the
// computed optimal size.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
