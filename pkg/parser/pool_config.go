package parser

import (
	"github.com/gnana997/bagsakan/pkg/util"
)

// getDefaultPoolSize returns the default pool size based on CPU count.
//
// Delegates to util.GetOptimalPoolSize() so the parser pool and the
// extraction worker pool stay the same size; mismatched sizes make workers
// block waiting for parsers.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}
