package generator

import (
	"sync"

	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/util"
)

// parallelThreshold is the file count below which extraction stays serial;
// spinning up workers costs more than it saves on tiny projects.
const parallelThreshold = 8

// extractAll extracts every source path in order. At or above the threshold the
// work fans out over a worker pool sized to match the parser pool, so
// workers never block waiting for a parser. Results keep input order, which
// keeps the rest of the pipeline deterministic.
func (g *Generator) extractAll(paths []string) ([]*extractor.FileResult, error) {
	if len(paths) < parallelThreshold {
		results := make([]*extractor.FileResult, 0, len(paths))
		for _, path := range paths {
			result, err := g.extractFile(path, path, true)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		return results, nil
	}

	type job struct {
		index int
		path  string
	}

	workers := util.GetOptimalPoolSize()
	jobs := make(chan job, workers)
	results := make([]*extractor.FileResult, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index], errs[j.index] = g.extractFile(j.path, j.path, true)
			}
		}()
	}

	for i, path := range paths {
		jobs <- job{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
