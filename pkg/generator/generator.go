// Package generator wires the whole pipeline: source set, extraction, symbol
// table, discovery, resolution, synthesis, emission.
package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/bagsakan/pkg/config"
	"github.com/gnana997/bagsakan/pkg/discovery"
	"github.com/gnana997/bagsakan/pkg/emitter"
	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/parser/queries"
	"github.com/gnana997/bagsakan/pkg/resolver"
	"github.com/gnana997/bagsakan/pkg/source"
	"github.com/gnana997/bagsakan/pkg/symbols"
	"github.com/gnana997/bagsakan/pkg/synth"
	"github.com/gnana997/bagsakan/pkg/util"
)

// ErrFatalDiagnostics is returned when collected diagnostics (parse errors,
// conflicts) block emission. The report still carries every diagnostic for
// printing.
var ErrFatalDiagnostics = errors.New("fatal diagnostics reported")

// resultCacheSize bounds the per-file extraction cache. Entries are keyed by
// path and modification time, so watch-mode re-runs only re-parse files that
// actually changed.
const resultCacheSize = 4096

// Report summarizes one generator run.
type Report struct {
	// OutputPath is the validator file destination.
	OutputPath string
	// Written is false when the output was already up to date.
	Written bool
	// FilesScanned counts user sources processed.
	FilesScanned int
	// Validators counts exported functions emitted.
	Validators int
	// Helpers counts non-exported helper functions emitted.
	Helpers int
	// Diagnostics holds every problem found, fatal or not.
	Diagnostics []resolver.Diagnostic
}

// Generator runs the validator pipeline for one project.
type Generator struct {
	cfg    config.Config
	logger *slog.Logger

	parserManager *parser.Manager
	queryManager  *queries.Manager
	extractor     *extractor.Extractor
	cache         *util.FileCache
	results       *lru.Cache[string, *extractor.FileResult]
	emitter       *emitter.Emitter
}

// New creates a generator. Close must be called to release parser resources.
func New(cfg config.Config, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pm := parser.NewManager(logger)
	qm := queries.NewManager(pm, logger)
	cache := util.NewFileCache(logger)

	results, err := lru.New[string, *extractor.FileResult](resultCacheSize)
	if err != nil {
		pm.Close()
		cache.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	return &Generator{
		cfg:           cfg,
		logger:        logger,
		parserManager: pm,
		queryManager:  qm,
		extractor:     extractor.NewExtractor(pm, qm, logger),
		cache:         cache,
		results:       results,
		emitter:       emitter.New(logger),
	}, nil
}

// Close releases parsers, compiled queries, and file mappings.
func (g *Generator) Close() error {
	err := g.queryManager.Close()
	if perr := g.parserManager.Close(); err == nil {
		err = perr
	}
	if cerr := g.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadFile implements symbols.FileLoader: it parses declaration files pulled
// in on demand during resolution (relative imports outside the glob, package
// entry points).
func (g *Generator) LoadFile(path, moduleID string) (*extractor.FileResult, error) {
	return g.extractFile(path, moduleID, false)
}

// extractFile extracts one file through the mtime-keyed result cache.
func (g *Generator) extractFile(path, moduleID string, userSource bool) (*extractor.FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	key := fmt.Sprintf("%s@%d#%d@%t", path, info.ModTime().UnixNano(), info.Size(), userSource)

	if cached, ok := g.results.Get(key); ok {
		return cached, nil
	}

	data, err := source.ReadFile(path, g.cache)
	if err != nil {
		return nil, err
	}
	result, err := g.extractor.ExtractFile(path, moduleID, data, userSource)
	if err != nil {
		return nil, err
	}
	g.results.Add(key, result)
	return result, nil
}

// Run executes the pipeline once and writes the validator file. Fatal
// problems (config, read, write, parse, conflict) return an error;
// per-validator problems only show up as diagnostics in the report.
func (g *Generator) Run() (*Report, error) {
	report, content, err := g.build()
	if err != nil {
		return report, err
	}

	written, err := g.emitter.Write(content, g.emitOptions())
	if err != nil {
		return report, err
	}
	report.Written = written

	g.logger.Info("generation complete",
		"files", report.FilesScanned,
		"validators", report.Validators,
		"helpers", report.Helpers,
		"written", report.Written,
		"diagnostics", len(report.Diagnostics))

	return report, nil
}

// Check runs the pipeline without writing and reports whether the committed
// validator file already matches what would be generated. This is the CI
// entry point.
func (g *Generator) Check() (*Report, bool, error) {
	report, content, err := g.build()
	if err != nil {
		return report, false, err
	}

	existing, err := os.ReadFile(report.OutputPath)
	if err != nil {
		return report, false, nil
	}
	return report, string(existing) == content, nil
}

func (g *Generator) emitOptions() emitter.Options {
	return emitter.Options{
		OutputPath:      g.cfg.ValidatorFilePath(),
		UseJsExtensions: g.cfg.UseJsExtensions,
	}
}

// build runs C1 through C6 and renders the file content.
func (g *Generator) build() (*Report, string, error) {
	report := &Report{OutputPath: g.cfg.ValidatorFilePath()}

	// C1: deterministic source set.
	paths, err := source.Expand(g.cfg.RootDir, g.cfg.SourceFiles)
	if err != nil {
		return report, "", err
	}
	report.FilesScanned = len(paths)

	// C2: parse + extract, parallel above a small threshold.
	files, err := g.extractAll(paths)
	if err != nil {
		return report, "", err
	}

	// Parse errors are collected per file and block emission at the end.
	for _, file := range files {
		if file.ParseErrored {
			report.Diagnostics = append(report.Diagnostics, resolver.Diagnostic{
				Kind:    resolver.DiagParseError,
				File:    file.Path,
				Message: "source file contains syntax errors",
			})
		}
	}

	// C3: symbol table over everything extracted.
	table := symbols.NewTable(g, symbols.NewNpmResolver(g.cache), g.logger)
	table.Index(files)

	// C4: validator discovery.
	pattern, err := discovery.Compile(g.cfg.ValidatorPattern)
	if err != nil {
		return report, "", err
	}
	refs := discovery.Discover(files, pattern)
	g.logger.Debug("discovered validator references", "count", len(refs))

	// C5: type graph.
	graph := resolver.New(table, g.logger).Build(refs)
	report.Diagnostics = append(report.Diagnostics, graph.Diagnostics...)

	// C6: synthesis.
	result := synth.New(graph, g.logger).Synthesize()
	report.Diagnostics = append(report.Diagnostics, result.Diagnostics...)

	for _, fn := range result.Functions {
		if fn.Exported {
			report.Validators++
		} else {
			report.Helpers++
		}
	}

	// Refuse to emit over fatal diagnostics; the existing file stays
	// untouched.
	for _, diag := range report.Diagnostics {
		if diag.Kind.Fatal() {
			return report, "", ErrFatalDiagnostics
		}
	}

	// C7: render (the caller decides whether to write or compare).
	content := g.emitter.Render(result, g.emitOptions())
	return report, content, nil
}
