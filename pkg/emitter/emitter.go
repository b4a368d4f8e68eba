// Package emitter renders the final validator file and writes it atomically.
package emitter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gnana997/bagsakan/pkg/synth"
)

// header marks the file as generated output.
const header = "// Generated by bagsakan. Do not edit; re-run the generator instead.\n"

// Options control emission.
type Options struct {
	// OutputPath is the absolute destination of the validator file.
	// Relative import specifiers are computed from its directory.
	OutputPath string
	// UseJsExtensions appends .js to relative specifiers for ESM projects.
	UseJsExtensions bool
}

// Emitter renders and writes the validator file.
type Emitter struct {
	logger *slog.Logger
}

// New creates an emitter. Logger may be nil.
func New(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger}
}

// Render produces the complete file content: header, one deduplicated
// `import type` line per module sorted by specifier, then helpers and
// exported validators, each group alphabetical by function name.
func (e *Emitter) Render(result *synth.Result, opts Options) string {
	var sb strings.Builder
	sb.WriteString(header)

	imports := e.renderImports(result, opts)
	if len(imports) > 0 {
		sb.WriteString("\n")
		for _, line := range imports {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	var helpers, exported []synth.Function
	for _, fn := range result.Functions {
		if fn.Exported {
			exported = append(exported, fn)
		} else {
			helpers = append(helpers, fn)
		}
	}
	sort.Slice(helpers, func(i, j int) bool { return helpers[i].Name < helpers[j].Name })
	sort.Slice(exported, func(i, j int) bool { return exported[i].Name < exported[j].Name })

	for _, fn := range append(helpers, exported...) {
		sb.WriteString("\n")
		sb.WriteString(fn.Source)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderImports builds the sorted `import type` lines.
func (e *Emitter) renderImports(result *synth.Result, opts Options) []string {
	outDir := filepath.Dir(opts.OutputPath)

	type importLine struct {
		specifier string
		names     []string
	}
	lines := make([]importLine, 0, len(result.Imports))

	for moduleID, names := range result.Imports {
		specifier := moduleSpecifier(moduleID, outDir, opts.UseJsExtensions)

		exported := make([]string, 0, len(names))
		for name := range names {
			exported = append(exported, name)
		}
		sort.Strings(exported)

		rendered := make([]string, len(exported))
		for i, name := range exported {
			if alias := names[name]; alias != name {
				rendered[i] = name + " as " + alias
			} else {
				rendered[i] = name
			}
		}
		lines = append(lines, importLine{specifier: specifier, names: rendered})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].specifier < lines[j].specifier })

	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fmt.Sprintf("import type { %s } from '%s';", strings.Join(line.names, ", "), line.specifier)
	}
	return out
}

// moduleSpecifier converts a module id into an import specifier relative to
// the output file. Bare package ids pass through untouched; file ids become
// relative paths with their TypeScript extension stripped.
func moduleSpecifier(moduleID, outDir string, useJsExtensions bool) string {
	if !filepath.IsAbs(moduleID) {
		return moduleID
	}

	rel, err := filepath.Rel(outDir, moduleID)
	if err != nil {
		rel = moduleID
	}
	rel = filepath.ToSlash(rel)

	for _, ext := range []string{".d.ts", ".tsx", ".ts"} {
		if strings.HasSuffix(rel, ext) {
			rel = strings.TrimSuffix(rel, ext)
			break
		}
	}

	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	if useJsExtensions {
		rel += ".js"
	}
	return rel
}

// Write stores content at opts.OutputPath atomically (temp file + rename in
// the destination directory). A byte-identical existing file is left
// untouched; the returned bool reports whether a write happened.
func (e *Emitter) Write(content string, opts Options) (bool, error) {
	if existing, err := os.ReadFile(opts.OutputPath); err == nil && string(existing) == content {
		e.logger.Debug("validator file unchanged", "path", opts.OutputPath)
		return false, nil
	}

	dir := filepath.Dir(opts.OutputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".bagsakan-*.ts")
	if err != nil {
		return false, fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("cannot write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("cannot close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, opts.OutputPath); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("cannot replace %s: %w", opts.OutputPath, err)
	}

	e.logger.Debug("wrote validator file", "path", opts.OutputPath, "bytes", len(content))
	return true, nil
}
