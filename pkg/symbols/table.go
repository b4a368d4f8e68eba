// Package symbols indexes every declaration by (module-id, name) and resolves
// names across files and package boundaries.
//
// Module ids are absolute file paths for project files and bare specifiers
// for npm packages. Resolution follows import bindings, export aliases, and
// re-export chains; package files are parsed lazily the first time an import
// reaches into them.
package symbols

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/typeir"
)

// FileLoader parses a file on demand. The symbol table uses it to pull in
// declaration files that were not part of the user glob (relative imports
// outside the glob, package entry points).
type FileLoader interface {
	LoadFile(path, moduleID string) (*extractor.FileResult, error)
}

// ErrKind classifies resolution failures.
type ErrKind int

const (
	// ErrUnresolved means the name could not be located.
	ErrUnresolved ErrKind = iota
	// ErrCircular means an alias/re-export chain revisited itself.
	ErrCircular
)

// ResolveError describes why a name failed to resolve.
type ResolveError struct {
	Kind      ErrKind
	Name      string
	Specifier string
}

func (e *ResolveError) Error() string {
	switch e.Kind {
	case ErrCircular:
		return fmt.Sprintf("circular import while resolving %q", e.Name)
	default:
		if e.Specifier != "" {
			return fmt.Sprintf("cannot resolve %q from %q", e.Name, e.Specifier)
		}
		return fmt.Sprintf("cannot resolve %q", e.Name)
	}
}

// importBinding records one local name bound by an import statement.
type importBinding struct {
	source   string
	exported string
}

// moduleIndex is the per-module view the resolution walk operates on.
type moduleIndex struct {
	file          *extractor.FileResult
	byName        map[string]*extractor.Declaration
	exportAliases map[string]string
	imports       map[string]importBinding
	reExports     []extractor.ReExport
}

// Table is the symbol table.
type Table struct {
	modules map[string]*moduleIndex
	loader  FileLoader
	npm     *NpmResolver
	logger  *slog.Logger
}

// NewTable creates an empty table. The loader may be nil, in which case only
// pre-indexed files participate in resolution.
func NewTable(loader FileLoader, npm *NpmResolver, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		modules: make(map[string]*moduleIndex),
		loader:  loader,
		npm:     npm,
		logger:  logger,
	}
}

// Index adds extracted files to the table. Indexing the same module twice
// replaces the previous entry.
func (t *Table) Index(files []*extractor.FileResult) {
	for _, file := range files {
		t.indexFile(file)
	}
}

func (t *Table) indexFile(file *extractor.FileResult) *moduleIndex {
	idx := &moduleIndex{
		file:          file,
		byName:        make(map[string]*extractor.Declaration),
		exportAliases: make(map[string]string),
		imports:       make(map[string]importBinding),
		reExports:     file.ReExports,
	}
	for i := range file.Declarations {
		decl := &file.Declarations[i]
		idx.byName[decl.Name] = decl
	}
	for _, alias := range file.ExportAliases {
		idx.exportAliases[alias.Exported] = alias.Local
	}
	for _, imp := range file.Imports {
		for local, exported := range imp.Names {
			idx.imports[local] = importBinding{source: imp.Source, exported: exported}
		}
	}
	t.modules[file.ModuleID] = idx
	return idx
}

// Declaration returns the declaration for an id, or nil.
func (t *Table) Declaration(id typeir.DeclID) *extractor.Declaration {
	idx, ok := t.modules[id.ModuleID()]
	if !ok {
		return nil
	}
	return idx.byName[id.Name()]
}

// Resolve locates the declaration a bare name refers to inside moduleID's
// scope: a top-level declaration in the same file, or a name bound by an
// import statement, following re-export chains to the declaring module.
func (t *Table) Resolve(moduleID, name string) (*extractor.Declaration, *ResolveError) {
	visited := make(map[string]bool)
	return t.resolveLocal(moduleID, name, visited)
}

func (t *Table) resolveLocal(moduleID, name string, visited map[string]bool) (*extractor.Declaration, *ResolveError) {
	key := moduleID + "#" + name
	if visited[key] {
		return nil, &ResolveError{Kind: ErrCircular, Name: name}
	}
	visited[key] = true

	idx, ok := t.modules[moduleID]
	if !ok {
		return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: moduleID}
	}

	if decl, ok := idx.byName[name]; ok {
		return decl, nil
	}

	if binding, ok := idx.imports[name]; ok {
		if binding.exported == "default" || binding.exported == "*" {
			// Default and namespace bindings never name a type declaration
			// in the supported subset.
			return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: binding.source}
		}
		target, err := t.resolveModule(idx.file, binding.source)
		if err != nil {
			return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: binding.source}
		}
		return t.resolveExported(target, binding.exported, visited)
	}

	return nil, &ResolveError{Kind: ErrUnresolved, Name: name}
}

// resolveExported locates a name on moduleID's exported surface.
func (t *Table) resolveExported(moduleID, name string, visited map[string]bool) (*extractor.Declaration, *ResolveError) {
	key := moduleID + ">" + name
	if visited[key] {
		return nil, &ResolveError{Kind: ErrCircular, Name: name}
	}
	visited[key] = true

	idx, ok := t.modules[moduleID]
	if !ok {
		return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: moduleID}
	}

	if decl, ok := idx.byName[name]; ok && decl.Exported {
		return decl, nil
	}

	if local, ok := idx.exportAliases[name]; ok {
		return t.resolveLocal(moduleID, local, visited)
	}

	for _, re := range idx.reExports {
		if re.Star {
			continue
		}
		sourceName, ok := re.Names[name]
		if !ok {
			continue
		}
		target, err := t.resolveModule(idx.file, re.Source)
		if err != nil {
			return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: re.Source}
		}
		return t.resolveExported(target, sourceName, visited)
	}

	// Star re-exports are probed in order; the first module exporting the
	// name wins.
	for _, re := range idx.reExports {
		if !re.Star {
			continue
		}
		target, err := t.resolveModule(idx.file, re.Source)
		if err != nil {
			continue
		}
		if decl, rerr := t.resolveExported(target, name, visited); rerr == nil {
			return decl, nil
		} else if rerr.Kind == ErrCircular {
			return nil, rerr
		}
	}

	return nil, &ResolveError{Kind: ErrUnresolved, Name: name, Specifier: moduleID}
}

// resolveModule maps an import specifier appearing in `from` to a module id,
// loading and indexing the target file if it has not been seen yet.
func (t *Table) resolveModule(from *extractor.FileResult, specifier string) (string, error) {
	if isRelative(specifier) {
		path, err := resolveRelative(filepath.Dir(from.Path), specifier)
		if err != nil {
			return "", err
		}
		if _, ok := t.modules[path]; !ok {
			if err := t.loadModule(path, path); err != nil {
				return "", err
			}
		}
		return path, nil
	}

	// Bare specifier: the module id is the specifier itself.
	if _, ok := t.modules[specifier]; ok {
		return specifier, nil
	}
	if t.npm == nil {
		return "", fmt.Errorf("no package resolver for %q", specifier)
	}
	path, err := t.npm.Resolve(filepath.Dir(from.Path), specifier)
	if err != nil {
		return "", err
	}
	if err := t.loadModule(path, specifier); err != nil {
		return "", err
	}
	return specifier, nil
}

func (t *Table) loadModule(path, moduleID string) error {
	if t.loader == nil {
		return fmt.Errorf("no loader for module %q", moduleID)
	}
	file, err := t.loader.LoadFile(path, moduleID)
	if err != nil {
		return err
	}
	t.indexFile(file)
	t.logger.Debug("indexed module on demand", "module", moduleID, "path", path)
	return nil
}
