package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/parser/queries"
	"github.com/gnana997/bagsakan/pkg/util"
)

// testLoader parses files on demand the way the generator does.
type testLoader struct {
	extractor *extractor.Extractor
	cache     *util.FileCache
}

func (l *testLoader) LoadFile(path, moduleID string) (*extractor.FileResult, error) {
	data, err := l.cache.Read(path)
	if err != nil {
		return nil, err
	}
	return l.extractor.ExtractFile(path, moduleID, data, false)
}

type fixture struct {
	root   string
	table  *Table
	loader *testLoader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pm := parser.NewManager(nil)
	t.Cleanup(func() { pm.Close() })
	qm := queries.NewManager(pm, nil)
	t.Cleanup(func() { qm.Close() })
	cache := util.NewFileCache(nil)
	t.Cleanup(func() { cache.Close() })

	loader := &testLoader{
		extractor: extractor.NewExtractor(pm, qm, nil),
		cache:     cache,
	}
	return &fixture{
		root:   t.TempDir(),
		table:  NewTable(loader, NewNpmResolver(cache), nil),
		loader: loader,
	}
}

// write creates a file under the fixture root and returns its absolute path.
func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// index extracts a project file and indexes it as a user source.
func (f *fixture) index(t *testing.T, path string) {
	t.Helper()
	data, err := f.loader.cache.Read(path)
	require.NoError(t, err)
	result, err := f.loader.extractor.ExtractFile(path, path, data, true)
	require.NoError(t, err)
	f.table.Index([]*extractor.FileResult{result})
}

func TestResolve_LocalDeclaration(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "src/models.ts", `export interface User { id: number }`)
	f.index(t, path)

	decl, rerr := f.table.Resolve(path, "User")
	require.Nil(t, rerr)
	assert.Equal(t, "User", decl.Name)
	assert.Equal(t, path, decl.ModuleID)
}

func TestResolve_RelativeImport(t *testing.T) {
	f := newFixture(t)
	models := f.write(t, "src/models.ts", `export interface User { id: number }`)
	app := f.write(t, "src/app.ts", `import { User } from './models';`)
	f.index(t, models)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "User")
	require.Nil(t, rerr)
	assert.Equal(t, models, decl.ModuleID)
}

func TestResolve_ImportAlias(t *testing.T) {
	f := newFixture(t)
	models := f.write(t, "src/models.ts", `export interface Order { id: string }`)
	app := f.write(t, "src/app.ts", `import { Order as O } from './models';`)
	f.index(t, models)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "O")
	require.Nil(t, rerr)
	assert.Equal(t, "Order", decl.Name)
}

func TestResolve_LazyLoadOfUnindexedFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/models.ts", `export interface User { id: number }`)
	app := f.write(t, "src/app.ts", `import { User } from './models';`)
	// Only app is indexed; models.ts must be loaded on demand.
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "User")
	require.Nil(t, rerr)
	assert.Equal(t, "User", decl.Name)
}

func TestResolve_NamedReExportChain(t *testing.T) {
	f := newFixture(t)
	inner := f.write(t, "src/inner.ts", `export interface Deep { x: number }`)
	f.write(t, "src/middle.ts", `export { Deep } from './inner';`)
	app := f.write(t, "src/app.ts", `import { Deep } from './middle';`)
	f.index(t, inner)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "Deep")
	require.Nil(t, rerr)
	assert.Equal(t, inner, decl.ModuleID)
}

func TestResolve_StarReExport(t *testing.T) {
	f := newFixture(t)
	inner := f.write(t, "src/inner.ts", `export interface Deep { x: number }`)
	f.write(t, "src/index.ts", `export * from './inner';`)
	app := f.write(t, "src/app.ts", `import { Deep } from './index';`)
	f.index(t, inner)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "Deep")
	require.Nil(t, rerr)
	assert.Equal(t, "Deep", decl.Name)
}

func TestResolve_ExportAliasList(t *testing.T) {
	f := newFixture(t)
	lib := f.write(t, "src/lib.ts", `
interface Hidden { x: number }
export { Hidden as Public };
`)
	app := f.write(t, "src/app.ts", `import { Public } from './lib';`)
	f.index(t, lib)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "Public")
	require.Nil(t, rerr)
	assert.Equal(t, "Hidden", decl.Name)
}

func TestResolve_Unresolved(t *testing.T) {
	f := newFixture(t)
	app := f.write(t, "src/app.ts", `const x = 1;`)
	f.index(t, app)

	_, rerr := f.table.Resolve(app, "Missing")
	require.NotNil(t, rerr)
	assert.Equal(t, ErrUnresolved, rerr.Kind)
}

func TestResolve_UnresolvedImportSpecifier(t *testing.T) {
	f := newFixture(t)
	app := f.write(t, "src/app.ts", `import { Gone } from './nowhere';`)
	f.index(t, app)

	_, rerr := f.table.Resolve(app, "Gone")
	require.NotNil(t, rerr)
	assert.Equal(t, ErrUnresolved, rerr.Kind)
	assert.Equal(t, "./nowhere", rerr.Specifier)
}

func TestResolve_CircularReExport(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "src/a.ts", `export { Loop } from './b';`)
	f.write(t, "src/b.ts", `export { Loop } from './a';`)
	app := f.write(t, "src/app.ts", `import { Loop } from './a';`)
	f.index(t, a)
	f.index(t, app)

	_, rerr := f.table.Resolve(app, "Loop")
	require.NotNil(t, rerr)
	assert.Equal(t, ErrCircular, rerr.Kind)
}

func TestResolve_PackageExportsSubpath(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/pkg/package.json", `{
  "name": "pkg",
  "exports": {
    "./entities": { "types": "./dist/entities.d.ts" }
  }
}`)
	f.write(t, "node_modules/pkg/dist/entities.d.ts", `export interface R { id: string }`)
	app := f.write(t, "src/app.ts", `import { R } from 'pkg/entities';`)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "R")
	require.Nil(t, rerr)
	assert.Equal(t, "R", decl.Name)
	assert.Equal(t, "pkg/entities", decl.ModuleID, "bare specifier stays the module id")
}

func TestResolve_PackageTypesField(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/lib/package.json", `{"name": "lib", "types": "./index.d.ts"}`)
	f.write(t, "node_modules/lib/index.d.ts", `export interface Thing { id: number }`)
	app := f.write(t, "src/app.ts", `import { Thing } from 'lib';`)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "Thing")
	require.Nil(t, rerr)
	assert.Equal(t, "Thing", decl.Name)
}

func TestResolve_PackageMainWithDeclarationSwap(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/old/package.json", `{"name": "old", "main": "./lib/main.js"}`)
	f.write(t, "node_modules/old/lib/main.d.ts", `export interface Legacy { v: number }`)
	app := f.write(t, "src/app.ts", `import { Legacy } from 'old';`)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "Legacy")
	require.Nil(t, rerr)
	assert.Equal(t, "Legacy", decl.Name)
}

func TestResolve_PackageSubpathProbing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/plain/package.json", `{"name": "plain"}`)
	f.write(t, "node_modules/plain/models.d.ts", `export interface M { id: string }`)
	app := f.write(t, "src/app.ts", `import { M } from 'plain/models';`)
	f.index(t, app)

	decl, rerr := f.table.Resolve(app, "M")
	require.Nil(t, rerr)
	assert.Equal(t, "M", decl.Name)
}

func TestNpmResolver_ScopedPackage(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/@scope/pkg/package.json", `{"name": "@scope/pkg", "types": "./index.d.ts"}`)
	f.write(t, "node_modules/@scope/pkg/index.d.ts", `export interface S { id: string }`)

	resolver := NewNpmResolver(f.loader.cache)
	path, err := resolver.Resolve(filepath.Join(f.root, "src"), "@scope/pkg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "node_modules/@scope/pkg/index.d.ts"), path)
}

func TestNpmResolver_ExportsStarPattern(t *testing.T) {
	f := newFixture(t)
	f.write(t, "node_modules/wild/package.json", `{
  "name": "wild",
  "exports": { "./*": "./dist/*.d.ts" }
}`)
	f.write(t, "node_modules/wild/dist/users.d.ts", `export interface U { id: string }`)

	resolver := NewNpmResolver(f.loader.cache)
	path, err := resolver.Resolve(filepath.Join(f.root, "src"), "wild/users")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "node_modules/wild/dist/users.d.ts"), path)
}
