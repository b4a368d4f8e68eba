package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/bagsakan/pkg/discovery"
	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/parser/queries"
	"github.com/gnana997/bagsakan/pkg/symbols"
	"github.com/gnana997/bagsakan/pkg/typeir"
	"github.com/gnana997/bagsakan/pkg/util"
)

type loaderFunc struct {
	extractor *extractor.Extractor
	cache     *util.FileCache
}

func (l *loaderFunc) LoadFile(path, moduleID string) (*extractor.FileResult, error) {
	data, err := l.cache.Read(path)
	if err != nil {
		return nil, err
	}
	return l.extractor.ExtractFile(path, moduleID, data, false)
}

type env struct {
	root      string
	table     *symbols.Table
	resolver  *Resolver
	extractor *extractor.Extractor
	cache     *util.FileCache
	files     []*extractor.FileResult
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pm := parser.NewManager(nil)
	t.Cleanup(func() { pm.Close() })
	qm := queries.NewManager(pm, nil)
	t.Cleanup(func() { qm.Close() })
	cache := util.NewFileCache(nil)
	t.Cleanup(func() { cache.Close() })

	ex := extractor.NewExtractor(pm, qm, nil)
	loader := &loaderFunc{extractor: ex, cache: cache}
	table := symbols.NewTable(loader, symbols.NewNpmResolver(cache), nil)

	return &env{
		root:      t.TempDir(),
		table:     table,
		resolver:  New(table, nil),
		extractor: ex,
		cache:     cache,
	}
}

func (e *env) addFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	data, err := e.cache.Read(path)
	require.NoError(t, err)
	result, err := e.extractor.ExtractFile(path, path, data, true)
	require.NoError(t, err)
	e.files = append(e.files, result)
	e.table.Index([]*extractor.FileResult{result})
	return path
}

func (e *env) build(t *testing.T, pattern string) *Graph {
	t.Helper()
	p, err := discovery.Compile(pattern)
	require.NoError(t, err)
	refs := discovery.Discover(e.files, p)
	return e.resolver.Build(refs)
}

func TestBuild_SimpleRoot(t *testing.T) {
	e := newEnv(t)
	models := e.addFile(t, "src/models.ts", `export interface User { id: number }`)
	e.addFile(t, "src/app.ts", `
import { User } from './models';
validateUser(x);
`)

	graph := e.build(t, "validate%(type)")

	require.Empty(t, graph.Diagnostics)
	require.Contains(t, graph.Roots, "validateUser")
	assert.Equal(t, typeir.NewDeclID(models, "User"), graph.Roots["validateUser"])
	assert.Len(t, graph.Decls, 1)
}

func TestBuild_TransitiveClosure(t *testing.T) {
	e := newEnv(t)
	e.addFile(t, "src/models.ts", `
export interface Address { city: string }
export interface Customer { address: Address }
export interface Order { customer: Customer }
`)
	e.addFile(t, "src/app.ts", `
import { Order } from './models';
validateOrder(x);
`)

	graph := e.build(t, "validate%(type)")

	require.Empty(t, graph.Diagnostics)
	assert.Len(t, graph.Decls, 3, "Order, Customer, Address all reachable")

	// Every Ref inside reachable declarations is bound.
	for _, id := range graph.Order {
		assertNoUnboundRefs(t, graph.Decls[id].Type)
	}
}

func assertNoUnboundRefs(t *testing.T, typ *typeir.Type) {
	t.Helper()
	if typ == nil {
		return
	}
	switch typ.Kind {
	case typeir.KindRef:
		assert.NotEmpty(t, typ.Decl, "ref %q left unbound", typ.RefName)
	case typeir.KindArray:
		assertNoUnboundRefs(t, typ.Elem)
	case typeir.KindObject:
		for _, f := range typ.Fields {
			assertNoUnboundRefs(t, f.Type)
		}
	case typeir.KindUnion, typeir.KindIntersection, typeir.KindTuple:
		for _, el := range typ.Elems {
			assertNoUnboundRefs(t, el)
		}
	}
}

func TestBuild_RecursiveType(t *testing.T) {
	e := newEnv(t)
	models := e.addFile(t, "src/tree.ts", `
export interface Node { value: number; children: Node[] }
`)
	e.addFile(t, "src/app.ts", `
import { Node } from './tree';
validateNode(x);
`)

	graph := e.build(t, "validate%(type)")

	require.Empty(t, graph.Diagnostics)
	require.Len(t, graph.Decls, 1)

	id := typeir.NewDeclID(models, "Node")
	decl := graph.Decls[id]
	require.NotNil(t, decl)

	children := decl.Type.Fields[1].Type
	require.Equal(t, typeir.KindArray, children.Kind)
	require.Equal(t, typeir.KindRef, children.Elem.Kind)
	assert.Equal(t, id, children.Elem.Decl, "self-reference bound to own id")
}

func TestBuild_UnresolvedRootType(t *testing.T) {
	e := newEnv(t)
	e.addFile(t, "src/app.ts", `validateGhost(x);`)

	graph := e.build(t, "validate%(type)")

	assert.Empty(t, graph.Roots)
	require.Len(t, graph.Diagnostics, 1)
	assert.Equal(t, DiagUnresolved, graph.Diagnostics[0].Kind)
	assert.Equal(t, "validateGhost", graph.Diagnostics[0].Validator)
	assert.False(t, graph.Diagnostics[0].Kind.Fatal())
}

func TestBuild_UnresolvedInnerReferenceBecomesUnsupported(t *testing.T) {
	e := newEnv(t)
	models := e.addFile(t, "src/models.ts", `export interface Order { customer: Ghost }`)
	e.addFile(t, "src/app.ts", `
import { Order } from './models';
validateOrder(x);
`)

	graph := e.build(t, "validate%(type)")

	decl := graph.Decls[typeir.NewDeclID(models, "Order")]
	require.NotNil(t, decl)
	inner := decl.Type.Fields[0].Type
	assert.Equal(t, typeir.KindUnsupported, inner.Kind)
	assert.Contains(t, inner.Reason, "Ghost")
}

func TestBuild_ConflictAcrossCallSites(t *testing.T) {
	e := newEnv(t)
	e.addFile(t, "src/a_models.ts", `export interface User { id: number }`)
	e.addFile(t, "src/b_models.ts", `export interface User { name: string }`)
	e.addFile(t, "src/a.ts", `
import { User } from './a_models';
validateUser(x);
`)
	e.addFile(t, "src/b.ts", `
import { User } from './b_models';
validateUser(x);
`)

	graph := e.build(t, "validate%(type)")

	var conflict *Diagnostic
	for i := range graph.Diagnostics {
		if graph.Diagnostics[i].Kind == DiagConflict {
			conflict = &graph.Diagnostics[i]
		}
	}
	require.NotNil(t, conflict, "expected a conflict diagnostic")
	assert.True(t, conflict.Kind.Fatal())
	assert.NotContains(t, graph.Roots, "validateUser")
}

func TestBuild_SharedHelperAcrossRoots(t *testing.T) {
	e := newEnv(t)
	e.addFile(t, "src/models.ts", `
export interface Address { city: string }
export interface Customer { address: Address }
export interface Supplier { address: Address }
`)
	e.addFile(t, "src/app.ts", `
import { Customer, Supplier } from './models';
validateCustomer(x);
validateSupplier(y);
`)

	graph := e.build(t, "validate%(type)")

	require.Empty(t, graph.Diagnostics)
	assert.Len(t, graph.Roots, 2)
	assert.Len(t, graph.Decls, 3, "Address shared, indexed once")
}
