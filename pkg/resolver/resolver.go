// Package resolver turns discovered validator references into a closed type
// graph: every reference is located in the symbol table and every named type
// reached from a root is bound to its declaration id.
package resolver

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/gnana997/bagsakan/pkg/discovery"
	"github.com/gnana997/bagsakan/pkg/extractor"
	"github.com/gnana997/bagsakan/pkg/symbols"
	"github.com/gnana997/bagsakan/pkg/typeir"
)

// Graph is the resolver's output: rooted validators plus every declaration
// transitively reachable from them, with all Ref nodes bound.
type Graph struct {
	// Roots maps validator name → the declaration it validates.
	Roots map[string]typeir.DeclID
	// Decls holds every reachable declaration by id.
	Decls map[typeir.DeclID]*extractor.Declaration
	// Order is the deterministic iteration order for Decls.
	Order []typeir.DeclID
	// Diagnostics collects resolution problems; fatal kinds abort the run.
	Diagnostics []Diagnostic
}

// intrinsicTypes are global object types without a usable structural shape.
// A reference that fails to resolve to one of these names gets an intrinsic
// diagnostic instead of an unresolved one.
var intrinsicTypes = map[string]bool{
	"Date":     true,
	"RegExp":   true,
	"Promise":  true,
	"Function": true,
	"Error":    true,
	"Map":      true,
	"Set":      true,
	"WeakMap":  true,
	"WeakSet":  true,
	"Symbol":   true,
}

// Resolver builds type graphs from a populated symbol table.
type Resolver struct {
	table  *symbols.Table
	logger *slog.Logger
}

// New creates a resolver over the given table. Logger may be nil.
func New(table *symbols.Table, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{table: table, logger: logger}
}

// Build resolves every reference and closes the graph over reachable
// declarations. References arrive sorted by validator name, so entries for
// the same validator are adjacent.
func (r *Resolver) Build(refs []discovery.Reference) *Graph {
	graph := &Graph{
		Roots: make(map[string]typeir.DeclID),
		Decls: make(map[typeir.DeclID]*extractor.Declaration),
	}

	for i := 0; i < len(refs); {
		j := i
		for j < len(refs) && refs[j].ValidatorName == refs[i].ValidatorName {
			j++
		}
		r.resolveRoot(refs[i:j], graph)
		i = j
	}

	// Bind references transitively from each root.
	bound := make(map[typeir.DeclID]bool)
	rootNames := make([]string, 0, len(graph.Roots))
	for name := range graph.Roots {
		rootNames = append(rootNames, name)
	}
	sort.Strings(rootNames)
	for _, name := range rootNames {
		r.bind(graph.Roots[name], graph, bound)
	}

	graph.Order = make([]typeir.DeclID, 0, len(graph.Decls))
	for id := range graph.Decls {
		graph.Order = append(graph.Order, id)
	}
	sort.Slice(graph.Order, func(i, j int) bool { return graph.Order[i] < graph.Order[j] })

	return graph
}

// resolveRoot resolves all references sharing one validator name and records
// the root, an Unresolved diagnostic, or a Conflict.
func (r *Resolver) resolveRoot(group []discovery.Reference, graph *Graph) {
	name := group[0].ValidatorName

	var resolved *extractor.Declaration
	var resolvedID typeir.DeclID

	for _, ref := range group {
		decl, rerr := r.table.Resolve(ref.ModuleID, ref.TypeName)
		if rerr != nil {
			kind := DiagUnresolved
			if rerr.Kind == symbols.ErrCircular {
				kind = DiagCircularImport
			}
			graph.Diagnostics = append(graph.Diagnostics, Diagnostic{
				Kind:      kind,
				File:      ref.ModuleID,
				Pos:       ref.Pos,
				Validator: name,
				Message:   rerr.Error(),
			})
			continue
		}

		id := decl.ID()
		if resolved == nil {
			resolved, resolvedID = decl, id
			continue
		}
		if id != resolvedID {
			graph.Diagnostics = append(graph.Diagnostics, Diagnostic{
				Kind:      DiagConflict,
				File:      ref.ModuleID,
				Pos:       ref.Pos,
				Validator: name,
				Message: fmt.Sprintf("resolves to both %s and %s across call sites",
					resolvedID, id),
			})
			return
		}
	}

	if resolved == nil {
		return
	}

	graph.Roots[name] = resolvedID
	r.logger.Debug("resolved validator root", "validator", name, "decl", string(resolvedID))
}

// bind resolves every Ref node inside a declaration's type and recurses into
// the referenced declarations. Visited declarations are memoized, which is
// what terminates on recursive types.
func (r *Resolver) bind(id typeir.DeclID, graph *Graph, bound map[typeir.DeclID]bool) {
	if bound[id] {
		return
	}
	bound[id] = true

	decl := r.table.Declaration(id)
	if decl == nil {
		return
	}
	graph.Decls[id] = decl

	r.bindType(decl.Type, decl.ModuleID, graph, bound)
}

func (r *Resolver) bindType(t *typeir.Type, moduleID string, graph *Graph, bound map[typeir.DeclID]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case typeir.KindRef:
		// Always re-resolve: cached file results can carry bindings from a
		// previous watch-mode run.
		decl, rerr := r.table.Resolve(moduleID, t.RefName)
		if rerr != nil {
			// Degrade to an unsupported node; the synthesizer skips every
			// validator that reaches it, with a pinpointed reason.
			reason := fmt.Sprintf("unresolved type reference %q", t.RefName)
			if intrinsicTypes[t.RefName] {
				// Date, RegExp, and friends have no structural check.
				reason = fmt.Sprintf("the intrinsic %s type", t.RefName)
			} else if rerr.Kind == symbols.ErrCircular {
				reason = fmt.Sprintf("circular import while resolving %q", t.RefName)
			}
			t.Kind = typeir.KindUnsupported
			t.Reason = reason
			return
		}
		t.Decl = decl.ID()
		r.bind(t.Decl, graph, bound)

	case typeir.KindArray:
		r.bindType(t.Elem, moduleID, graph, bound)
	case typeir.KindTuple:
		for _, e := range t.Elems {
			r.bindType(e, moduleID, graph, bound)
		}
		r.bindType(t.Rest, moduleID, graph, bound)
	case typeir.KindObject:
		for _, f := range t.Fields {
			r.bindType(f.Type, moduleID, graph, bound)
		}
	case typeir.KindRecord:
		r.bindType(t.Key, moduleID, graph, bound)
		r.bindType(t.Value, moduleID, graph, bound)
	case typeir.KindUnion, typeir.KindIntersection:
		for _, e := range t.Elems {
			r.bindType(e, moduleID, graph, bound)
		}
	}
}
