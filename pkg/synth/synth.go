package synth

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/gnana997/bagsakan/pkg/resolver"
	"github.com/gnana997/bagsakan/pkg/typeir"
)

// Function is one rendered validator.
type Function struct {
	// Name is the emitted function name (validator name for roots,
	// a derived __validate name for helpers).
	Name string
	// Decl is the declaration the function validates.
	Decl typeir.DeclID
	// Exported marks user-named validators; helpers stay module-private.
	Exported bool
	// Source is the complete function text.
	Source string
}

// Result is the synthesizer output handed to the emitter.
type Result struct {
	// Functions holds every emitted validator, helpers included, in no
	// particular order; the emitter sorts.
	Functions []Function
	// Imports maps module-id → exported type name → local alias for the
	// emitted `import type` statements.
	Imports map[string]map[string]string
	// Diagnostics reports validators skipped over unsupported constructs.
	Diagnostics []resolver.Diagnostic
}

// Synthesizer lowers a resolved graph into validator functions.
type Synthesizer struct {
	graph  *resolver.Graph
	logger *slog.Logger

	// fnNames maps each emitted declaration to the function callable from
	// reference sites.
	fnNames map[typeir.DeclID]string
	// typeAliases maps each emitted declaration to the local type name used
	// in `data is T` annotations (aliased on cross-module collisions).
	typeAliases map[typeir.DeclID]string
	// unsupported caches the transitive supportability verdict per decl;
	// a non-empty string is the reason.
	unsupported map[typeir.DeclID]string
}

// New creates a synthesizer for a resolved graph. Logger may be nil.
func New(graph *resolver.Graph, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		graph:       graph,
		logger:      logger,
		fnNames:     make(map[typeir.DeclID]string),
		typeAliases: make(map[typeir.DeclID]string),
		unsupported: make(map[typeir.DeclID]string),
	}
}

// Synthesize produces the full set of validator functions: one exported
// function per user-named validator plus non-exported helpers for every
// declaration reached transitively. Validators whose type graph contains an
// unsupported construct are skipped with a diagnostic, never emitted as a
// silently-lying stub.
func (s *Synthesizer) Synthesize() *Result {
	result := &Result{Imports: make(map[string]map[string]string)}

	rootNames := make([]string, 0, len(s.graph.Roots))
	for name := range s.graph.Roots {
		rootNames = append(rootNames, name)
	}
	sort.Strings(rootNames)

	// Verdict pass: a validator is only emitted when nothing it reaches is
	// unsupported.
	s.computeSupport()
	supportedRoots := make([]string, 0, len(rootNames))
	for _, name := range rootNames {
		id := s.graph.Roots[name]
		if reason := s.unsupported[id]; reason != "" {
			decl := s.graph.Decls[id]
			diag := resolver.Diagnostic{
				Kind:      resolver.DiagUnsupportedType,
				Validator: name,
				Message:   reason,
			}
			if decl != nil {
				diag.File = decl.ModuleID
				diag.Pos = decl.Pos
			}
			result.Diagnostics = append(result.Diagnostics, diag)
			continue
		}
		supportedRoots = append(supportedRoots, name)
	}

	// The emit set is everything reachable from supported roots.
	emit := make(map[typeir.DeclID]bool)
	for _, name := range supportedRoots {
		s.collectReachable(s.graph.Roots[name], emit)
	}
	emitOrder := make([]typeir.DeclID, 0, len(emit))
	for _, id := range s.graph.Order {
		if emit[id] {
			emitOrder = append(emitOrder, id)
		}
	}

	s.assignNames(supportedRoots, emitOrder)

	for _, id := range emitOrder {
		decl := s.graph.Decls[id]
		alias := s.typeAliases[id]
		if result.Imports[decl.ModuleID] == nil {
			result.Imports[decl.ModuleID] = make(map[string]string)
		}
		result.Imports[decl.ModuleID][decl.Name] = alias
	}

	// Exported functions, one per validator name. Two validator names can
	// resolve to the same declaration; each gets its own exported function.
	rooted := make(map[typeir.DeclID]bool)
	for _, name := range supportedRoots {
		id := s.graph.Roots[name]
		rooted[id] = true
		result.Functions = append(result.Functions, Function{
			Name:     name,
			Decl:     id,
			Exported: true,
			Source:   s.renderFunction(name, id, true),
		})
	}

	// Helpers for everything reachable but not rooted.
	for _, id := range emitOrder {
		if rooted[id] {
			continue
		}
		name := s.fnNames[id]
		result.Functions = append(result.Functions, Function{
			Name:   name,
			Decl:   id,
			Source: s.renderFunction(name, id, false),
		})
	}

	s.logger.Debug("synthesized validators",
		"exported", len(supportedRoots),
		"helpers", len(result.Functions)-len(supportedRoots),
		"skipped", len(result.Diagnostics))

	return result
}

// computeSupport fills s.unsupported for every declaration: first each
// declaration's own verdict (without following references), then a fixpoint
// that propagates unsupportedness across reference edges. Recursion cycles
// alone are supported; only a genuine unsupported construct poisons the
// declarations that reach it.
func (s *Synthesizer) computeSupport() {
	refs := make(map[typeir.DeclID][]typeir.DeclID)

	for _, id := range s.graph.Order {
		decl := s.graph.Decls[id]
		s.unsupported[id] = ownReason(decl.Type)

		targets := make(map[typeir.DeclID]bool)
		s.collectTypeRefs(decl.Type, targets)
		delete(targets, id)
		ordered := make([]typeir.DeclID, 0, len(targets))
		for target := range targets {
			ordered = append(ordered, target)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
		refs[id] = ordered
	}

	for changed := true; changed; {
		changed = false
		for _, id := range s.graph.Order {
			if s.unsupported[id] != "" {
				continue
			}
			for _, target := range refs[id] {
				if reason := s.unsupported[target]; reason != "" {
					s.unsupported[id] = fmt.Sprintf("references %s: %s", target.Name(), reason)
					changed = true
					break
				}
			}
		}
	}
}

// ownReason returns the first unsupported construct inside a type without
// following references.
func ownReason(t *typeir.Type) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case typeir.KindUnsupported:
		return t.Reason
	case typeir.KindArray:
		return ownReason(t.Elem)
	case typeir.KindTuple:
		for _, e := range t.Elems {
			if reason := ownReason(e); reason != "" {
				return reason
			}
		}
		return ownReason(t.Rest)
	case typeir.KindObject:
		for _, f := range t.Fields {
			if reason := ownReason(f.Type); reason != "" {
				return reason
			}
		}
		return ""
	case typeir.KindRecord:
		if reason := recordKeyReason(t.Key); reason != "" {
			return reason
		}
		return ownReason(t.Value)
	case typeir.KindUnion, typeir.KindIntersection:
		for _, e := range t.Elems {
			if reason := ownReason(e); reason != "" {
				return reason
			}
		}
		return ""
	case typeir.KindRef:
		if t.Decl == "" {
			return fmt.Sprintf("unresolved type reference %q", t.RefName)
		}
		return ""
	default:
		return ""
	}
}

// recordKeyReason enforces the restricted Record key domain: string, string
// literals, and unions of string literals.
func recordKeyReason(key *typeir.Type) string {
	switch key.Kind {
	case typeir.KindPrimitive:
		if key.Prim == typeir.PrimString {
			return ""
		}
		return fmt.Sprintf("Record key type %s", key.Prim)
	case typeir.KindLiteralString:
		return ""
	case typeir.KindUnion:
		for _, e := range key.Elems {
			if e.Kind != typeir.KindLiteralString {
				return fmt.Sprintf("Record key union arm %s", e)
			}
		}
		return ""
	default:
		return fmt.Sprintf("Record key type %s", key)
	}
}

// collectReachable adds id and everything its type references to the set.
func (s *Synthesizer) collectReachable(id typeir.DeclID, set map[typeir.DeclID]bool) {
	if set[id] {
		return
	}
	set[id] = true
	decl := s.graph.Decls[id]
	if decl == nil {
		return
	}
	s.collectTypeRefs(decl.Type, set)
}

func (s *Synthesizer) collectTypeRefs(t *typeir.Type, set map[typeir.DeclID]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case typeir.KindRef:
		if t.Decl != "" {
			s.collectReachable(t.Decl, set)
		}
	case typeir.KindArray:
		s.collectTypeRefs(t.Elem, set)
	case typeir.KindTuple:
		for _, e := range t.Elems {
			s.collectTypeRefs(e, set)
		}
		s.collectTypeRefs(t.Rest, set)
	case typeir.KindObject:
		for _, f := range t.Fields {
			s.collectTypeRefs(f.Type, set)
		}
	case typeir.KindRecord:
		s.collectTypeRefs(t.Key, set)
		s.collectTypeRefs(t.Value, set)
	case typeir.KindUnion, typeir.KindIntersection:
		for _, e := range t.Elems {
			s.collectTypeRefs(e, set)
		}
	}
}

// assignNames picks function names and type aliases. Roots keep their
// validator names; helpers derive __validate<TypeName> with a numeric suffix
// on collisions, deterministic by declaration-id order.
func (s *Synthesizer) assignNames(rootNames []string, emitOrder []typeir.DeclID) {
	taken := make(map[string]bool)

	// Callable name per decl: the alphabetically first root wins for
	// declarations rooted more than once.
	for _, name := range rootNames {
		taken[name] = true
		id := s.graph.Roots[name]
		if _, ok := s.fnNames[id]; !ok {
			s.fnNames[id] = name
		}
	}

	for _, id := range emitOrder {
		if _, ok := s.fnNames[id]; ok {
			continue
		}
		base := "__validate" + id.Name()
		name := base
		for n := 2; taken[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		taken[name] = true
		s.fnNames[id] = name
	}

	// Type aliases: the first module to export a name keeps it bare; later
	// modules get a numeric suffix so one import list stays unambiguous.
	aliasTaken := make(map[string]bool)
	for _, id := range emitOrder {
		base := id.Name()
		alias := base
		for n := 2; aliasTaken[alias]; n++ {
			alias = base + strconv.Itoa(n)
		}
		aliasTaken[alias] = true
		s.typeAliases[id] = alias
	}
}

// renderLiteralString renders a TypeScript single-quoted string literal.
func renderLiteralString(v string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range v {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// renderLiteralNumber renders a number the way TypeScript writes it.
func renderLiteralNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
