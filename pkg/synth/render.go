// Rendering of predicate trees as TypeScript source.
//
// Rooted object types render in statement form (guard, cast, per-field early
// returns) because that is what a human would write; every nested position
// renders as a boolean expression. `&&` binds tighter than `||`, so only Any
// nodes need their own parentheses.
package synth

import (
	"fmt"
	"strings"

	"github.com/gnana997/bagsakan/pkg/typeir"
)

// predFor lowers a type into a predicate tree. Named references become calls
// to the target declaration's validator, which is what makes recursive types
// work.
func (s *Synthesizer) predFor(t *typeir.Type) *Predicate {
	switch t.Kind {
	case typeir.KindPrimitive:
		return s.predForPrimitive(t.Prim)

	case typeir.KindLiteralString:
		return &Predicate{Kind: PredEqualsLiteral, Literal: renderLiteralString(t.StrValue)}
	case typeir.KindLiteralNumber:
		return &Predicate{Kind: PredEqualsLiteral, Literal: renderLiteralNumber(t.NumValue)}
	case typeir.KindLiteralBoolean:
		return &Predicate{Kind: PredEqualsLiteral, Literal: fmt.Sprintf("%v", t.BoolValue)}

	case typeir.KindArray:
		return allOf(
			&Predicate{Kind: PredIsArray},
			&Predicate{Kind: PredElementsMatch, Child: s.predFor(t.Elem)},
		)

	case typeir.KindTuple:
		children := []*Predicate{{Kind: PredIsArray}}
		if t.Rest == nil {
			children = append(children, &Predicate{Kind: PredLengthEq, Length: len(t.Elems)})
		} else {
			children = append(children, &Predicate{Kind: PredLengthGte, Length: len(t.Elems)})
		}
		for i, elem := range t.Elems {
			children = append(children, &Predicate{Kind: PredIndexMatches, Index: i, Child: s.predFor(elem)})
		}
		if t.Rest != nil {
			children = append(children, &Predicate{Kind: PredRestMatch, Index: len(t.Elems), Child: s.predFor(t.Rest)})
		}
		return allOf(children...)

	case typeir.KindObject:
		children := []*Predicate{{Kind: PredIsObject}}
		for _, field := range t.Fields {
			children = append(children, s.predForField(field))
		}
		return allOf(children...)

	case typeir.KindRecord:
		return allOf(
			&Predicate{Kind: PredIsObject},
			&Predicate{Kind: PredRecord, KeyChild: recordKeyPred(t.Key), Child: s.predFor(t.Value)},
		)

	case typeir.KindUnion:
		children := make([]*Predicate, len(t.Elems))
		for i, e := range t.Elems {
			children[i] = s.predFor(e)
		}
		return anyOf(children...)

	case typeir.KindIntersection:
		children := make([]*Predicate, len(t.Elems))
		for i, e := range t.Elems {
			children[i] = s.predFor(e)
		}
		return allOf(children...)

	case typeir.KindEnum:
		return enumPred(t)

	case typeir.KindRef:
		return &Predicate{Kind: PredCall, Fn: s.fnNames[t.Decl]}

	default:
		// Unsupported types never reach rendering; the verdict pass skips
		// their validators first.
		return &Predicate{Kind: PredFalse}
	}
}

func (s *Synthesizer) predForPrimitive(p typeir.Primitive) *Predicate {
	switch p {
	case typeir.PrimString:
		return &Predicate{Kind: PredTypeofIs, Tag: "string"}
	case typeir.PrimNumber:
		return &Predicate{Kind: PredTypeofIs, Tag: "number"}
	case typeir.PrimBoolean:
		return &Predicate{Kind: PredTypeofIs, Tag: "boolean"}
	case typeir.PrimBigint:
		return &Predicate{Kind: PredTypeofIs, Tag: "bigint"}
	case typeir.PrimNull:
		return &Predicate{Kind: PredEqualsLiteral, Literal: "null"}
	case typeir.PrimUndefined, typeir.PrimVoid:
		return &Predicate{Kind: PredEqualsLiteral, Literal: "undefined"}
	case typeir.PrimUnknown, typeir.PrimAny:
		return &Predicate{Kind: PredTrue}
	case typeir.PrimNever:
		return &Predicate{Kind: PredFalse}
	default:
		return &Predicate{Kind: PredFalse}
	}
}

// predForField builds the check for one object field. Required fields need
// the key present and the value matching; optional fields accept an absent
// or undefined value.
func (s *Synthesizer) predForField(field typeir.Field) *Predicate {
	valuePred := s.predFor(field.Type)
	if field.Optional {
		return anyOf(
			&Predicate{Kind: PredFieldMatches, Key: field.Name,
				Child: &Predicate{Kind: PredEqualsLiteral, Literal: "undefined"}},
			&Predicate{Kind: PredFieldMatches, Key: field.Name, Child: valuePred},
		)
	}
	return allOf(
		&Predicate{Kind: PredHasKey, Key: field.Name},
		&Predicate{Kind: PredFieldMatches, Key: field.Name, Child: valuePred},
	)
}

// recordKeyPred returns the key predicate for a Record, or nil when any
// string key is acceptable.
func recordKeyPred(key *typeir.Type) *Predicate {
	switch key.Kind {
	case typeir.KindPrimitive:
		return nil
	case typeir.KindLiteralString:
		return &Predicate{Kind: PredEqualsLiteral, Literal: renderLiteralString(key.StrValue)}
	case typeir.KindUnion:
		literals := make([]string, len(key.Elems))
		for i, e := range key.Elems {
			literals[i] = renderLiteralString(e.StrValue)
		}
		return &Predicate{Kind: PredInSet, Literals: literals}
	default:
		return nil
	}
}

// enumPred builds the value-set membership check for an enum declaration.
func enumPred(t *typeir.Type) *Predicate {
	literals := make([]string, len(t.Members))
	for i, member := range t.Members {
		if member.IsString {
			literals[i] = renderLiteralString(member.StrValue)
		} else {
			literals[i] = renderLiteralNumber(member.NumValue)
		}
	}
	return &Predicate{Kind: PredInSet, Literals: literals}
}

// renderFunction renders one complete validator function.
func (s *Synthesizer) renderFunction(name string, id typeir.DeclID, exported bool) string {
	decl := s.graph.Decls[id]
	alias := s.typeAliases[id]

	var sb strings.Builder
	if exported {
		sb.WriteString("export ")
	}
	fmt.Fprintf(&sb, "function %s(data: unknown): data is %s {\n", name, alias)

	if decl.Type.Kind == typeir.KindObject {
		s.renderObjectBody(&sb, decl.Type)
	} else {
		pred := s.predFor(decl.Type)
		fmt.Fprintf(&sb, "  return %s;\n", renderPred(pred, "data", 0))
	}

	sb.WriteString("}")
	return sb.String()
}

// renderObjectBody writes the statement-form body used for rooted object
// types: shape guard, one cast, then an early return per field.
func (s *Synthesizer) renderObjectBody(sb *strings.Builder, t *typeir.Type) {
	sb.WriteString("  if (typeof data !== 'object' || data === null || Array.isArray(data)) {\n")
	sb.WriteString("    return false;\n")
	sb.WriteString("  }\n")
	if len(t.Fields) > 0 {
		sb.WriteString("  const obj = data as Record<string, unknown>;\n")
	}

	for _, field := range t.Fields {
		access := fmt.Sprintf("obj[%s]", renderLiteralString(field.Name))
		valuePred := renderPred(s.predFor(field.Type), access, 0)
		if field.Optional {
			fmt.Fprintf(sb, "  if (%s !== undefined && !(%s)) {\n", access, valuePred)
		} else {
			fmt.Fprintf(sb, "  if (!(%s in obj) || !(%s)) {\n", renderLiteralString(field.Name), valuePred)
		}
		sb.WriteString("    return false;\n")
		sb.WriteString("  }\n")
	}

	sb.WriteString("  return true;\n")
}

// renderPred renders a predicate applied to the expression expr. depth
// numbers the arrow-function bindings so nested closures never shadow.
func renderPred(p *Predicate, expr string, depth int) string {
	switch p.Kind {
	case PredTrue:
		return "true"
	case PredFalse:
		return "false"

	case PredTypeofIs:
		return fmt.Sprintf("typeof %s === '%s'", expr, p.Tag)

	case PredEqualsLiteral:
		return fmt.Sprintf("%s === %s", expr, p.Literal)

	case PredIsObject:
		return fmt.Sprintf("typeof %s === 'object' && %s !== null && !Array.isArray(%s)", expr, expr, expr)

	case PredIsArray:
		return fmt.Sprintf("Array.isArray(%s)", expr)

	case PredAll:
		parts := make([]string, len(p.Children))
		for i, child := range p.Children {
			parts[i] = renderPred(child, expr, depth)
		}
		return strings.Join(parts, " && ")

	case PredAny:
		parts := make([]string, len(p.Children))
		for i, child := range p.Children {
			parts[i] = renderPred(child, expr, depth)
		}
		return "(" + strings.Join(parts, " || ") + ")"

	case PredHasKey:
		return fmt.Sprintf("%s in (%s as Record<string, unknown>)", renderLiteralString(p.Key), expr)

	case PredFieldMatches:
		access := fmt.Sprintf("(%s as Record<string, unknown>)[%s]", expr, renderLiteralString(p.Key))
		return renderPred(p.Child, access, depth)

	case PredElementsMatch:
		v := varName("item", depth)
		return fmt.Sprintf("(%s as unknown[]).every((%s) => %s)", expr, v, renderPred(p.Child, v, depth+1))

	case PredIndexMatches:
		access := fmt.Sprintf("(%s as unknown[])[%d]", expr, p.Index)
		return renderPred(p.Child, access, depth)

	case PredLengthEq:
		return fmt.Sprintf("(%s as unknown[]).length === %d", expr, p.Length)

	case PredLengthGte:
		return fmt.Sprintf("(%s as unknown[]).length >= %d", expr, p.Length)

	case PredRestMatch:
		v := varName("item", depth)
		return fmt.Sprintf("(%s as unknown[]).slice(%d).every((%s) => %s)",
			expr, p.Index, v, renderPred(p.Child, v, depth+1))

	case PredInSet:
		parts := make([]string, len(p.Literals))
		for i, literal := range p.Literals {
			parts[i] = fmt.Sprintf("%s === %s", expr, literal)
		}
		return "(" + strings.Join(parts, " || ") + ")"

	case PredRecord:
		value := varName("value", depth)
		if p.KeyChild == nil {
			return fmt.Sprintf("Object.values(%s as Record<string, unknown>).every((%s) => %s)",
				expr, value, renderPred(p.Child, value, depth+1))
		}
		key := varName("key", depth)
		return fmt.Sprintf("Object.entries(%s as Record<string, unknown>).every(([%s, %s]) => %s && %s)",
			expr, key, value, renderPred(p.KeyChild, key, depth+1), renderPred(p.Child, value, depth+1))

	case PredCall:
		return fmt.Sprintf("%s(%s)", p.Fn, expr)

	default:
		return "false"
	}
}

// varName derives a closure binding name unique to its nesting depth.
func varName(base string, depth int) string {
	if depth == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, depth+1)
}
