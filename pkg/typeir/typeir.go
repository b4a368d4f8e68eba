// Package typeir defines the intermediate representation of TypeScript types
// used between extraction and validator synthesis.
//
// A Type is a recursive tagged variant. Leaves are primitive kinds and literal
// values; interior nodes mirror the TypeScript structural type system (arrays,
// tuples, objects, records, unions, intersections). Named references to other
// declarations stay as Ref nodes until the resolver binds them to declaration
// ids, so the graph can represent recursive types without inlining them into
// an infinite tree.
package typeir

import (
	"fmt"
	"strings"
)

// Kind discriminates the Type variant.
type Kind int

const (
	KindPrimitive Kind = iota
	KindLiteralString
	KindLiteralNumber
	KindLiteralBoolean
	KindArray
	KindTuple
	KindObject
	KindRecord
	KindUnion
	KindIntersection
	KindEnum
	KindRef
	KindUnsupported
)

// String returns the lowercase kind name used in logs and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindLiteralString:
		return "literal-string"
	case KindLiteralNumber:
		return "literal-number"
	case KindLiteralBoolean:
		return "literal-boolean"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindObject:
		return "object"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Primitive identifies one of the TypeScript primitive (or pseudo-primitive)
// type keywords.
type Primitive int

const (
	PrimString Primitive = iota
	PrimNumber
	PrimBoolean
	PrimBigint
	PrimNull
	PrimUndefined
	PrimUnknown
	PrimAny
	PrimNever
	PrimVoid
)

// String returns the TypeScript keyword for the primitive.
func (p Primitive) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimNumber:
		return "number"
	case PrimBoolean:
		return "boolean"
	case PrimBigint:
		return "bigint"
	case PrimNull:
		return "null"
	case PrimUndefined:
		return "undefined"
	case PrimUnknown:
		return "unknown"
	case PrimAny:
		return "any"
	case PrimNever:
		return "never"
	case PrimVoid:
		return "void"
	default:
		return "unknown"
	}
}

// DeclID identifies a declaration by its home module and exported name.
// The string form is "<module-id>#<name>".
type DeclID string

// NewDeclID builds a DeclID from a module id and a declaration name.
func NewDeclID(moduleID, name string) DeclID {
	return DeclID(moduleID + "#" + name)
}

// Split returns the module id and name components.
func (id DeclID) Split() (moduleID, name string) {
	s := string(id)
	if i := strings.LastIndex(s, "#"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// Name returns the declaration name component.
func (id DeclID) Name() string {
	_, name := id.Split()
	return name
}

// ModuleID returns the module id component.
func (id DeclID) ModuleID() string {
	m, _ := id.Split()
	return m
}

// Field is one property of an Object type. Declaration order is preserved so
// emitted code is stable.
type Field struct {
	Name     string
	Type     *Type
	Optional bool
	Readonly bool
}

// EnumMember is one member of an enum declaration. Exactly one of StrValue
// and NumValue is meaningful, selected by IsString.
type EnumMember struct {
	Name     string
	IsString bool
	StrValue string
	NumValue float64
}

// Type is the recursive IR node. Which fields are meaningful depends on Kind:
//
//	KindPrimitive       Prim
//	KindLiteralString   StrValue
//	KindLiteralNumber   NumValue
//	KindLiteralBoolean  BoolValue
//	KindArray           Elem
//	KindTuple           Elems, Rest (nil when the tuple is closed)
//	KindObject          Fields
//	KindRecord          Key, Value
//	KindUnion           Elems
//	KindIntersection    Elems
//	KindEnum            Members
//	KindRef             RefName (pre-binding), Decl (post-binding)
//	KindUnsupported     Reason
type Type struct {
	Kind Kind

	Prim      Primitive
	StrValue  string
	NumValue  float64
	BoolValue bool

	Elem  *Type
	Elems []*Type
	Rest  *Type

	Fields []Field

	Key   *Type
	Value *Type

	Members []EnumMember

	// RefName is the local name a Ref was written with; Decl is the bound
	// declaration id once the resolver has located the target.
	RefName string
	Decl    DeclID

	Reason string
}

// NewPrimitive builds a primitive node.
func NewPrimitive(p Primitive) *Type { return &Type{Kind: KindPrimitive, Prim: p} }

// NewLiteralString builds a string-literal node.
func NewLiteralString(v string) *Type { return &Type{Kind: KindLiteralString, StrValue: v} }

// NewLiteralNumber builds a number-literal node.
func NewLiteralNumber(v float64) *Type { return &Type{Kind: KindLiteralNumber, NumValue: v} }

// NewLiteralBoolean builds a boolean-literal node.
func NewLiteralBoolean(v bool) *Type { return &Type{Kind: KindLiteralBoolean, BoolValue: v} }

// NewArray builds an array node.
func NewArray(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// NewUnion builds a union, flattening directly nested unions.
func NewUnion(elems []*Type) *Type {
	flat := make([]*Type, 0, len(elems))
	for _, e := range elems {
		if e.Kind == KindUnion {
			flat = append(flat, e.Elems...)
		} else {
			flat = append(flat, e)
		}
	}
	return &Type{Kind: KindUnion, Elems: flat}
}

// NewIntersection builds an intersection, flattening directly nested intersections.
func NewIntersection(elems []*Type) *Type {
	flat := make([]*Type, 0, len(elems))
	for _, e := range elems {
		if e.Kind == KindIntersection {
			flat = append(flat, e.Elems...)
		} else {
			flat = append(flat, e)
		}
	}
	return &Type{Kind: KindIntersection, Elems: flat}
}

// NewRef builds an unresolved named reference.
func NewRef(name string) *Type { return &Type{Kind: KindRef, RefName: name} }

// NewUnsupported builds an Unsupported node carrying the reason shown in
// diagnostics.
func NewUnsupported(reason string) *Type { return &Type{Kind: KindUnsupported, Reason: reason} }

// IncludesUndefined reports whether the type is undefined or a union with an
// undefined arm. Interface properties of such types are treated as optional.
func (t *Type) IncludesUndefined() bool {
	if t.Kind == KindPrimitive && t.Prim == PrimUndefined {
		return true
	}
	if t.Kind == KindUnion {
		for _, e := range t.Elems {
			if e.Kind == KindPrimitive && e.Prim == PrimUndefined {
				return true
			}
		}
	}
	return false
}

// FindUnsupported walks the type (without following Refs) and returns the
// first Unsupported node, or nil.
func (t *Type) FindUnsupported() *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindUnsupported:
		return t
	case KindArray:
		return t.Elem.FindUnsupported()
	case KindTuple:
		for _, e := range t.Elems {
			if u := e.FindUnsupported(); u != nil {
				return u
			}
		}
		return t.Rest.FindUnsupported()
	case KindObject:
		for _, f := range t.Fields {
			if u := f.Type.FindUnsupported(); u != nil {
				return u
			}
		}
	case KindRecord:
		if u := t.Key.FindUnsupported(); u != nil {
			return u
		}
		return t.Value.FindUnsupported()
	case KindUnion, KindIntersection:
		for _, e := range t.Elems {
			if u := e.FindUnsupported(); u != nil {
				return u
			}
		}
	}
	return nil
}

// String renders a compact human-readable form for logs and test failures.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Prim.String()
	case KindLiteralString:
		return fmt.Sprintf("%q", t.StrValue)
	case KindLiteralNumber:
		return fmt.Sprintf("%v", t.NumValue)
	case KindLiteralBoolean:
		return fmt.Sprintf("%v", t.BoolValue)
	case KindArray:
		return t.Elem.String() + "[]"
	case KindTuple:
		parts := make([]string, 0, len(t.Elems)+1)
		for _, e := range t.Elems {
			parts = append(parts, e.String())
		}
		if t.Rest != nil {
			parts = append(parts, "..."+t.Rest.String()+"[]")
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts = append(parts, f.Name+opt+": "+f.Type.String())
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case KindRecord:
		return "Record<" + t.Key.String() + ", " + t.Value.String() + ">"
	case KindUnion:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, " | ")
	case KindIntersection:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, " & ")
	case KindEnum:
		return "enum(" + string(t.Decl) + ")"
	case KindRef:
		if t.Decl != "" {
			return "ref(" + string(t.Decl) + ")"
		}
		return "ref(" + t.RefName + ")"
	case KindUnsupported:
		return "unsupported(" + t.Reason + ")"
	default:
		return "unknown"
	}
}
