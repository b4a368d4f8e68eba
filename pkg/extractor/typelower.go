// Lowering of TypeScript type syntax into the type IR.
//
// This is a direct recursive walk over tree-sitter type nodes. Constructs
// outside the supported subset become Unsupported nodes carrying a reason;
// they surface as diagnostics at synthesis time instead of failing the run.
package extractor

import (
	"fmt"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/bagsakan/pkg/typeir"
)

// typeParseResult pairs a declaration name with its lowered body.
type typeParseResult struct {
	name string
	typ  *typeir.Type
}

// lowerInterface lowers an interface_declaration. An extends clause becomes
// an intersection of the base references and the own-field object, which the
// synthesizer already knows how to check.
func lowerInterface(decl *ts.Node, source []byte) *typeParseResult {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	if tp := decl.ChildByFieldName("type_parameters"); tp != nil {
		return &typeParseResult{name: name, typ: typeir.NewUnsupported("generic interface")}
	}

	var body *ts.Node
	for i := uint(0); i < uint(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Kind() == "interface_body" || child.Kind() == "object_type" {
			body = child
			break
		}
	}
	if body == nil {
		return &typeParseResult{name: name, typ: &typeir.Type{Kind: typeir.KindObject}}
	}

	obj := lowerObjectBody(body, source)

	var bases []*typeir.Type
	for i := uint(0); i < uint(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Kind() != "extends_type_clause" && child.Kind() != "extends_clause" {
			continue
		}
		for j := uint(0); j < uint(child.NamedChildCount()); j++ {
			base := child.NamedChild(j)
			switch base.Kind() {
			case "type_identifier", "generic_type", "nested_type_identifier":
				bases = append(bases, lowerTypeNode(base, source))
			}
		}
	}

	if len(bases) > 0 {
		return &typeParseResult{name: name, typ: typeir.NewIntersection(append(bases, obj))}
	}
	return &typeParseResult{name: name, typ: obj}
}

// lowerTypeAlias lowers a type_alias_declaration to its aliased type.
func lowerTypeAlias(decl *ts.Node, source []byte) *typeParseResult {
	nameNode := decl.ChildByFieldName("name")
	valueNode := decl.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return nil
	}
	if tp := decl.ChildByFieldName("type_parameters"); tp != nil {
		return &typeParseResult{
			name: nameNode.Utf8Text(source),
			typ:  typeir.NewUnsupported("generic type alias"),
		}
	}
	return &typeParseResult{
		name: nameNode.Utf8Text(source),
		typ:  lowerTypeNode(valueNode, source),
	}
}

// lowerEnum lowers an enum_declaration to an enum node with its resolved
// value set. Implicit numeric members continue from the last explicit
// initializer, starting at zero.
func lowerEnum(decl *ts.Node, source []byte) *typeParseResult {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	var body *ts.Node
	for i := uint(0); i < uint(decl.NamedChildCount()); i++ {
		if decl.NamedChild(i).Kind() == "enum_body" {
			body = decl.NamedChild(i)
			break
		}
	}
	if body == nil {
		return &typeParseResult{name: name, typ: &typeir.Type{Kind: typeir.KindEnum}}
	}

	var members []typeir.EnumMember
	nextNum := float64(0)

	for i := uint(0); i < uint(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Kind() {
		case "property_identifier", "string":
			members = append(members, typeir.EnumMember{
				Name:     enumMemberName(child, source),
				NumValue: nextNum,
			})
			nextNum++

		case "enum_assignment":
			memberName := ""
			if n := child.ChildByFieldName("name"); n != nil {
				memberName = enumMemberName(n, source)
			}
			value := child.ChildByFieldName("value")
			if value == nil {
				members = append(members, typeir.EnumMember{Name: memberName, NumValue: nextNum})
				nextNum++
				continue
			}
			switch value.Kind() {
			case "string":
				members = append(members, typeir.EnumMember{
					Name:     memberName,
					IsString: true,
					StrValue: stringValue(value, source),
				})
			case "number":
				num, ok := parseNumber(value.Utf8Text(source))
				if !ok {
					return &typeParseResult{name: name, typ: typeir.NewUnsupported("unparseable enum initializer")}
				}
				members = append(members, typeir.EnumMember{Name: memberName, NumValue: num})
				nextNum = num + 1
			case "unary_expression":
				num, ok := parseNumber(value.Utf8Text(source))
				if !ok {
					return &typeParseResult{name: name, typ: typeir.NewUnsupported("unparseable enum initializer")}
				}
				members = append(members, typeir.EnumMember{Name: memberName, NumValue: num})
				nextNum = num + 1
			default:
				return &typeParseResult{name: name, typ: typeir.NewUnsupported("computed enum member")}
			}
		}
	}

	return &typeParseResult{name: name, typ: &typeir.Type{Kind: typeir.KindEnum, Members: members}}
}

func enumMemberName(node *ts.Node, source []byte) string {
	if node.Kind() == "string" {
		return stringValue(node, source)
	}
	return node.Utf8Text(source)
}

// lowerObjectBody lowers an interface_body or object_type node. A body that
// is exactly one index signature is a Record; an index signature mixed with
// named properties is outside the supported subset.
func lowerObjectBody(body *ts.Node, source []byte) *typeir.Type {
	var fields []typeir.Field
	var indexSigs []*ts.Node

	for i := uint(0); i < uint(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Kind() {
		case "property_signature":
			field, ok := lowerPropertySignature(child, source)
			if ok {
				fields = append(fields, field)
			}
		case "index_signature":
			indexSigs = append(indexSigs, child)
		case "method_signature", "call_signature", "construct_signature":
			return typeir.NewUnsupported("method or call signature")
		case "comment":
			// ignore
		}
	}

	if len(indexSigs) > 0 {
		if len(fields) > 0 || len(indexSigs) > 1 {
			return typeir.NewUnsupported("index signature mixed with named properties")
		}
		return lowerIndexSignature(indexSigs[0], source)
	}

	return &typeir.Type{Kind: typeir.KindObject, Fields: fields}
}

func lowerPropertySignature(sig *ts.Node, source []byte) (typeir.Field, bool) {
	nameNode := sig.ChildByFieldName("name")
	if nameNode == nil {
		return typeir.Field{}, false
	}

	var name string
	switch nameNode.Kind() {
	case "property_identifier", "identifier":
		name = nameNode.Utf8Text(source)
	case "string":
		name = stringValue(nameNode, source)
	case "number":
		name = nameNode.Utf8Text(source)
	default:
		return typeir.Field{
			Name: nameNode.Utf8Text(source),
			Type: typeir.NewUnsupported("computed property name"),
		}, true
	}

	optional := false
	readonly := false
	for i := uint(0); i < uint(sig.ChildCount()); i++ {
		switch sig.Child(i).Kind() {
		case "?":
			optional = true
		case "readonly":
			readonly = true
		}
	}

	// A property without an annotation is implicitly any.
	fieldType := typeir.NewPrimitive(typeir.PrimAny)
	if anno := sig.ChildByFieldName("type"); anno != nil {
		fieldType = lowerTypeAnnotation(anno, source)
	}

	// A union with an undefined arm makes the property optional even
	// without the ? modifier.
	if fieldType.IncludesUndefined() {
		optional = true
	}

	return typeir.Field{
		Name:     name,
		Type:     fieldType,
		Optional: optional,
		Readonly: readonly,
	}, true
}

// lowerIndexSignature lowers `{ [key: K]: V }` to Record(K, V).
func lowerIndexSignature(sig *ts.Node, source []byte) *typeir.Type {
	for i := uint(0); i < uint(sig.NamedChildCount()); i++ {
		if sig.NamedChild(i).Kind() == "mapped_type_clause" {
			return typeir.NewUnsupported("mapped type")
		}
	}

	var key *typeir.Type
	if idx := sig.ChildByFieldName("index_type"); idx != nil {
		key = lowerTypeNode(idx, source)
	}
	var value *typeir.Type
	if anno := sig.ChildByFieldName("type"); anno != nil {
		value = lowerTypeAnnotation(anno, source)
	}
	if key == nil || value == nil {
		return typeir.NewUnsupported("index signature")
	}
	return &typeir.Type{Kind: typeir.KindRecord, Key: key, Value: value}
}

// lowerTypeAnnotation unwraps a type_annotation node.
func lowerTypeAnnotation(anno *ts.Node, source []byte) *typeir.Type {
	for i := uint(0); i < uint(anno.NamedChildCount()); i++ {
		return lowerTypeNode(anno.NamedChild(i), source)
	}
	return typeir.NewUnsupported("empty type annotation")
}

// lowerTypeNode lowers one type expression node.
func lowerTypeNode(node *ts.Node, source []byte) *typeir.Type {
	switch node.Kind() {
	case "predefined_type":
		return lowerPredefined(node.Utf8Text(source))

	case "type_identifier":
		name := node.Utf8Text(source)
		if name == "undefined" {
			return typeir.NewPrimitive(typeir.PrimUndefined)
		}
		return typeir.NewRef(name)

	case "literal_type":
		return lowerLiteralType(node, source)

	case "union_type":
		var elems []*typeir.Type
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			elems = append(elems, lowerTypeNode(node.NamedChild(i), source))
		}
		return typeir.NewUnion(elems)

	case "intersection_type":
		var elems []*typeir.Type
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			elems = append(elems, lowerTypeNode(node.NamedChild(i), source))
		}
		return typeir.NewIntersection(elems)

	case "array_type":
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			return typeir.NewArray(lowerTypeNode(node.NamedChild(i), source))
		}
		return typeir.NewUnsupported("empty array type")

	case "tuple_type":
		return lowerTuple(node, source)

	case "generic_type":
		return lowerGeneric(node, source)

	case "object_type":
		return lowerObjectBody(node, source)

	case "parenthesized_type", "readonly_type":
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			return lowerTypeNode(node.NamedChild(i), source)
		}
		return typeir.NewUnsupported("empty type")

	case "nested_type_identifier":
		return typeir.NewUnsupported("qualified type reference " + node.Utf8Text(source))

	case "function_type", "constructor_type":
		return typeir.NewUnsupported("function type")

	case "conditional_type":
		return typeir.NewUnsupported("conditional type")

	case "template_literal_type":
		return typeir.NewUnsupported("template literal type")

	case "index_type_query":
		return typeir.NewUnsupported("typeof type query")

	case "lookup_type", "indexed_access_type":
		return typeir.NewUnsupported("indexed access type")

	default:
		return typeir.NewUnsupported(fmt.Sprintf("type construct %s", node.Kind()))
	}
}

func lowerPredefined(text string) *typeir.Type {
	switch text {
	case "string":
		return typeir.NewPrimitive(typeir.PrimString)
	case "number":
		return typeir.NewPrimitive(typeir.PrimNumber)
	case "boolean":
		return typeir.NewPrimitive(typeir.PrimBoolean)
	case "bigint":
		return typeir.NewPrimitive(typeir.PrimBigint)
	case "any":
		return typeir.NewPrimitive(typeir.PrimAny)
	case "unknown":
		return typeir.NewPrimitive(typeir.PrimUnknown)
	case "never":
		return typeir.NewPrimitive(typeir.PrimNever)
	case "void":
		return typeir.NewPrimitive(typeir.PrimVoid)
	default:
		// symbol, object, ...
		return typeir.NewUnsupported(fmt.Sprintf("the %s type", text))
	}
}

func lowerLiteralType(node *ts.Node, source []byte) *typeir.Type {
	var child *ts.Node
	if node.NamedChildCount() > 0 {
		child = node.NamedChild(0)
	} else if node.ChildCount() > 0 {
		child = node.Child(0)
	}
	if child == nil {
		return typeir.NewUnsupported("empty literal type")
	}

	switch child.Kind() {
	case "string":
		return typeir.NewLiteralString(stringValue(child, source))
	case "number":
		num, ok := parseNumber(child.Utf8Text(source))
		if !ok {
			return typeir.NewUnsupported("unparseable numeric literal")
		}
		return typeir.NewLiteralNumber(num)
	case "unary_expression":
		num, ok := parseNumber(child.Utf8Text(source))
		if !ok {
			return typeir.NewUnsupported("unparseable numeric literal")
		}
		return typeir.NewLiteralNumber(num)
	case "true":
		return typeir.NewLiteralBoolean(true)
	case "false":
		return typeir.NewLiteralBoolean(false)
	case "null":
		return typeir.NewPrimitive(typeir.PrimNull)
	case "undefined":
		return typeir.NewPrimitive(typeir.PrimUndefined)
	default:
		return typeir.NewUnsupported(fmt.Sprintf("literal type %s", child.Kind()))
	}
}

func lowerTuple(node *ts.Node, source []byte) *typeir.Type {
	var elems []*typeir.Type
	var rest *typeir.Type

	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "rest_type":
			inner := child.NamedChild(0)
			if inner == nil {
				return typeir.NewUnsupported("rest element without type")
			}
			lowered := lowerTypeNode(inner, source)
			if lowered.Kind != typeir.KindArray {
				return typeir.NewUnsupported("tuple rest element is not an array")
			}
			rest = lowered.Elem
		case "optional_type":
			return typeir.NewUnsupported("optional tuple element")
		default:
			if rest != nil {
				return typeir.NewUnsupported("tuple element after rest")
			}
			elems = append(elems, lowerTypeNode(child, source))
		}
	}

	return &typeir.Type{Kind: typeir.KindTuple, Elems: elems, Rest: rest}
}

func lowerGeneric(node *ts.Node, source []byte) *typeir.Type {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return typeir.NewUnsupported("generic type without name")
	}
	name := nameNode.Utf8Text(source)

	var args []*ts.Node
	if argList := node.ChildByFieldName("type_arguments"); argList != nil {
		for i := uint(0); i < uint(argList.NamedChildCount()); i++ {
			args = append(args, argList.NamedChild(i))
		}
	}

	switch {
	case name == "Array" && len(args) == 1:
		return typeir.NewArray(lowerTypeNode(args[0], source))
	case name == "Record" && len(args) == 2:
		return &typeir.Type{
			Kind:  typeir.KindRecord,
			Key:   lowerTypeNode(args[0], source),
			Value: lowerTypeNode(args[1], source),
		}
	default:
		return typeir.NewUnsupported(fmt.Sprintf("generic type %s", name))
	}
}

// stringValue extracts the content of a string node, resolving escape
// sequences.
func stringValue(node *ts.Node, source []byte) string {
	var sb strings.Builder
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "string_fragment":
			sb.WriteString(child.Utf8Text(source))
		case "escape_sequence":
			sb.WriteString(unescape(child.Utf8Text(source)))
		}
	}
	return sb.String()
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '\\':
		return "\\"
	case '\'':
		return "'"
	case '"':
		return "\""
	case '`':
		return "`"
	case '0':
		return "\x00"
	case 'u', 'x':
		if code, err := strconv.Unquote(`"` + seq + `"`); err == nil {
			return code
		}
		return seq
	default:
		return seq[1:]
	}
}

// parseNumber parses a TypeScript numeric literal (decimal, float, hex,
// octal, binary, with optional numeric separators and sign).
func parseNumber(text string) (float64, bool) {
	text = strings.ReplaceAll(text, "_", "")
	text = strings.TrimSpace(text)

	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = strings.TrimSpace(text[1:])
	} else if strings.HasPrefix(text, "+") {
		text = strings.TrimSpace(text[1:])
	}

	var value float64
	if num, err := strconv.ParseFloat(text, 64); err == nil {
		value = num
	} else if num, err := strconv.ParseInt(text, 0, 64); err == nil {
		value = float64(num)
	} else {
		return 0, false
	}

	if neg {
		value = -value
	}
	return value, true
}
