// Package synth lowers resolved types into predicate trees and renders them
// as TypeScript validator functions.
package synth

// PredKind discriminates predicate tree nodes. The tree is a structural
// check against one bound value; rendering maps each node to a boolean
// TypeScript expression over that value.
type PredKind int

const (
	// PredTrue always accepts (unknown, any).
	PredTrue PredKind = iota
	// PredFalse always rejects (never).
	PredFalse
	// PredTypeofIs checks `typeof x === Tag`.
	PredTypeofIs
	// PredEqualsLiteral checks strict equality against Literal (already
	// rendered as TypeScript source).
	PredEqualsLiteral
	// PredIsObject checks for a non-null, non-array object.
	PredIsObject
	// PredIsArray checks Array.isArray.
	PredIsArray
	// PredAll is conjunction.
	PredAll
	// PredAny is disjunction.
	PredAny
	// PredHasKey checks key presence with `in`.
	PredHasKey
	// PredFieldMatches applies Child to the Key property of the value.
	PredFieldMatches
	// PredElementsMatch applies Child to every array element.
	PredElementsMatch
	// PredIndexMatches applies Child to the element at Index.
	PredIndexMatches
	// PredLengthEq checks the array length is exactly Length.
	PredLengthEq
	// PredLengthGte checks the array length is at least Length.
	PredLengthGte
	// PredRestMatch applies Child to every element from Index onward.
	PredRestMatch
	// PredInSet checks membership in Literals.
	PredInSet
	// PredRecord checks every own entry: KeyChild (nil = any string key)
	// against keys, Child against values.
	PredRecord
	// PredCall invokes another validator function by name.
	PredCall
)

// Predicate is one node of the check tree. Field usage per kind mirrors the
// constant list above.
type Predicate struct {
	Kind PredKind

	Tag      string // PredTypeofIs
	Literal  string // PredEqualsLiteral
	Literals []string

	Key    string
	Index  int
	Length int

	Fn string

	Child    *Predicate
	KeyChild *Predicate
	Children []*Predicate
}

func allOf(children ...*Predicate) *Predicate {
	return &Predicate{Kind: PredAll, Children: children}
}

func anyOf(children ...*Predicate) *Predicate {
	return &Predicate{Kind: PredAny, Children: children}
}
