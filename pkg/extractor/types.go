// Package extractor performs unified per-file extraction: exported type
// declarations (already lowered to the type IR), import/re-export bindings,
// and call-expression callees for validator discovery.
//
// Each file is parsed ONCE and every extraction runs on the same tree; the
// tree is closed before returning so nothing downstream holds parser memory.
package extractor

import (
	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/typeir"
)

// DeclKind identifies the declaration form a type came from.
type DeclKind int

const (
	DeclInterface DeclKind = iota
	DeclTypeAlias
	DeclEnum
)

// String returns the keyword for the declaration kind.
func (k DeclKind) String() string {
	switch k {
	case DeclInterface:
		return "interface"
	case DeclTypeAlias:
		return "type"
	case DeclEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Position is a 1-based line/column location used in diagnostics.
type Position struct {
	Line   uint32
	Column uint32
}

// Declaration is one interface, type alias, or enum found at the top level of
// a file. Its body is already lowered to the type IR, with named references
// left unresolved for the symbol table to bind.
type Declaration struct {
	Name     string
	Kind     DeclKind
	ModuleID string
	Exported bool
	Type     *typeir.Type
	Pos      Position
}

// ID returns the declaration's id within the symbol table.
func (d Declaration) ID() typeir.DeclID {
	return typeir.NewDeclID(d.ModuleID, d.Name)
}

// Import is one import statement. Names maps localName → exportedName, where
// the exported name "default" marks a default import and "*" a namespace
// import.
type Import struct {
	Source string
	Names  map[string]string
	Pos    Position
}

// ReExport is an `export ... from` statement. Names maps exportedName →
// sourceName; Star marks `export * from`.
type ReExport struct {
	Source string
	Names  map[string]string
	Star   bool
	Pos    Position
}

// ExportAlias is one entry of a local export list: `export { local as exported }`.
type ExportAlias struct {
	Exported string
	Local    string
}

// CallSite is a call expression whose callee was a bare identifier.
type CallSite struct {
	Callee string
	Pos    Position
}

// FileResult contains everything extracted from a single file.
type FileResult struct {
	Path       string
	ModuleID   string
	UserSource bool
	Language   parser.Language

	Declarations  []Declaration
	Imports       []Import
	ReExports     []ReExport
	ExportAliases []ExportAlias
	Calls         []CallSite

	// ParseErrored is set when the tree contains ERROR nodes. Package files
	// with exotic syntax degrade silently; an errored user source blocks
	// emission.
	ParseErrored bool
}
