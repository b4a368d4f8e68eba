package extractor

import (
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/parser/queries"
)

// Extractor parses files and extracts declarations, imports, and call sites.
type Extractor struct {
	parserManager *parser.Manager
	queryManager  *queries.Manager
	logger        *slog.Logger
}

// NewExtractor creates a new extractor on top of the given parser and query
// managers. Logger may be nil.
func NewExtractor(pm *parser.Manager, qm *queries.Manager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// ExtractFile parses one file and extracts everything the pipeline needs from
// it. moduleID is the canonical id other files import this one by (absolute
// path for project files, bare specifier for package files); userSource marks
// files that may contain validator calls.
func (e *Extractor) ExtractFile(filePath, moduleID string, source []byte, userSource bool) (*FileResult, error) {
	lang := parser.DetectLanguage(filePath)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", filePath)
	}
	isTSX := parser.IsTSXFile(filePath)

	tree, err := e.parserManager.Parse(source, lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	defer tree.Close()

	result := &FileResult{
		Path:         filePath,
		ModuleID:     moduleID,
		UserSource:   userSource,
		Language:     lang,
		ParseErrored: tree.RootNode().HasError(),
	}

	if err := e.extractImports(tree, source, lang, isTSX, result); err != nil {
		return nil, err
	}
	if err := e.extractCalls(tree, source, lang, isTSX, result); err != nil {
		return nil, err
	}
	e.extractDeclarations(tree.RootNode(), source, result)

	e.logger.Debug("extracted file",
		"file", filePath,
		"declarations", len(result.Declarations),
		"imports", len(result.Imports),
		"reexports", len(result.ReExports),
		"calls", len(result.Calls),
		"parse_errored", result.ParseErrored)

	return result, nil
}

// extractCalls records every bare-identifier callee.
func (e *Extractor) extractCalls(tree *ts.Tree, source []byte, lang parser.Language, isTSX bool, result *FileResult) error {
	query, err := e.queryManager.GetQuery(lang, queries.QueryTypeCalls, isTSX)
	if err != nil {
		return fmt.Errorf("failed to get calls query: %w", err)
	}
	matches, err := e.queryManager.ExecuteQuery(tree, query, source)
	if err != nil {
		return fmt.Errorf("failed to execute calls query: %w", err)
	}

	for _, match := range matches {
		for _, capture := range match.Captures {
			if capture.Name != "call.callee" {
				continue
			}
			result.Calls = append(result.Calls, CallSite{
				Callee: capture.Text,
				Pos:    nodePosition(capture.Node),
			})
		}
	}
	return nil
}

// importAgg accumulates captures belonging to one import/export statement,
// keyed by the statement node's start byte.
type importAgg struct {
	stmt   *ts.Node
	source string
	names  map[string]string
	pos    Position
}

// extractImports processes the import/export query, regrouping captures by
// their enclosing statement node. Capture patterns fire once per specifier,
// so the statement is the unit that reassembles them.
func (e *Extractor) extractImports(tree *ts.Tree, source []byte, lang parser.Language, isTSX bool, result *FileResult) error {
	query, err := e.queryManager.GetQuery(lang, queries.QueryTypeImports, isTSX)
	if err != nil {
		return fmt.Errorf("failed to get imports query: %w", err)
	}
	matches, err := e.queryManager.ExecuteQuery(tree, query, source)
	if err != nil {
		return fmt.Errorf("failed to execute imports query: %w", err)
	}

	importStmts := make(map[uint]*importAgg)
	reexportStmts := make(map[uint]*importAgg)
	var importOrder, reexportOrder []uint

	getAgg := func(stmts map[uint]*importAgg, order *[]uint, stmt *ts.Node) *importAgg {
		key := uint(stmt.StartByte())
		agg, ok := stmts[key]
		if !ok {
			agg = &importAgg{
				stmt:  stmt,
				names: make(map[string]string),
				pos:   nodePosition(stmt),
			}
			stmts[key] = agg
			*order = append(*order, key)
		}
		return agg
	}

	for _, match := range matches {
		for _, capture := range match.Captures {
			switch capture.Name {
			case "import.source":
				stmt := enclosing(capture.Node, "import_statement")
				if stmt == nil {
					continue
				}
				getAgg(importStmts, &importOrder, stmt).source = capture.Text

			case "import.named":
				spec := enclosing(capture.Node, "import_specifier")
				stmt := enclosing(capture.Node, "import_statement")
				if spec == nil || stmt == nil {
					continue
				}
				agg := getAgg(importStmts, &importOrder, stmt)
				local := capture.Text
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					// import { Foo as F }: local F refers to exported Foo.
					agg.names[alias.Utf8Text(source)] = local
				} else {
					agg.names[local] = local
				}

			case "import.default":
				stmt := enclosing(capture.Node, "import_statement")
				if stmt == nil {
					continue
				}
				getAgg(importStmts, &importOrder, stmt).names[capture.Text] = "default"

			case "import.namespace":
				stmt := enclosing(capture.Node, "import_statement")
				if stmt == nil {
					continue
				}
				getAgg(importStmts, &importOrder, stmt).names[capture.Text] = "*"

			case "export.name":
				// Export lists only; exported declarations are handled by
				// the declaration walk, re-exports by their own captures.
				spec := capture.Node.Parent()
				if spec == nil || spec.Kind() != "export_specifier" {
					continue
				}
				stmt := enclosing(capture.Node, "export_statement")
				if stmt == nil || stmt.ChildByFieldName("source") != nil {
					continue
				}
				local := capture.Text
				exported := local
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = alias.Utf8Text(source)
				}
				result.ExportAliases = append(result.ExportAliases, ExportAlias{
					Exported: exported,
					Local:    local,
				})

			case "export.reexport.source":
				stmt := enclosing(capture.Node, "export_statement")
				if stmt == nil {
					continue
				}
				getAgg(reexportStmts, &reexportOrder, stmt).source = capture.Text

			case "export.reexport.name":
				spec := capture.Node.Parent()
				stmt := enclosing(capture.Node, "export_statement")
				if spec == nil || stmt == nil {
					continue
				}
				agg := getAgg(reexportStmts, &reexportOrder, stmt)
				name := capture.Text
				exported := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = alias.Utf8Text(source)
				}
				agg.names[exported] = name
			}
		}
	}

	for _, key := range importOrder {
		agg := importStmts[key]
		if agg.source == "" {
			continue
		}
		result.Imports = append(result.Imports, Import{
			Source: agg.source,
			Names:  agg.names,
			Pos:    agg.pos,
		})
	}

	for _, key := range reexportOrder {
		agg := reexportStmts[key]
		if agg.source == "" {
			continue
		}
		star := len(agg.names) == 0 && !hasChildOfKind(agg.stmt, "export_clause")
		result.ReExports = append(result.ReExports, ReExport{
			Source: agg.source,
			Names:  agg.names,
			Star:   star,
			Pos:    agg.pos,
		})
	}

	return nil
}

// extractDeclarations walks the file's top level for interface, type alias,
// and enum declarations. Declaration bodies need full structural recursion,
// so this is a direct tree walk rather than a capture query.
func (e *Extractor) extractDeclarations(root *ts.Node, source []byte, result *FileResult) {
	for i := uint(0); i < uint(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "export_statement":
			decl := child.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
			decl = unwrapAmbient(decl)
			if decl == nil {
				continue
			}
			e.appendDeclaration(decl, source, true, result)

		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			e.appendDeclaration(child, source, false, result)

		case "ambient_declaration":
			decl := unwrapAmbient(child)
			if decl != nil {
				e.appendDeclaration(decl, source, false, result)
			}
		}
	}
}

func (e *Extractor) appendDeclaration(decl *ts.Node, source []byte, exported bool, result *FileResult) {
	var (
		kind DeclKind
		typ  *typeParseResult
	)

	switch decl.Kind() {
	case "interface_declaration":
		kind = DeclInterface
		typ = lowerInterface(decl, source)
	case "type_alias_declaration":
		kind = DeclTypeAlias
		typ = lowerTypeAlias(decl, source)
	case "enum_declaration":
		kind = DeclEnum
		typ = lowerEnum(decl, source)
	default:
		return
	}
	if typ == nil {
		return
	}

	result.Declarations = append(result.Declarations, Declaration{
		Name:     typ.name,
		Kind:     kind,
		ModuleID: result.ModuleID,
		Exported: exported,
		Type:     typ.typ,
		Pos:      nodePosition(decl),
	})
}

// unwrapAmbient descends through `declare` wrappers. Returns nil for
// `declare module "x"` ambient blocks, which are not indexed.
func unwrapAmbient(node *ts.Node) *ts.Node {
	if node.Kind() != "ambient_declaration" {
		return node
	}
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			return child
		case "module", "internal_module":
			return nil
		}
	}
	return nil
}

// enclosing walks parents until it finds a node of the given kind.
func enclosing(node *ts.Node, kind string) *ts.Node {
	for n := node; n != nil; n = n.Parent() {
		if n.Kind() == kind {
			return n
		}
	}
	return nil
}

func hasChildOfKind(node *ts.Node, kind string) bool {
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		if node.NamedChild(i).Kind() == kind {
			return true
		}
	}
	return false
}

// nodePosition converts a node's start point to a 1-based Position.
func nodePosition(node *ts.Node) Position {
	point := node.StartPosition()
	return Position{
		Line:   uint32(point.Row) + 1,
		Column: uint32(point.Column) + 1,
	}
}
