// Package queries provides tree-sitter query compilation, caching, and execution.
package queries

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/bagsakan/pkg/parser"
	"github.com/gnana997/bagsakan/pkg/parser/queries/calls"
	"github.com/gnana997/bagsakan/pkg/parser/queries/imports"
)

// QueryType identifies which query set to execute.
type QueryType int

const (
	// QueryTypeImports extracts import/export/re-export statements.
	QueryTypeImports QueryType = iota
	// QueryTypeCalls extracts call-expression callees for validator discovery.
	QueryTypeCalls
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeImports:
		return "imports"
	case QueryTypeCalls:
		return "calls"
	default:
		return "unknown"
	}
}

// queryKey uniquely identifies a compiled query (language + type + TSX
// variant; the TSX grammar assigns different node ids).
type queryKey struct {
	lang  parser.Language
	qtype QueryType
	isTSX bool
}

// Manager compiles tree-sitter queries lazily and caches them per
// (language, type). Thread-safe; Close() frees the compiled queries.
type Manager struct {
	parserManager *parser.Manager
	cache         map[queryKey]*ts.Query
	mutex         sync.RWMutex
	logger        *slog.Logger
}

// NewManager creates a query manager. The parser manager is required to
// access language grammars for compilation; logger may be nil.
func NewManager(pm *parser.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		parserManager: pm,
		cache:         make(map[queryKey]*ts.Query),
		logger:        logger,
	}
}

// GetQuery returns the compiled query for a language and type, compiling it
// on first access. isTSX selects the JSX-enabled TypeScript grammar so the
// query matches trees parsed from .tsx files.
func (m *Manager) GetQuery(lang parser.Language, qtype QueryType, isTSX ...bool) (*ts.Query, error) {
	tsx := len(isTSX) > 0 && isTSX[0]
	key := queryKey{lang: lang, qtype: qtype, isTSX: tsx}

	m.mutex.RLock()
	query, exists := m.cache[key]
	m.mutex.RUnlock()
	if exists {
		return query, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if query, exists = m.cache[key]; exists {
		return query, nil
	}

	queryString, err := m.getQueryString(lang, qtype)
	if err != nil {
		return nil, err
	}

	langPtr, err := m.parserManager.GetLanguagePointer(lang, tsx)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", lang, err)
	}

	query, qerr := ts.NewQuery(ts.NewLanguage(langPtr), queryString)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}

	m.cache[key] = query
	m.logger.Debug("compiled query", "language", lang.String(), "type", qtype.String())
	return query, nil
}

func (m *Manager) getQueryString(lang parser.Language, qtype QueryType) (string, error) {
	switch qtype {
	case QueryTypeImports:
		switch lang {
		case parser.LanguageTypeScript:
			return imports.TSQueries, nil
		case parser.LanguageJavaScript:
			return imports.JSQueries, nil
		}
	case QueryTypeCalls:
		switch lang {
		case parser.LanguageTypeScript, parser.LanguageJavaScript:
			// The call-expression shape is identical in both grammars.
			return calls.Queries, nil
		}
	}
	return "", fmt.Errorf("no %s query for language %s", qtype, lang)
}

// QueryMatch represents a single pattern match from query execution.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// QueryCapture represents a single captured node from a query match.
type QueryCapture struct {
	// Name is the full capture name (e.g. "import.source").
	Name string
	// Node is the captured AST node; valid only while the tree is alive.
	Node *ts.Node
	// Text is the source text of the captured node.
	Text string
}

// ExecuteQuery runs a compiled query on a parse tree and returns structured
// matches. The source buffer is needed to extract capture text.
func (m *Manager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		var captures []QueryCapture
		for _, capture := range match.Captures {
			var captureName string
			if int(capture.Index) < len(captureNames) {
				captureName = captureNames[capture.Index]
			}
			captures = append(captures, QueryCapture{
				Name: captureName,
				Node: &capture.Node,
				Text: capture.Node.Utf8Text(source),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}

	return matches, nil
}

// Close releases all compiled queries. After Close the Manager cannot be used.
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, query := range m.cache {
		if query != nil {
			query.Close()
		}
		delete(m.cache, key)
	}
	return nil
}
