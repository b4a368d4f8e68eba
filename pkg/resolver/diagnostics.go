package resolver

import (
	"fmt"

	"github.com/gnana997/bagsakan/pkg/extractor"
)

// DiagKind classifies pipeline diagnostics.
type DiagKind int

const (
	DiagParseError DiagKind = iota
	DiagUnresolved
	DiagCircularImport
	DiagConflict
	DiagUnsupportedType
)

// String returns the diagnostic kind label shown to the user.
func (k DiagKind) String() string {
	switch k {
	case DiagParseError:
		return "parse error"
	case DiagUnresolved:
		return "unresolved"
	case DiagCircularImport:
		return "circular import"
	case DiagConflict:
		return "conflict"
	case DiagUnsupportedType:
		return "unsupported type"
	default:
		return "error"
	}
}

// Fatal reports whether this kind aborts the run. Per-validator kinds only
// skip the affected validator.
func (k DiagKind) Fatal() bool {
	return k == DiagParseError || k == DiagConflict
}

// Diagnostic is one user-facing problem report, bound to a file position
// when one is available.
type Diagnostic struct {
	Kind      DiagKind
	File      string
	Pos       extractor.Position
	Validator string
	Message   string
}

// String formats the diagnostic as file:line:col: kind: message, with the
// validator name inserted before the message when set
// (file:line:col: kind: validator: message).
func (d Diagnostic) String() string {
	location := d.File
	if d.Pos.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", d.File, d.Pos.Line, d.Pos.Column)
	}
	prefix := ""
	if location != "" {
		prefix = location + ": "
	}
	if d.Validator != "" {
		return fmt.Sprintf("%s%s: %s: %s", prefix, d.Kind, d.Validator, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", prefix, d.Kind, d.Message)
}
