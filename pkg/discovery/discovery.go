// Package discovery finds validator references in user sources by matching
// call-expression callees against the configured naming pattern.
package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gnana997/bagsakan/pkg/extractor"
)

// Placeholder is the pattern token that captures the target type name.
const Placeholder = "%(type)"

// typeCapture is the capture group substituted for the placeholder. Type
// names are required to start with an uppercase letter, matching the
// PascalCase convention of real validator call sites (validateUser,
// validateOrderWithEnum).
const typeCapture = `([A-Z][A-Za-z0-9_]*)`

// Pattern is a compiled validator-name pattern.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile turns a pattern like "validate%(type)" into an anchored regular
// expression. The pattern must contain the placeholder exactly once; every
// other character is matched literally.
func Compile(pattern string) (*Pattern, error) {
	count := strings.Count(pattern, Placeholder)
	if count == 0 {
		return nil, fmt.Errorf("validator pattern %q does not contain %s", pattern, Placeholder)
	}
	if count > 1 {
		return nil, fmt.Errorf("validator pattern %q contains %s more than once", pattern, Placeholder)
	}

	prefix, suffix, _ := strings.Cut(pattern, Placeholder)
	expr := "^" + regexp.QuoteMeta(prefix) + typeCapture + regexp.QuoteMeta(suffix) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validator pattern %q compiles to invalid regexp: %w", pattern, err)
	}

	return &Pattern{raw: pattern, re: re}, nil
}

// Match returns the captured type name when callee matches the pattern.
func (p *Pattern) Match(callee string) (string, bool) {
	groups := p.re.FindStringSubmatch(callee)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}

// String returns the original pattern text.
func (p *Pattern) String() string { return p.raw }

// Reference is one discovered validator, deduplicated by validator name.
type Reference struct {
	// ValidatorName is the callee as written (and the emitted function name).
	ValidatorName string
	// TypeName is the captured type name to resolve.
	TypeName string
	// ModuleID is the module whose scope the type name resolves in.
	ModuleID string
	// Pos is the first call site, for diagnostics.
	Pos extractor.Position
}

// Discover scans the call sites of user sources and returns discovered
// validator references, sorted by validator name then module for
// deterministic processing. Repeat calls within one module keep the first
// site seen; one entry per module survives so the resolver can detect a
// validator name whose type resolves differently across call sites.
func Discover(files []*extractor.FileResult, pattern *Pattern) []Reference {
	seen := make(map[string]Reference)
	var order []string

	for _, file := range files {
		if !file.UserSource {
			continue
		}
		for _, call := range file.Calls {
			typeName, ok := pattern.Match(call.Callee)
			if !ok {
				continue
			}
			key := call.Callee + "\x00" + file.ModuleID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = Reference{
				ValidatorName: call.Callee,
				TypeName:      typeName,
				ModuleID:      file.ModuleID,
				Pos:           call.Pos,
			}
			order = append(order, key)
		}
	}

	sort.Strings(order)
	refs := make([]Reference, 0, len(order))
	for _, key := range order {
		refs = append(refs, seen[key])
	}
	return refs
}
