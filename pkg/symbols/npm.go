package symbols

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnana997/bagsakan/pkg/util"
)

// NpmResolver maps bare import specifiers to declaration files using the
// ambient node_modules layout. Lookup order follows the package manifest:
// `exports` (preferring the types condition), then `types`, `typings`,
// `main`; subpaths consult `exports` subpath entries first and fall back to
// probing the package root.
type NpmResolver struct {
	cache *util.FileCache
}

// NewNpmResolver creates a resolver reading manifests through the file cache.
func NewNpmResolver(cache *util.FileCache) *NpmResolver {
	return &NpmResolver{cache: cache}
}

// packageManifest is the subset of package.json the resolver reads.
type packageManifest struct {
	Exports json.RawMessage `json:"exports"`
	Types   string          `json:"types"`
	Typings string          `json:"typings"`
	Main    string          `json:"main"`
}

// Resolve returns the declaration file path for a bare specifier, walking up
// from fromDir to find the owning node_modules entry.
func (r *NpmResolver) Resolve(fromDir, specifier string) (string, error) {
	pkgName, subpath := splitSpecifier(specifier)

	pkgRoot, err := findPackageRoot(fromDir, pkgName)
	if err != nil {
		return "", err
	}

	manifest, err := r.readManifest(pkgRoot)
	if err != nil {
		return "", err
	}

	if manifest != nil && len(manifest.Exports) > 0 {
		if target, ok := resolveExports(manifest.Exports, subpath); ok {
			path := filepath.Join(pkgRoot, filepath.FromSlash(target))
			if resolved, ok := probeFile(path); ok {
				return resolved, nil
			}
		}
	}

	if subpath == "" {
		for _, entry := range []string{manifestField(manifest, "types"), manifestField(manifest, "typings"), manifestField(manifest, "main")} {
			if entry == "" {
				continue
			}
			path := filepath.Join(pkgRoot, filepath.FromSlash(entry))
			if resolved, ok := probeFile(path); ok {
				return resolved, nil
			}
		}
		// Last resort: a bare index declaration at the package root.
		for _, candidate := range []string{"index.d.ts", "index.ts"} {
			if resolved, ok := probeFile(filepath.Join(pkgRoot, candidate)); ok {
				return resolved, nil
			}
		}
		return "", fmt.Errorf("package %q has no resolvable entry point", pkgName)
	}

	// Subpath fallback: probe the path directly under the package root.
	base := filepath.Join(pkgRoot, filepath.FromSlash(subpath))
	if resolved, ok := probeFile(base); ok {
		return resolved, nil
	}
	return "", fmt.Errorf("cannot resolve %q in package %q", subpath, pkgName)
}

func (r *NpmResolver) readManifest(pkgRoot string) (*packageManifest, error) {
	data, err := r.cache.Read(filepath.Join(pkgRoot, "package.json"))
	if err != nil {
		// Packages without a manifest still get direct-path probing.
		return nil, nil
	}
	var manifest packageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("malformed package.json in %s: %w", pkgRoot, err)
	}
	return &manifest, nil
}

func manifestField(m *packageManifest, field string) string {
	if m == nil {
		return ""
	}
	switch field {
	case "types":
		return m.Types
	case "typings":
		return m.Typings
	case "main":
		return m.Main
	}
	return ""
}

// splitSpecifier splits "pkg/sub/path" (or "@scope/pkg/sub") into the package
// name and the subpath.
func splitSpecifier(specifier string) (pkgName, subpath string) {
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		pkgName = parts[0] + "/" + parts[1]
		subpath = strings.Join(parts[2:], "/")
	} else {
		pkgName = parts[0]
		subpath = strings.Join(parts[1:], "/")
	}
	return pkgName, subpath
}

// findPackageRoot walks up from fromDir looking for node_modules/<pkg>.
func findPackageRoot(fromDir, pkgName string) (string, error) {
	dir := fromDir
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(pkgName))
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("package %q not found in any node_modules above %s", pkgName, fromDir)
		}
		dir = parent
	}
}

// resolveExports evaluates the manifest's exports field for a subpath
// ("" = the root entry). Returns the target path relative to the package
// root.
func resolveExports(raw json.RawMessage, subpath string) (string, bool) {
	key := "."
	if subpath != "" {
		key = "./" + subpath
	}

	// exports may be a plain string or a conditions object for the root.
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		if key == "." {
			return direct, true
		}
		return "", false
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return "", false
	}

	// Distinguish a subpath map from a bare conditions object: subpath maps
	// key on "." / "./x".
	isSubpathMap := false
	for k := range object {
		if strings.HasPrefix(k, ".") {
			isSubpathMap = true
			break
		}
	}

	if !isSubpathMap {
		if key == "." {
			return resolveExportTarget(raw)
		}
		return "", false
	}

	if entry, ok := object[key]; ok {
		return resolveExportTarget(entry)
	}

	// Single-star patterns: "./*": "./dist/*.d.ts".
	for pattern, entry := range object {
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if !ok {
			continue
		}
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		matched := key[len(prefix) : len(key)-len(suffix)]
		target, ok2 := resolveExportTarget(entry)
		if !ok2 {
			continue
		}
		return strings.Replace(target, "*", matched, 1), true
	}

	return "", false
}

// resolveExportTarget reduces an exports entry (string or conditions object)
// to a path, preferring the types condition.
func resolveExportTarget(raw json.RawMessage) (string, bool) {
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, true
	}

	var conditions map[string]json.RawMessage
	if err := json.Unmarshal(raw, &conditions); err != nil {
		return "", false
	}
	for _, condition := range []string{"types", "default", "import", "require"} {
		if entry, ok := conditions[condition]; ok {
			if target, ok := resolveExportTarget(entry); ok {
				return target, true
			}
		}
	}
	return "", false
}

// probeFile checks path variants a specifier may omit: the exact path, added
// .ts/.d.ts extensions, a .js → declaration swap, and index files.
func probeFile(path string) (string, bool) {
	candidates := []string{path}

	ext := filepath.Ext(path)
	switch ext {
	case ".js", ".mjs", ".cjs":
		base := strings.TrimSuffix(path, ext)
		candidates = append(candidates, base+".d.ts", base+".ts")
	case ".ts", ".tsx":
		// Already a source path.
	default:
		candidates = append(candidates,
			path+".d.ts",
			path+".ts",
			filepath.Join(path, "index.d.ts"),
			filepath.Join(path, "index.ts"),
		)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// isRelative reports whether an import specifier is a relative path.
func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

// resolveRelative maps a relative specifier to the file it names, probing the
// extension variants TypeScript accepts (none, .ts, .d.ts, .js-to-.ts,
// index files).
func resolveRelative(fromDir, specifier string) (string, error) {
	base := filepath.Join(fromDir, filepath.FromSlash(specifier))
	if resolved, ok := probeFile(base); ok {
		return resolved, nil
	}
	return "", fmt.Errorf("cannot resolve relative import %q from %s", specifier, fromDir)
}
