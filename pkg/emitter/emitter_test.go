package emitter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/bagsakan/pkg/synth"
)

func sampleResult() *synth.Result {
	return &synth.Result{
		Functions: []synth.Function{
			{Name: "validateUser", Exported: true, Source: "export function validateUser(data: unknown): data is User {\n  return true;\n}"},
			{Name: "validateAccount", Exported: true, Source: "export function validateAccount(data: unknown): data is Account {\n  return true;\n}"},
			{Name: "__validateRole", Source: "function __validateRole(data: unknown): data is Role {\n  return true;\n}"},
		},
		Imports: map[string]map[string]string{
			"/proj/src/models.ts": {"User": "User", "Role": "Role"},
			"/proj/src/auth.ts":   {"Account": "Account"},
		},
	}
}

func TestRender_Layout(t *testing.T) {
	e := New(nil)
	content := e.Render(sampleResult(), Options{OutputPath: "/proj/src/validators.ts"})

	assert.True(t, strings.HasPrefix(content, "// Generated by bagsakan."))

	// One import line per module, sorted by specifier, names sorted.
	authIdx := strings.Index(content, "import type { Account } from './auth';")
	modelsIdx := strings.Index(content, "import type { Role, User } from './models';")
	require.GreaterOrEqual(t, authIdx, 0)
	require.GreaterOrEqual(t, modelsIdx, 0)
	assert.Less(t, authIdx, modelsIdx)

	// Helpers precede exported functions; exported functions alphabetical.
	helperIdx := strings.Index(content, "function __validateRole")
	accountIdx := strings.Index(content, "export function validateAccount")
	userIdx := strings.Index(content, "export function validateUser")
	assert.Less(t, helperIdx, accountIdx)
	assert.Less(t, accountIdx, userIdx)
}

func TestRender_ImportAliases(t *testing.T) {
	e := New(nil)
	result := &synth.Result{
		Imports: map[string]map[string]string{
			"/proj/src/b.ts": {"Item": "Item2"},
		},
	}
	content := e.Render(result, Options{OutputPath: "/proj/src/validators.ts"})
	assert.Contains(t, content, "import type { Item as Item2 } from './b';")
}

func TestRender_BareSpecifierUntouched(t *testing.T) {
	e := New(nil)
	result := &synth.Result{
		Imports: map[string]map[string]string{
			"pkg/entities": {"R": "R"},
		},
	}

	content := e.Render(result, Options{OutputPath: "/proj/src/validators.ts", UseJsExtensions: true})
	assert.Contains(t, content, "import type { R } from 'pkg/entities';",
		"bare specifiers never get a .js suffix")
}

func TestRender_JsExtensions(t *testing.T) {
	e := New(nil)
	result := &synth.Result{
		Imports: map[string]map[string]string{
			"/proj/src/models.ts": {"User": "User"},
		},
	}

	plain := e.Render(result, Options{OutputPath: "/proj/src/validators.ts"})
	assert.Contains(t, plain, "from './models';")

	esm := e.Render(result, Options{OutputPath: "/proj/src/validators.ts", UseJsExtensions: true})
	assert.Contains(t, esm, "from './models.js';")
}

func TestRender_DtsExtensionStripped(t *testing.T) {
	e := New(nil)
	result := &synth.Result{
		Imports: map[string]map[string]string{
			"/proj/src/types/api.d.ts": {"Api": "Api"},
		},
	}

	content := e.Render(result, Options{OutputPath: "/proj/src/validators.ts"})
	assert.Contains(t, content, "from './types/api';")
}

func TestRender_Deterministic(t *testing.T) {
	e := New(nil)
	opts := Options{OutputPath: "/proj/src/validators.ts"}

	first := e.Render(sampleResult(), opts)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Render(sampleResult(), opts), "render must be byte-stable")
	}
}

func TestWrite_AtomicAndIdempotent(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "src", "validators.ts")
	e := New(nil)
	opts := Options{OutputPath: out}

	wrote, err := e.Write("content-v1\n", opts)
	require.NoError(t, err)
	assert.True(t, wrote)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "content-v1\n", string(data))

	// Identical content skips the write.
	wrote, err = e.Write("content-v1\n", opts)
	require.NoError(t, err)
	assert.False(t, wrote)

	// Changed content writes again.
	wrote, err = e.Write("content-v2\n", opts)
	require.NoError(t, err)
	assert.True(t, wrote)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
