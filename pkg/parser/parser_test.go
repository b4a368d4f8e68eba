package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"src/app.ts", LanguageTypeScript},
		{"src/app.tsx", LanguageTypeScript},
		{"src/app.mts", LanguageTypeScript},
		{"types/api.d.ts", LanguageTypeScript},
		{"src/app.js", LanguageJavaScript},
		{"src/app.mjs", LanguageJavaScript},
		{"src/app.jsx", LanguageJavaScript},
		{"README.md", LanguageUnknown},
		{"Makefile", LanguageUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), "path %s", tt.path)
	}
}

func TestIsTSXFile(t *testing.T) {
	assert.True(t, IsTSXFile("src/App.tsx"))
	assert.False(t, IsTSXFile("src/app.ts"))
}

func TestParse_TypeScript(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.Parse([]byte("export interface User { id: number }"), LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
}

func TestParse_SyntaxErrorStillYieldsTree(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.Parse([]byte("export interface Broken {"), LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestParseFile_DetectsLanguage(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	tree, err := m.ParseFile([]byte("const x = 1;"), "src/app.js")
	require.NoError(t, err)
	tree.Close()

	_, err = m.ParseFile([]byte("whatever"), "notes.txt")
	assert.Error(t, err)
}

func TestParse_Concurrent(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := m.Parse([]byte("export type Id = string;"), LanguageTypeScript, false)
			assert.NoError(t, err)
			if tree != nil {
				tree.Close()
			}
		}()
	}
	wg.Wait()
}
