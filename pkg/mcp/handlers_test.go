package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

var projectFiles = map[string]string{
	"src/models.ts": `export interface User { id: number; name: string }`,
	"src/app.ts": `
import { User } from './models';
validateUser(x);
`,
}

func TestHandleGenerateValidators(t *testing.T) {
	root := writeProject(t, projectFiles)
	s := NewServer(nil)

	result, err := s.handleGenerateValidators(context.Background(),
		makeRequest("generate_validators", map[string]any{"dir": root}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &payload))
	assert.Equal(t, true, payload["written"])
	assert.Equal(t, float64(1), payload["validators"])

	generated, err := os.ReadFile(filepath.Join(root, "src/validators.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "validateUser")
}

func TestHandleCheckValidators(t *testing.T) {
	root := writeProject(t, projectFiles)
	s := NewServer(nil)

	// Before generation the file is missing: not up to date.
	result, err := s.handleCheckValidators(context.Background(),
		makeRequest("check_validators", map[string]any{"dir": root}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &payload))
	assert.Equal(t, false, payload["up_to_date"])

	// Generate, then the check passes.
	_, err = s.handleGenerateValidators(context.Background(),
		makeRequest("generate_validators", map[string]any{"dir": root}))
	require.NoError(t, err)

	result, err = s.handleCheckValidators(context.Background(),
		makeRequest("check_validators", map[string]any{"dir": root}))
	require.NoError(t, err)

	payload = nil
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &payload))
	assert.Equal(t, true, payload["up_to_date"])
}

func TestHandleGenerateValidators_MissingDir(t *testing.T) {
	s := NewServer(nil)

	result, err := s.handleGenerateValidators(context.Background(),
		makeRequest("generate_validators", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
