package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/bagsakan/pkg/extractor"
)

func TestCompile_DefaultPattern(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	name, ok := p.Match("validateUser")
	require.True(t, ok)
	assert.Equal(t, "User", name)

	name, ok = p.Match("validateOrderWithEnum")
	require.True(t, ok)
	assert.Equal(t, "OrderWithEnum", name)
}

func TestCompile_RequiresUppercaseTypeName(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	_, ok := p.Match("validateuser")
	assert.False(t, ok, "camelCase continuation is not a type capture")

	_, ok = p.Match("validate")
	assert.False(t, ok)
}

func TestCompile_Anchored(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	_, ok := p.Match("prevalidateUser")
	assert.False(t, ok)

	_, ok = p.Match("validateUser2x!")
	assert.False(t, ok)
}

func TestCompile_EscapesLiteralCharacters(t *testing.T) {
	p, err := Compile("is.%(type)?")
	require.NoError(t, err)

	name, ok := p.Match("is.User?")
	require.True(t, ok)
	assert.Equal(t, "User", name)

	_, ok = p.Match("isXUser?")
	assert.False(t, ok, "dot must match literally")
}

func TestCompile_MissingPlaceholder(t *testing.T) {
	_, err := Compile("validateStuff")
	assert.Error(t, err)
}

func TestCompile_DuplicatePlaceholder(t *testing.T) {
	_, err := Compile("%(type)check%(type)")
	assert.Error(t, err)
}

func userFile(moduleID string, callees ...string) *extractor.FileResult {
	calls := make([]extractor.CallSite, len(callees))
	for i, c := range callees {
		calls[i] = extractor.CallSite{Callee: c, Pos: extractor.Position{Line: uint32(i + 1), Column: 1}}
	}
	return &extractor.FileResult{ModuleID: moduleID, UserSource: true, Calls: calls}
}

func TestDiscover_DeduplicatesAndSorts(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	refs := Discover([]*extractor.FileResult{
		userFile("/a.ts", "validateZebra", "validateUser", "validateUser", "other"),
	}, p)

	require.Len(t, refs, 2)
	assert.Equal(t, "validateUser", refs[0].ValidatorName)
	assert.Equal(t, "User", refs[0].TypeName)
	assert.Equal(t, "validateZebra", refs[1].ValidatorName)
}

func TestDiscover_KeepsOneReferencePerModule(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	refs := Discover([]*extractor.FileResult{
		userFile("/a.ts", "validateUser", "validateUser"),
		userFile("/b.ts", "validateUser"),
	}, p)

	// One entry per (validator, module) so cross-module conflicts stay
	// detectable downstream.
	require.Len(t, refs, 2)
	assert.Equal(t, "/a.ts", refs[0].ModuleID)
	assert.Equal(t, "/b.ts", refs[1].ModuleID)
}

func TestDiscover_IgnoresPackageFiles(t *testing.T) {
	p, err := Compile("validate%(type)")
	require.NoError(t, err)

	pkg := userFile("pkg", "validateUser")
	pkg.UserSource = false

	refs := Discover([]*extractor.FileResult{pkg}, p)
	assert.Empty(t, refs)
}
