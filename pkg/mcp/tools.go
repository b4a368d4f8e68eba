package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generateValidatorsTool runs the full pipeline for a project directory and
// writes the validator file.
func generateValidatorsTool() mcp.Tool {
	return mcp.NewTool("generate_validators",
		mcp.WithDescription("Generate runtime validator functions for the TypeScript project in the given directory, writing the configured validator file."),
		mcp.WithString("dir",
			mcp.Description("Project directory containing bagsakan.toml (defaults apply when the file is absent)."),
			mcp.Required(),
		),
	)
}

// checkValidatorsTool runs the pipeline without writing and reports whether
// the committed validator file is up to date.
func checkValidatorsTool() mcp.Tool {
	return mcp.NewTool("check_validators",
		mcp.WithDescription("Check whether the committed validator file matches what the generator would produce. Useful as a CI gate."),
		mcp.WithString("dir",
			mcp.Description("Project directory containing bagsakan.toml."),
			mcp.Required(),
		),
	)
}
