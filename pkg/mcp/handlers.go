package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/bagsakan/pkg/config"
	"github.com/gnana997/bagsakan/pkg/generator"
)

// toolReport is the JSON payload returned by both tools.
type toolReport struct {
	OutputPath  string   `json:"output_path"`
	Written     bool     `json:"written,omitempty"`
	UpToDate    *bool    `json:"up_to_date,omitempty"`
	Files       int      `json:"files_scanned"`
	Validators  int      `json:"validators"`
	Helpers     int      `json:"helpers"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (s *Server) handleGenerateValidators(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := newGenerator(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer gen.Close()

	report, runErr := gen.Run()
	return reportResult(report, nil, runErr)
}

func (s *Server) handleCheckValidators(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := newGenerator(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer gen.Close()

	report, upToDate, runErr := gen.Check()
	return reportResult(report, &upToDate, runErr)
}

func newGenerator(dir string) (*generator.Generator, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return generator.New(cfg, nil)
}

func reportResult(report *generator.Report, upToDate *bool, runErr error) (*mcp.CallToolResult, error) {
	payload := toolReport{
		OutputPath: report.OutputPath,
		Written:    report.Written,
		UpToDate:   upToDate,
		Files:      report.FilesScanned,
		Validators: report.Validators,
		Helpers:    report.Helpers,
	}
	for _, diag := range report.Diagnostics {
		payload.Diagnostics = append(payload.Diagnostics, diag.String())
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", runErr, body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
