package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDataTools() {
	s.mcp.AddTool(mcp.NewTool("validate_record",
		mcp.WithDescription("Validate one record against a named rule. Returns {isValid, errors, warnings}; unrecognized fields are warnings only."),
		mcp.WithString("rule", mcp.Description("Rule name (see fixtures://rules)"), mcp.Required()),
		mcp.WithString("recordJSON", mcp.Description("The record as a JSON object"), mcp.Required()),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleValidateRecord)

	s.mcp.AddTool(mcp.NewTool("generate_data",
		mcp.WithDescription("Generate synthetic records for a scenario. The same seed always reproduces the same records."),
		mcp.WithString("scenario", mcp.Description("Scenario name"), mcp.Enum(s.provider.Scenarios()...), mcp.Required()),
		mcp.WithNumber("count", mcp.Description("Number of records"), mcp.DefaultNumber(10), mcp.Min(0)),
		mcp.WithNumber("seed", mcp.Description("Seed for reproducible output (optional)")),
		mcp.WithString("rule", mcp.Description("Validate each record against this rule (optional)")),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleGenerateData)
}

func (s *Server) handleValidateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rule, err := req.RequireString("rule")
	if err != nil {
		return nil, err
	}
	rec, err := recordArg(req.GetArguments(), "recordJSON")
	if err != nil {
		return nil, err
	}
	return jsonResult(s.provider.Validate(rec, rule))
}

func (s *Server) handleGenerateData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenario, err := req.RequireString("scenario")
	if err != nil {
		return nil, err
	}
	count := req.GetInt("count", 10)
	if count < 0 {
		return nil, fmt.Errorf("count must be non-negative")
	}
	seed, err := seedArg(req.GetArguments())
	if err != nil {
		return nil, err
	}

	g, err := s.provider.GenerateData(scenario, count, seed, req.GetString("rule", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(g)
}
