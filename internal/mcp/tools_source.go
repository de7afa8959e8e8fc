package mcpserver

import (
	"context"

	"fixtures/internal/query"
	"fixtures/internal/record"
	"fixtures/internal/schema"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSourceTools() {
	s.mcp.AddTool(mcp.NewTool("load_source", append([]mcp.ToolOption{
		mcp.WithDescription("Load a fixture source (JSON, CSV, YAML or a generated scenario) through the cache and return its records. Optionally validate every record against a rule."),
		mcp.WithString("rule", mcp.Description("Validation rule applied to each record (optional, see fixtures://rules)")),
		mcp.WithReadOnlyHintAnnotation(true),
	}, descriptorArgs()...)...), s.handleLoadSource)

	s.mcp.AddTool(mcp.NewTool("query_source", append([]mcp.ToolOption{
		mcp.WithDescription(`Load a fixture source and run a query over it. The query is a JSON object:
{"where": {...}, "select": [...], "orderBy": [{"field": "age", "direction": "asc"}], "skip": 0, "limit": 0}
- where: field paths (dot notation) mapped to a value (equality) or an operator object
- operators: $eq $ne $gt $gte $lt $lte $in $nin
- select: fields kept in the output, in that order
- orderBy: stable multi-key sort, direction asc|desc
- skip/limit: applied last; limit 0 means no limit
Example: {"where": {"active": true, "age": {"$gte": 18}}, "orderBy": [{"field": "age", "direction": "desc"}], "limit": 5}`),
		mcp.WithString("queryJSON", mcp.Description("Query as JSON (see description)"), mcp.Required()),
		mcp.WithReadOnlyHintAnnotation(true),
	}, descriptorArgs()...)...), s.handleQuerySource)
}

type loadResult struct {
	Count   int               `json:"count"`
	Records record.Collection `json:"records"`
	Results []schema.Result   `json:"results,omitempty"`
}

func (s *Server) handleLoadSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := descriptorFromArgs(req)
	if err != nil {
		return nil, err
	}
	rule := req.GetString("rule", "")

	c, err := s.provider.LoadSource(ctx, d)
	if err != nil {
		return errorResult(err), nil
	}
	out := loadResult{Count: len(c), Records: c}
	if rule != "" {
		out.Results = s.provider.ValidateAll(c, rule)
	}
	return jsonResult(out)
}

func (s *Server) handleQuerySource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := descriptorFromArgs(req)
	if err != nil {
		return nil, err
	}

	// queryJSON may come as a string or as a raw JSON object
	raw, ok, err := rawJSONArg(req.GetArguments(), "queryJSON")
	if err != nil {
		return nil, err
	}
	spec := query.New()
	if ok {
		if spec, err = query.ParseSpec(raw); err != nil {
			return errorResult(err), nil
		}
	}

	c, err := s.provider.QuerySource(ctx, d, spec)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(loadResult{Count: len(c), Records: c})
}
