package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("prepare_test_data",
		mcp.WithPromptDescription("Guide through preparing validated test data for a scenario"),
		mcp.WithArgument("scenario",
			mcp.ArgumentDescription("Scenario to prepare data for (e.g. login, payment)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("count",
			mcp.ArgumentDescription("How many records the test needs"),
		),
	), s.handlePrepareTestDataPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("find_records",
		mcp.WithPromptDescription("Build a query that picks specific records out of a fixture file"),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Fixture source path"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("criteria",
			mcp.ArgumentDescription("Plain-language description of the records wanted"),
			mcp.RequiredArgument(),
		),
	), s.handleFindRecordsPrompt)
}

func (s *Server) handlePrepareTestDataPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	scenario := req.Params.Arguments["scenario"]
	count := req.Params.Arguments["count"]
	if count == "" {
		count = "10"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Prepare test data for: %s", scenario),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Prepare %s records of test data for the "%s" scenario. Follow these steps:

1. Read fixtures://scenarios and fixtures://rules to check that the scenario and a matching rule exist
2. Use generate_data with scenario "%s", count %s, a fixed seed and rule "%s"
3. If any result has isValid=false, report the errors instead of using the data
4. Save the records with save_snapshot (path "%s?count=%s&seed=<seed>", format "generated") so later runs can reuse them through results://<name>

Always state the seed you used so the data can be reproduced.`, count, scenario, scenario, count, scenario, scenario, count),
				},
			},
		},
	}, nil
}

func (s *Server) handleFindRecordsPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path := req.Params.Arguments["path"]
	criteria := req.Params.Arguments["criteria"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Find records in %s", path),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Find records in "%s" matching: %s. Follow these steps:

1. Use load_source with a small query first (query_source with {"limit": 3}) to learn the field names
2. Translate the criteria into a where clause using $eq $ne $gt $gte $lt $lte $in $nin; nested fields use dot notation
3. Run query_source with the final query, adding orderBy and limit when the criteria imply an order or a count
4. Remember that comparisons never coerce types: "30" does not match 30`, path, criteria),
				},
			},
		},
	}, nil
}
