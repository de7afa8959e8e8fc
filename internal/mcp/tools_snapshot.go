package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSnapshotTools() {
	s.mcp.AddTool(mcp.NewTool("save_snapshot", append([]mcp.ToolOption{
		mcp.WithDescription("Load a source and store its records as a named snapshot. Later loads can read it back with path results://<name>."),
		mcp.WithString("name", mcp.Description("Snapshot name; an existing snapshot is replaced"), mcp.Required()),
	}, descriptorArgs()...)...), s.handleSaveSnapshot)

	s.mcp.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List stored snapshots with their record counts"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListSnapshots)

	s.mcp.AddTool(mcp.NewTool("delete_snapshot",
		mcp.WithDescription("Delete a stored snapshot"),
		mcp.WithString("name", mcp.Description("Snapshot name"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSnapshot)
}

func (s *Server) handleSaveSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return nil, err
	}
	d, err := descriptorFromArgs(req)
	if err != nil {
		return nil, err
	}
	info, err := s.provider.Snapshot(ctx, name, d)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(info)
}

func (s *Server) handleListSnapshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.provider.ListSnapshots(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(list)
}

func (s *Server) handleDeleteSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return nil, err
	}
	if err := s.provider.DeleteSnapshot(ctx, name); err != nil {
		return errorResult(err), nil
	}
	return textResult("snapshot deleted: " + name), nil
}
