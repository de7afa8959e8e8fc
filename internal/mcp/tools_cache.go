package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCacheTools() {
	s.mcp.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Return cache counters: hits, misses, evictions, expirations, current and maximum size"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleCacheStats)

	s.mcp.AddTool(mcp.NewTool("clear_cache",
		mcp.WithDescription("Drop every cached collection. Counters are kept."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCache)

	s.mcp.AddTool(mcp.NewTool("invalidate_source",
		mcp.WithDescription("Drop cached entries of one source path, for every format, environment and selector"),
		mcp.WithString("path", mcp.Description("Source path as passed to load_source"), mcp.Required()),
	), s.handleInvalidateSource)
}

func (s *Server) handleCacheStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.provider.CacheStats())
}

func (s *Server) handleClearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.provider.ClearCache()
	return textResult("cache cleared"), nil
}

func (s *Server) handleInvalidateSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, err
	}
	n := s.provider.Invalidate(path)
	return jsonResult(map[string]any{"path": path, "invalidated": n})
}
