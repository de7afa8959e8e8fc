package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"fixtures/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NotificationMethod is the JSON-RPC method of provider event notifications.
const NotificationMethod = "notifications/fixtures/event"

// Server is the MCP server for the fixture provider.
// It exposes tools, resources and prompts so agents can load, query,
// validate and generate test data.
type Server struct {
	mcp      *server.MCPServer
	provider *service.DataProvider
}

// New creates and configures a new MCP server with all tools and resources.
func New(provider *service.DataProvider, version string) *Server {
	s := &Server{provider: provider}

	s.mcp = server.NewMCPServer(
		"fixtures-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	s.registerSourceTools()
	s.registerDataTools()
	s.registerCacheTools()
	s.registerSnapshotTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves MCP on stdin/stdout until ctx ends.
func (s *Server) ServeStdio(ctx context.Context) error {
	slog.Info("mcp: starting stdio server")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Emit implements service.EventEmitter by forwarding provider events to
// every connected client.
func (s *Server) Emit(_ context.Context, event string, data map[string]any) {
	params := map[string]any{"event": event}
	for k, v := range data {
		params[k] = v
	}
	s.mcp.SendNotificationToAllClients(NotificationMethod, params)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failed operation inside the tool result so the
// agent can read it.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func boolPtr(v bool) *bool { return &v }
