package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fixtures/internal/reader"
	"fixtures/internal/source"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── fixtures://rules ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"fixtures://rules",
		"Validation Rules",
		mcp.WithMIMEType("application/json"),
	), s.handleRulesResource)

	// ── fixtures://scenarios ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"fixtures://scenarios",
		"Generator Scenarios",
		mcp.WithMIMEType("application/json"),
	), s.handleScenariosResource)

	// ── fixtures://snapshot/{name} ─────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"fixtures://snapshot/{name}",
			"Stored Snapshot",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleSnapshotResource,
	)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, s.provider.Rules())
}

func (s *Server) handleScenariosResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, s.provider.Scenarios())
}

func (s *Server) handleSnapshotResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	name := snapshotNameFromURI(uri)
	if name == "" {
		return nil, fmt.Errorf("could not extract snapshot name from URI: %s", uri)
	}

	c, err := s.provider.LoadSource(ctx, source.Descriptor{
		Path:   reader.SnapshotScheme + name,
		Format: source.FormatJSON,
	})
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, c)
}

// snapshotNameFromURI extracts the name from "fixtures://snapshot/{name}".
func snapshotNameFromURI(uri string) string {
	const prefix = "fixtures://snapshot/"
	name, ok := strings.CutPrefix(uri, prefix)
	if !ok || strings.Contains(name, "/") {
		return ""
	}
	return name
}
