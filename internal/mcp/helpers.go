package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"fixtures/internal/record"
	"fixtures/internal/source"
)

// formatNames lists the accepted values of the "format" argument.
func formatNames() []string {
	var out []string
	for _, f := range source.Formats() {
		out = append(out, string(f))
	}
	return out
}

// descriptorArgs are shared by every tool that reads a source.
func descriptorArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("path", mcp.Description("Source path: relative file, http(s):// URL, results://<snapshot> or generated scenario like login?count=5&seed=1"), mcp.Required()),
		mcp.WithString("format", mcp.Description("Source format"), mcp.Enum(formatNames()...), mcp.Required()),
		mcp.WithString("environment", mcp.Description("Logical environment the data belongs to (optional)")),
		mcp.WithString("selector", mcp.Description("JSONPath selecting the record array in a nested JSON/YAML document, e.g. $.data.users[*] (optional)")),
	}
}

// descriptorFromArgs builds a Descriptor from tool arguments.
func descriptorFromArgs(req mcp.CallToolRequest) (source.Descriptor, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return source.Descriptor{}, err
	}
	format, err := source.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return source.Descriptor{}, err
	}
	return source.Descriptor{
		Path:        path,
		Format:      format,
		Environment: req.GetString("environment", ""),
		Selector:    req.GetString("selector", ""),
	}, nil
}

// rawJSONArg returns the argument as JSON text. It may come as a string
// holding JSON or as an already decoded JSON value.
func rawJSONArg(args map[string]any, key string) ([]byte, bool, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, false, nil
	case string:
		if v == "" {
			return nil, false, nil
		}
		return []byte(v), true, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("marshal %s: %w", key, err)
		}
		return b, true, nil
	}
}

// recordArg decodes a JSON object argument into a Record. Field order is
// kept when the object is passed as a string.
func recordArg(args map[string]any, key string) (record.Record, error) {
	raw, ok, err := rawJSONArg(args, key)
	if err != nil {
		return record.Record{}, err
	}
	if !ok {
		return record.Record{}, fmt.Errorf("%s is required", key)
	}
	v, err := record.DecodeJSON(raw)
	if err != nil {
		return record.Record{}, fmt.Errorf("parse %s: %w", key, err)
	}
	rec, ok := v.(record.Record)
	if !ok {
		return record.Record{}, fmt.Errorf("%s must be a JSON object, got %s", key, record.TypeOf(v))
	}
	return rec, nil
}

// seedArg returns a pointer to the "seed" argument, or nil when absent.
func seedArg(args map[string]any) (*int64, error) {
	v, ok := args["seed"]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok || f != float64(int64(f)) {
		return nil, fmt.Errorf("seed must be an integer")
	}
	seed := int64(f)
	return &seed, nil
}
