package source

import (
	"fmt"
	"net/url"
	"strings"
)

// Format is the closed set of source formats the loader understands.
type Format string

const (
	FormatJSON      Format = "json"
	FormatCSV       Format = "csv"
	FormatYAML      Format = "yaml"
	FormatGenerated Format = "generated"
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatYAML, FormatGenerated}
}

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "generated":
		return FormatGenerated, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Descriptor identifies a source and the logical environment it is drawn from.
type Descriptor struct {
	Path        string `json:"path"`
	Format      Format `json:"format"`
	Environment string `json:"environment,omitempty"`

	// Selector is an optional JSONPath expression (json and yaml only)
	// picking the record array out of a nested document, e.g. "$.data.users[*]".
	Selector string `json:"selector,omitempty"`
}

// Key returns the cache key for the descriptor. Two descriptors that differ
// in path, format, environment or selector never share a key.
func (d Descriptor) Key() string {
	return strings.Join([]string{
		string(d.Format),
		url.PathEscape(d.Environment),
		url.PathEscape(d.Selector),
		d.Path,
	}, "|")
}

// KeyPath returns the source path encoded in a key produced by Key.
func KeyPath(key string) string {
	parts := strings.SplitN(key, "|", 4)
	return parts[len(parts)-1]
}

func (d Descriptor) String() string {
	s := fmt.Sprintf("%s:%s", d.Format, d.Path)
	if d.Environment != "" {
		s += "@" + d.Environment
	}
	if d.Selector != "" {
		s += " " + d.Selector
	}
	return s
}
