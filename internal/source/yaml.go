package source

import (
	"regexp"
	"strconv"

	"fixtures/internal/record"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// parseYAML decodes the first YAML document. It accepts the same shapes as JSON.
func parseYAML(data []byte, selector string) (record.Collection, error) {
	doc, err := record.DecodeYAML(data)
	if err != nil {
		pe := &ParseError{Format: FormatYAML, Msg: err.Error()}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return nil, pe
	}
	if selector != "" {
		return selectRecords(doc, selector, FormatYAML)
	}
	return toCollection(doc, FormatYAML)
}
