package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fixtures/internal/record"
)

// parseJSON decodes a JSON document into a Collection. A top-level array
// yields one record per element; a single object is wrapped.
func parseJSON(data []byte, selector string) (record.Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Format: FormatJSON, Msg: "empty document"}
	}

	doc, err := record.DecodeJSON(data)
	if err != nil {
		return nil, jsonParseError(data, err)
	}
	if selector != "" {
		return selectRecords(doc, selector, FormatJSON)
	}
	return toCollection(doc, FormatJSON)
}

func jsonParseError(data []byte, err error) error {
	pe := &ParseError{Format: FormatJSON, Msg: err.Error()}

	var (
		syntax   *json.SyntaxError
		trailing *record.TrailingDataError
	)
	switch {
	case errors.As(err, &syntax):
		pe.Line, pe.Column = position(data, syntax.Offset)
	case errors.As(err, &trailing):
		pe.Line, pe.Column = position(data, trailing.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		pe.Line, pe.Column = position(data, int64(len(data)))
		pe.Msg = "unexpected end of input"
	}
	return pe
}

// toCollection accepts an array of objects, a single object, or nothing.
func toCollection(doc any, format Format) (record.Collection, error) {
	switch v := doc.(type) {
	case nil:
		return record.Collection{}, nil
	case record.Record:
		return record.Collection{v}, nil
	case []any:
		out := make(record.Collection, 0, len(v))
		for i, e := range v {
			r, ok := e.(record.Record)
			if !ok {
				return nil, &ParseError{
					Format: format,
					Msg:    fmt.Sprintf("element %d is %s, expected object", i, record.TypeOf(e)),
				}
			}
			out = append(out, r)
		}
		return out, nil
	default:
		return nil, &ParseError{
			Format: format,
			Msg:    fmt.Sprintf("top-level value is %s, expected array or object", record.TypeOf(doc)),
		}
	}
}
