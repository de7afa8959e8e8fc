package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"fixtures/internal/record"
)

var (
	csvIntRe     = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	csvDecimalRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)\.[0-9]+$`)
)

// parseCSV treats the first row as the header. Every cell is coerced on its
// own: canonical integers become int64, canonical decimals float64, everything
// else stays the original string.
func parseCSV(data []byte) (record.Collection, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // checked below so the error carries our line number

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return record.Collection{}, nil
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		if seen[name] {
			return nil, &ParseError{Format: FormatCSV, Line: 1, Msg: fmt.Sprintf("duplicate column %q", name)}
		}
		seen[name] = true
		names[i] = name
	}

	out := record.Collection{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := r.FieldPos(0)
		if len(row) != len(names) {
			return nil, &ParseError{
				Format: FormatCSV,
				Line:   line,
				Msg:    fmt.Sprintf("expected %d fields, got %d", len(names), len(row)),
			}
		}

		rec := record.New()
		for i, cell := range row {
			rec.Set(names[i], coerceCell(cell))
		}
		out = append(out, rec)
	}
	return out, nil
}

// coerceCell converts a cell to a number when the trimmed text is a canonical
// integer or decimal. Any other cell is returned verbatim, spaces included.
func coerceCell(cell string) any {
	s := strings.TrimSpace(cell)
	switch {
	case csvIntRe.MatchString(s):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		// out of int64 range
		return cell
	case csvDecimalRe.MatchString(s):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return cell
	default:
		return cell
	}
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Format: FormatCSV, Line: pe.Line, Column: pe.Column, Msg: pe.Err.Error()}
	}
	return &ParseError{Format: FormatCSV, Msg: err.Error()}
}
