package source

import (
	"errors"
	"fmt"
)

var (
	ErrSourceNotFound    = errors.New("source not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrParse             = errors.New("parse error")
	ErrSourceTimeout     = errors.New("source timeout")
)

// LoadError attaches the failing descriptor to a load failure.
// It unwraps to one of the sentinel errors above.
type LoadError struct {
	Descriptor Descriptor
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Descriptor, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError describes malformed source content. Line and Column are
// 1-based and zero when the position could not be derived.
type ParseError struct {
	Format Format
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("parse %s: line %d, column %d: %s", e.Format, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("parse %s: line %d: %s", e.Format, e.Line, e.Msg)
	default:
		return fmt.Sprintf("parse %s: %s", e.Format, e.Msg)
	}
}

func (e *ParseError) Unwrap() error { return ErrParse }

// position converts a byte offset into a 1-based line and column.
func position(text []byte, offset int64) (line, col int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	line, col = 1, 1
	for _, b := range text[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
