package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// TrailingDataError reports content after the first complete JSON value.
type TrailingDataError struct {
	Offset int64
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("unexpected data after top-level value at offset %d", e.Offset)
}

// DecodeJSON parses one JSON document into normalized values.
// Object key order is preserved; integer literals become int64, other numbers float64.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	offset := dec.InputOffset()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, &TrailingDataError{Offset: offset}
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			r := New()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				r.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return r, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q at offset %d", t, dec.InputOffset())
		}
	case json.Number:
		return numberFromString(t.String()), nil
	default:
		// string, bool, nil
		return t, nil
	}
}

// ErrYAMLTooLarge is returned when alias expansion would build a document
// far larger than its source text.
var ErrYAMLTooLarge = errors.New("yaml document expands beyond the node limit")

// DecodeYAML parses the first YAML document into normalized values, keeping mapping key order.
// An empty document decodes to nil. Aliases are expanded, up to a node budget
// proportional to the input size.
func DecodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	d := &yamlDecoder{budget: yamlNodeBudget(len(data))}
	return d.convert(&doc)
}

// yamlNodeBudget bounds the nodes visited while converting. A document without
// aliases has fewer nodes than bytes, so only alias expansion can exceed it.
func yamlNodeBudget(size int) int {
	return 10_000 + 4*size
}

type yamlDecoder struct {
	budget int
}

func (d *yamlDecoder) convert(n *yaml.Node) (any, error) {
	if d.budget--; d.budget < 0 {
		return nil, fmt.Errorf("line %d: %w", n.Line, ErrYAMLTooLarge)
	}
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.convert(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias %q", n.Line, n.Value)
		}
		return d.convert(n.Alias)
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.convert(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		r := New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, vn := n.Content[i], n.Content[i+1]
			v, err := d.convert(vn)
			if err != nil {
				return nil, err
			}
			if k.Tag == "!!merge" {
				if merged, ok := v.(Record); ok {
					merged.Each(func(mk string, mv any) bool {
						if !r.Has(mk) {
							r.Set(mk, mv)
						}
						return true
					})
					continue
				}
			}
			r.Set(k.Value, v)
		}
		return r, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if ts, ok := v.(time.Time); ok {
			return ts.Format(time.RFC3339Nano), nil
		}
		return Normalize(v), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}
