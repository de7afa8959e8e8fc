package source

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"

	"fixtures/internal/record"
)

// selectRecords evaluates a JSONPath selector against a decoded document.
// jp works on plain maps, so the document is converted first while every
// produced map is indexed back to the ordered Record it came from; matched
// objects are then returned with their original field order.
func selectRecords(doc any, selector string, format Format) (record.Collection, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, &ParseError{Format: format, Msg: fmt.Sprintf("invalid selector %q: %v", selector, err)}
	}

	origin := make(map[uintptr]record.Record)
	results := x.Get(toPlainTree(doc, origin))

	out := record.Collection{}
	for _, m := range results {
		switch v := m.(type) {
		case []any:
			for _, e := range v {
				out = append(out, matchRecord(e, origin))
			}
		default:
			out = append(out, matchRecord(v, origin))
		}
	}
	return out, nil
}

func toPlainTree(v any, origin map[uintptr]record.Record) any {
	switch tv := v.(type) {
	case record.Record:
		m := make(map[string]any, tv.Len())
		tv.Each(func(k string, fv any) bool {
			m[k] = toPlainTree(fv, origin)
			return true
		})
		origin[reflect.ValueOf(m).Pointer()] = tv
		return m
	case []any:
		arr := make([]any, len(tv))
		for i, e := range tv {
			arr[i] = toPlainTree(e, origin)
		}
		return arr
	default:
		return v
	}
}

func matchRecord(v any, origin map[uintptr]record.Record) record.Record {
	if m, ok := v.(map[string]any); ok {
		if r, ok := origin[reflect.ValueOf(m).Pointer()]; ok {
			return r
		}
		if r, ok := record.Normalize(m).(record.Record); ok {
			return r
		}
	}
	if arr, ok := v.([]any); ok {
		plain := make([]any, len(arr))
		for i, e := range arr {
			plain[i] = fromPlain(e, origin)
		}
		return record.FromPairs("value", plain)
	}
	return record.FromPairs("value", v)
}

func fromPlain(v any, origin map[uintptr]record.Record) any {
	switch tv := v.(type) {
	case map[string]any:
		return matchRecord(tv, origin)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = fromPlain(e, origin)
		}
		return out
	default:
		return v
	}
}
