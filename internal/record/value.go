package record

import (
	"cmp"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
)

var recordType = reflect.TypeOf(Record{})

// Runtime type names shared by the validator and the query engine.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// TypeOf returns the runtime type name of a normalized value.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int64, float64:
		return TypeNumber
	case Record:
		return TypeObject
	case []any:
		return TypeArray
	}
	switch Normalize(v).(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int64, float64:
		return TypeNumber
	case Record:
		return TypeObject
	case []any:
		return TypeArray
	}
	return "unknown"
}

// Normalize converts arbitrary Go values into the record value domain.
// Plain maps become records with keys sorted by name.
func Normalize(v any) any {
	switch tv := v.(type) {
	case nil, string, bool, int64, float64, Record:
		return tv
	case int:
		return int64(tv)
	case int8:
		return int64(tv)
	case int16:
		return int64(tv)
	case int32:
		return int64(tv)
	case uint:
		return int64(tv)
	case uint8:
		return int64(tv)
	case uint16:
		return int64(tv)
	case uint32:
		return int64(tv)
	case uint64:
		if tv > math.MaxInt64 {
			return float64(tv)
		}
		return int64(tv)
	case float32:
		return float64(tv)
	case json.Number:
		return numberFromString(tv.String())
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = e
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		r := New()
		for _, k := range keys {
			r.Set(k, Normalize(tv[k]))
		}
		return r
	case *Record:
		if tv == nil {
			return nil
		}
		return *tv
	default:
		return v
	}
}

func numberFromString(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return f
}

// AsFloat returns the numeric value of v when v is a number.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// CompareNumbers orders two numbers. Two int64 values compare exactly;
// float64 is used only when either side is a float. ok is false when
// either value is not a number.
func CompareNumbers(a, b any) (int, bool) {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		return cmp.Compare(ai, bi), true
	}
	fa, ok := AsFloat(a)
	if !ok {
		return 0, false
	}
	fb, ok := AsFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

// Equal reports whether two records hold the same fields with equal values.
// Field order is ignored.
func Equal(a, b Record) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Each(func(k string, av any) bool {
		bv, ok := b.Get(k)
		if !ok || !ValuesEqual(av, bv) {
			equal = false
		}
		return equal
	})
	return equal
}

// ValuesEqual compares two normalized values. Numbers compare by value
// (int64(2) equals float64(2)); values of different runtime types are never equal.
func ValuesEqual(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if TypeOf(a) != TypeOf(b) {
		return false
	}
	switch av := a.(type) {
	case nil:
		return true
	case int64:
		if bi, ok := b.(int64); ok {
			return av == bi
		}
		return float64(av) == b.(float64)
	case float64:
		fb, _ := AsFloat(b)
		return av == fb
	case Record:
		return Equal(av, b.(Record))
	case []any:
		bv := b.([]any)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
