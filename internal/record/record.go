package record

import (
	"bytes"
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// Every source parser emits Records, the query engine and the validator
// consume them.
//
// Values are normalized to nil, bool, int64, float64, string, Record or []any.

// Record is an insertion-ordered mapping from field name to value.
// The zero value is an empty record ready for use.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// New returns an empty record.
func New() Record {
	return Record{fields: orderedmap.New[string, any]()}
}

// FromPairs builds a record from alternating key/value arguments.
// It is mostly useful in tests: FromPairs("id", 1, "name", "alice").
func FromPairs(kv ...any) Record {
	r := New()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		r.Set(key, Normalize(kv[i+1]))
	}
	return r
}

// Set stores value under key. Setting an existing key keeps its position.
func (r *Record) Set(key string, value any) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
	r.fields.Set(key, value)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Has reports whether key is present (a nil value still counts).
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Len returns the number of fields.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns field names in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Each(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Each calls fn for every field in order until fn returns false.
func (r Record) Each(fn func(key string, value any) bool) {
	if r.fields == nil {
		return
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Lookup resolves a dot-separated path through nested records.
// "address.city" reads field "city" of the record stored under "address".
func (r Record) Lookup(path string) (any, bool) {
	if v, ok := r.Get(path); ok || !strings.Contains(path, ".") {
		return v, ok
	}
	current := r
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := current.Get(part)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(Record)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Clone returns a deep copy. Nested records and arrays are copied too.
func (r Record) Clone() Record {
	out := New()
	r.Each(func(k string, v any) bool {
		out.Set(k, cloneValue(v))
		return true
	})
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case Record:
		return tv.Clone()
	case []any:
		cp := make([]any, len(tv))
		for i, e := range tv {
			cp[i] = cloneValue(e)
		}
		return cp
	default:
		return v
	}
}

// Map converts the record into plain map[string]any (nested records included).
// Field order is lost.
func (r Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	r.Each(func(k string, v any) bool {
		m[k] = plain(v)
		return true
	})
	return m
}

func plain(v any) any {
	switch tv := v.(type) {
	case Record:
		return tv.Map()
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes fields in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	r.Each(func(k string, v any) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = json.Marshal(v); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	rec, ok := v.(Record)
	if !ok {
		return &json.UnmarshalTypeError{Value: TypeOf(v), Type: recordType}
	}
	*r = rec
	return nil
}

// ── Collection ─────────────────────────────────────────────

// Collection is an ordered sequence of records.
// Collections are treated as immutable: operations return new slices.
type Collection []Record

// MarshalJSON writes the collection as a JSON array (never null).
func (c Collection) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Record(c))
}

// Maps converts every record with Record.Map.
func (c Collection) Maps() []map[string]any {
	out := make([]map[string]any, len(c))
	for i, r := range c {
		out[i] = r.Map()
	}
	return out
}

// EqualCollections reports whether a and b hold pairwise-equal records in the same order.
func EqualCollections(a, b Collection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
