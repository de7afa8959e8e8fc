package query

import (
	"fmt"
	"strings"

	"fixtures/internal/record"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one sort key.
type Order struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Spec describes a query: filter → project → sort → skip → limit.
// Limit 0 means no limit.
type Spec struct {
	Where   []Condition `json:"where,omitempty"`
	Select  []string    `json:"select,omitempty"`
	OrderBy []Order     `json:"orderBy,omitempty"`
	Skip    int         `json:"skip,omitempty"`
	Limit   int         `json:"limit,omitempty"`
}

// Validate reports the first problem that makes the spec unusable.
func (s Spec) Validate() error {
	for _, c := range s.Where {
		if err := c.Check(); err != nil {
			return err
		}
	}
	for _, f := range s.Select {
		if strings.TrimSpace(f) == "" {
			return invalid("empty select field")
		}
	}
	for _, o := range s.OrderBy {
		if strings.TrimSpace(o.Field) == "" {
			return invalid("empty orderBy field")
		}
		if o.Direction != Asc && o.Direction != Desc {
			return invalid("orderBy %s: direction must be asc or desc, got %q", o.Field, o.Direction)
		}
	}
	if s.Skip < 0 {
		return invalid("skip must not be negative")
	}
	if s.Limit < 0 {
		return invalid("limit must not be negative")
	}
	return nil
}

// ── Builder ────────────────────────────────────────────────
//
//	query.Where(query.Field("active").Eq(true), query.Field("age").Gte(18)).
//		Sort("age", query.Asc).
//		Take(10)

// New returns an empty spec that matches everything.
func New() Spec { return Spec{} }

// Where starts a spec filtered by conds; all of them must hold.
func Where(conds ...Condition) Spec {
	return Spec{Where: append([]Condition(nil), conds...)}
}

// And appends conditions.
func (s Spec) And(conds ...Condition) Spec {
	s.Where = append(append([]Condition(nil), s.Where...), conds...)
	return s
}

// Project sets the selected fields.
func (s Spec) Project(fields ...string) Spec {
	s.Select = append([]string(nil), fields...)
	return s
}

// Sort appends a sort key.
func (s Spec) Sort(field string, dir Direction) Spec {
	s.OrderBy = append(append([]Order(nil), s.OrderBy...), Order{Field: field, Direction: dir})
	return s
}

// Offset sets how many records to skip.
func (s Spec) Offset(n int) Spec {
	s.Skip = n
	return s
}

// Take sets the maximum number of records returned.
func (s Spec) Take(n int) Spec {
	s.Limit = n
	return s
}

// FieldRef starts a condition on a field path.
type FieldRef string

// Field names the field a condition applies to.
func Field(path string) FieldRef { return FieldRef(path) }

func (f FieldRef) cond(op Op, v any) Condition {
	return Condition{Field: string(f), Op: op, Value: record.Normalize(v)}
}

func (f FieldRef) Eq(v any) Condition  { return f.cond(OpEq, v) }
func (f FieldRef) Ne(v any) Condition  { return f.cond(OpNe, v) }
func (f FieldRef) Gt(v any) Condition  { return f.cond(OpGt, v) }
func (f FieldRef) Gte(v any) Condition { return f.cond(OpGte, v) }
func (f FieldRef) Lt(v any) Condition  { return f.cond(OpLt, v) }
func (f FieldRef) Lte(v any) Condition { return f.cond(OpLte, v) }

func (f FieldRef) In(vs ...any) Condition  { return f.cond(OpIn, vs) }
func (f FieldRef) Nin(vs ...any) Condition { return f.cond(OpNin, vs) }

// ── Parsing ────────────────────────────────────────────────

// ParseSpec decodes the JSON form of a spec:
//
//	{"where": {"active": true, "age": {"$gte": 18}},
//	 "select": ["id", "age"],
//	 "orderBy": [{"field": "age", "direction": "asc"}],
//	 "skip": 0, "limit": 10}
//
// Where-clause conditions keep the document's field order.
func ParseSpec(data []byte) (Spec, error) {
	doc, err := record.DecodeJSON(data)
	if err != nil {
		return Spec{}, invalid("decode: %v", err)
	}
	root, ok := doc.(record.Record)
	if !ok {
		return Spec{}, invalid("spec must be an object, got %s", record.TypeOf(doc))
	}
	return specFromRecord(root)
}

// ParseSpecMap builds a spec from an already decoded JSON object, such as
// tool arguments. Map fields are visited in sorted order.
func ParseSpecMap(m map[string]any) (Spec, error) {
	r, _ := record.Normalize(m).(record.Record)
	return specFromRecord(r)
}

// ParseWhere builds a where clause from a decoded JSON object.
// Field paths are visited in sorted order.
func ParseWhere(m map[string]any) ([]Condition, error) {
	r, _ := record.Normalize(m).(record.Record)
	return parseWhere(r)
}

func specFromRecord(root record.Record) (Spec, error) {
	var (
		s    Spec
		errs []error
	)
	root.Each(func(key string, v any) bool {
		var err error
		switch key {
		case "where":
			w, ok := v.(record.Record)
			if !ok && v != nil {
				err = invalid("where must be an object")
				break
			}
			s.Where, err = parseWhere(w)
		case "select":
			s.Select, err = parseStrings("select", v)
		case "orderBy":
			s.OrderBy, err = parseOrderBy(v)
		case "skip":
			s.Skip, err = parseInt("skip", v)
		case "limit":
			s.Limit, err = parseInt("limit", v)
		default:
			err = invalid("unknown key %q", key)
		}
		if err != nil {
			errs = append(errs, err)
		}
		return err == nil
	})
	if len(errs) > 0 {
		return Spec{}, errs[0]
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

func parseWhere(w record.Record) ([]Condition, error) {
	var conds []Condition
	var err error
	w.Each(func(field string, v any) bool {
		var cs []Condition
		cs, err = parseFieldPredicate(field, v)
		conds = append(conds, cs...)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return conds, nil
}

// parseFieldPredicate turns one where entry into conditions. A bare value
// is an implicit $eq; an object whose keys all start with "$" is an
// operator object; an object without "$" keys is equality on a nested object.
func parseFieldPredicate(field string, v any) ([]Condition, error) {
	if strings.HasPrefix(field, "$") {
		return nil, invalid("unknown operator %q at top level", field)
	}
	obj, ok := v.(record.Record)
	if !ok {
		c := Condition{Field: field, Op: OpEq, Value: v}
		return []Condition{c}, c.Check()
	}

	opKeys, plainKeys := 0, 0
	obj.Each(func(k string, _ any) bool {
		if strings.HasPrefix(k, "$") {
			opKeys++
		} else {
			plainKeys++
		}
		return true
	})
	switch {
	case opKeys == 0:
		return []Condition{{Field: field, Op: OpEq, Value: obj}}, nil
	case plainKeys > 0:
		return nil, invalid("field %s: operator object mixes operators and plain keys", field)
	}

	conds := make([]Condition, 0, opKeys)
	var err error
	obj.Each(func(k string, operand any) bool {
		c := Condition{Field: field, Op: Op(k), Value: operand}
		if err = c.Check(); err != nil {
			return false
		}
		conds = append(conds, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return conds, nil
}

func parseOrderBy(v any) ([]Order, error) {
	arr, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, invalid("orderBy must be an array")
	}
	out := make([]Order, 0, len(arr))
	for i, e := range arr {
		obj, ok := e.(record.Record)
		if !ok {
			return nil, invalid("orderBy[%d] must be an object", i)
		}
		field, _ := obj.Get("field")
		dir, _ := obj.Get("direction")
		fs, ok := field.(string)
		if !ok {
			return nil, invalid("orderBy[%d].field must be a string", i)
		}
		o := Order{Field: fs, Direction: Asc}
		if dir != nil {
			ds, ok := dir.(string)
			if !ok {
				return nil, invalid("orderBy[%d].direction must be a string", i)
			}
			o.Direction = Direction(ds)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseStrings(key string, v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, invalid("%s must be an array of strings", key)
	}
	out := make([]string, len(arr))
	for i, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, invalid("%s[%d] must be a string", key, i)
		}
		out[i] = s
	}
	return out, nil
}

func parseInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, invalid("%s must be an integer", key)
}

// ParseOrderBy parses the compact "field[:asc|desc]" form used on the
// command line, e.g. "age:desc,name".
func ParseOrderBy(s string) ([]Order, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Order
	for _, part := range strings.Split(s, ",") {
		field, dir, found := strings.Cut(strings.TrimSpace(part), ":")
		o := Order{Field: field, Direction: Asc}
		if found {
			o.Direction = Direction(strings.ToLower(dir))
		}
		out = append(out, o)
	}
	spec := Spec{OrderBy: out}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// String renders a condition for logs, e.g. "age $gte 18".
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}
