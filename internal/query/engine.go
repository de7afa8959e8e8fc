package query

import (
	"sort"
	"strings"

	"fixtures/internal/record"
)

// ── QueryEngine ────────────────────────────────────────────
// Evaluate is a pure function of its inputs: it never mutates the input
// collection and identical inputs always give identical output.
//
// Pipeline, fixed order: filter → project → sort → skip → limit.
// Sort keys are read from the filtered source record, so sorting by a
// field that is not selected still works.

type row struct {
	src record.Record
	out record.Record
}

// Evaluate runs s over c. An invalid spec fails before any work is done.
func Evaluate(c record.Collection, s Spec) (record.Collection, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(c))
	for _, rec := range c {
		if matchAll(rec, s.Where) {
			rows = append(rows, row{src: rec, out: project(rec, s.Select)})
		}
	}

	if len(s.OrderBy) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return compareRows(rows[i].src, rows[j].src, s.OrderBy) < 0
		})
	}

	start := min(s.Skip, len(rows))
	end := len(rows)
	if s.Limit > 0 && s.Limit < end-start {
		end = start + s.Limit
	}

	out := make(record.Collection, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, r.out)
	}
	return out, nil
}

// Filter returns the records matching every condition.
func Filter(c record.Collection, conds ...Condition) (record.Collection, error) {
	return Evaluate(c, Where(conds...))
}

func matchAll(rec record.Record, conds []Condition) bool {
	for _, c := range conds {
		if !c.Match(rec) {
			return false
		}
	}
	return true
}

// project copies the selected fields in the given order. Selected fields
// absent from rec are omitted. Without a selection rec passes through.
func project(rec record.Record, fields []string) record.Record {
	if len(fields) == 0 {
		return rec
	}
	out := record.New()
	for _, f := range fields {
		if v, ok := rec.Lookup(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

func compareRows(a, b record.Record, orders []Order) int {
	for _, o := range orders {
		av, aok := a.Lookup(o.Field)
		bv, bok := b.Lookup(o.Field)
		n := compareSortValues(av, aok, bv, bok)
		if o.Direction == Desc {
			n = -n
		}
		if n != 0 {
			return n
		}
	}
	return 0
}

// Sort rank: absent < null < boolean < number < string < anything else.
func sortRank(v any, present bool) int {
	if !present {
		return 0
	}
	switch v.(type) {
	case nil:
		return 1
	case bool:
		return 2
	case int64, float64:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func compareSortValues(a any, aok bool, b any, bok bool) int {
	ra, rb := sortRank(a, aok), sortRank(b, bok)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 2:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 3:
		c, _ := record.CompareNumbers(a, b)
		return c
	case 4:
		return strings.Compare(a.(string), b.(string))
	default:
		return 0
	}
}
