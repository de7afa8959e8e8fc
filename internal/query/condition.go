package query

import (
	"errors"
	"fmt"
	"strings"

	"fixtures/internal/record"
)

// ErrInvalidSpec reports a query that cannot be evaluated.
var ErrInvalidSpec = errors.New("invalid query spec")

// SpecError carries the reason a spec was rejected.
type SpecError struct {
	Reason string
}

func (e *SpecError) Error() string { return "invalid query spec: " + e.Reason }

func (e *SpecError) Unwrap() error { return ErrInvalidSpec }

func invalid(format string, args ...any) error {
	return &SpecError{Reason: fmt.Sprintf(format, args...)}
}

// Op is one of the fixed comparison operators.
type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

var ops = map[Op]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true,
	OpLt: true, OpLte: true, OpIn: true, OpNin: true,
}

func (o Op) ordered() bool {
	return o == OpGt || o == OpGte || o == OpLt || o == OpLte
}

func (o Op) set() bool {
	return o == OpIn || o == OpNin
}

// Condition is a leaf of the predicate tree: one operator applied to the
// value found at a dot-separated field path. A where clause is the
// conjunction of its conditions.
type Condition struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Check validates the operator and its operand.
func (c Condition) Check() error {
	if strings.TrimSpace(c.Field) == "" {
		return invalid("empty field path")
	}
	if !ops[c.Op] {
		return invalid("field %s: unknown operator %q", c.Field, c.Op)
	}
	v := record.Normalize(c.Value)
	switch {
	case c.Op.set():
		if _, ok := v.([]any); !ok {
			return invalid("field %s: %s expects an array, got %s", c.Field, c.Op, record.TypeOf(v))
		}
	case c.Op.ordered():
		if t := record.TypeOf(v); t != record.TypeNumber && t != record.TypeString {
			return invalid("field %s: %s expects a number or string, got %s", c.Field, c.Op, t)
		}
	}
	return nil
}

// Match reports whether rec satisfies the condition.
//
// An absent field fails every operator except $ne and $nin, which it
// satisfies. Values of different runtime types never compare, with one
// exception: null is equal only to null and unequal to everything else.
func (c Condition) Match(rec record.Record) bool {
	v, present := rec.Lookup(c.Field)
	operand := record.Normalize(c.Value)

	switch c.Op {
	case OpEq:
		return present && equal(v, operand)
	case OpNe:
		return !present || notEqual(v, operand)
	case OpGt:
		n, ok := compareOrdered(present, v, operand)
		return ok && n > 0
	case OpGte:
		n, ok := compareOrdered(present, v, operand)
		return ok && n >= 0
	case OpLt:
		n, ok := compareOrdered(present, v, operand)
		return ok && n < 0
	case OpLte:
		n, ok := compareOrdered(present, v, operand)
		return ok && n <= 0
	case OpIn:
		if !present {
			return false
		}
		list, _ := operand.([]any)
		for _, e := range list {
			if equal(v, e) {
				return true
			}
		}
		return false
	case OpNin:
		if !present {
			return true
		}
		list, _ := operand.([]any)
		for _, e := range list {
			if !notEqual(v, e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equal(a, b any) bool {
	return record.ValuesEqual(a, b)
}

func notEqual(a, b any) bool {
	if a == nil || b == nil {
		return !(a == nil && b == nil)
	}
	if record.TypeOf(a) != record.TypeOf(b) {
		return false
	}
	return !record.ValuesEqual(a, b)
}

func compareOrdered(present bool, a, b any) (int, bool) {
	if !present {
		return 0, false
	}
	if _, ok := record.AsFloat(a); ok {
		return record.CompareNumbers(a, b)
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}
