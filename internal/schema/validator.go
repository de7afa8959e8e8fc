package schema

import (
	"fmt"
	"strings"

	"fixtures/internal/record"
)

// Result is the outcome of validating one record. Validation never fails
// with an error; problems are reported here.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator checks records against named rules. Rules are fixed at
// construction and the validator is safe for concurrent use.
type Validator struct {
	rules map[string]Rule
}

// NewValidator copies rules into a new Validator after checking each one.
func NewValidator(rules map[string]Rule) (*Validator, error) {
	v := &Validator{rules: make(map[string]Rule, len(rules))}
	for _, name := range sortedKeys(rules) {
		rule := rules[name]
		if err := rule.Check(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		types := make(map[string]string, len(rule.Types))
		for k, t := range rule.Types {
			types[k] = t
		}
		v.rules[name] = Rule{Required: append([]string(nil), rule.Required...), Types: types}
	}
	return v, nil
}

// Rules returns the registered rule names, sorted.
func (v *Validator) Rules() []string {
	return sortedKeys(v.rules)
}

// Has reports whether a rule is registered under name.
func (v *Validator) Has(name string) bool {
	_, ok := v.rules[name]
	return ok
}

// Validate checks rec against the rule registered as ruleName.
//
// Errors list missing required fields in rule order, then type mismatches
// sorted by field name. Warnings list record fields the rule does not know,
// in record order.
func (v *Validator) Validate(rec record.Record, ruleName string) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	rule, ok := v.rules[ruleName]
	if !ok {
		res.Errors = append(res.Errors, "unknown rule: "+ruleName)
		return res
	}

	for _, f := range rule.Required {
		if val, ok := rec.Lookup(f); !ok || val == nil {
			res.Errors = append(res.Errors, "missing field: "+f)
		}
	}

	for _, f := range sortedKeys(rule.Types) {
		val, ok := rec.Lookup(f)
		if !ok || val == nil {
			continue
		}
		want := rule.Types[f]
		if record.TypeOf(val) != want {
			res.Errors = append(res.Errors, fmt.Sprintf("type mismatch: %s expected %s", f, want))
		}
	}

	known := rule.knownFields()
	rec.Each(func(k string, _ any) bool {
		if !isKnown(known, k) {
			res.Warnings = append(res.Warnings, "unrecognized field: "+k)
		}
		return true
	})

	res.IsValid = len(res.Errors) == 0
	return res
}

// isKnown accepts a top-level field that is declared itself or is the
// parent of a declared dotted field.
func isKnown(known map[string]bool, field string) bool {
	if known[field] {
		return true
	}
	prefix := field + "."
	for f := range known {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}
