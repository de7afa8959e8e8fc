package schema

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"fixtures/internal/record"
)

// Rule declares the shape a record must have.
// Field names may be dotted paths into nested records.
type Rule struct {
	Required []string          `yaml:"required" json:"required"`
	Types    map[string]string `yaml:"types" json:"types"`
}

var validTypes = map[string]bool{
	record.TypeString:  true,
	record.TypeNumber:  true,
	record.TypeBoolean: true,
	record.TypeObject:  true,
	record.TypeArray:   true,
}

// Check reports malformed rules: unknown type names or blank field names.
func (r Rule) Check() error {
	var errs []error
	for _, f := range r.Required {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, errors.New("blank required field"))
		}
	}
	for _, f := range sortedKeys(r.Types) {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, errors.New("blank typed field"))
		}
		if !validTypes[r.Types[f]] {
			errs = append(errs, fmt.Errorf("field %s: unknown type %q", f, r.Types[f]))
		}
	}
	return errors.Join(errs...)
}

// knownFields returns required ∪ typed fields.
func (r Rule) knownFields() map[string]bool {
	known := make(map[string]bool, len(r.Required)+len(r.Types))
	for _, f := range r.Required {
		known[f] = true
	}
	for f := range r.Types {
		known[f] = true
	}
	return known
}

// Builtin returns the rules registered for the bundled scenarios.
func Builtin() map[string]Rule {
	return map[string]Rule{
		"login": {
			Required: []string{"username", "password"},
			Types: map[string]string{
				"username":       record.TypeString,
				"password":       record.TypeString,
				"rememberMe":     record.TypeBoolean,
				"expectedResult": record.TypeString,
			},
		},
		"registration": {
			Required: []string{"email", "password", "firstName", "lastName"},
			Types: map[string]string{
				"email":        record.TypeString,
				"password":     record.TypeString,
				"firstName":    record.TypeString,
				"lastName":     record.TypeString,
				"age":          record.TypeNumber,
				"acceptTerms":  record.TypeBoolean,
				"address":      record.TypeObject,
				"address.city": record.TypeString,
				"address.zip":  record.TypeString,
				"interests":    record.TypeArray,
			},
		},
		"payment": {
			Required: []string{"cardNumber", "amount", "currency"},
			Types: map[string]string{
				"id":         record.TypeString,
				"cardNumber": record.TypeString,
				"cardHolder": record.TypeString,
				"expiry":     record.TypeString,
				"cvv":        record.TypeString,
				"amount":     record.TypeNumber,
				"currency":   record.TypeString,
				"approved":   record.TypeBoolean,
			},
		},
		"user": {
			Required: []string{"id", "email"},
			Types: map[string]string{
				"id":     record.TypeString,
				"email":  record.TypeString,
				"name":   record.TypeString,
				"age":    record.TypeNumber,
				"active": record.TypeBoolean,
				"roles":  record.TypeArray,
			},
		},
	}
}

// LoadRules reads rules from YAML:
//
//	login:
//	  required: [username, password]
//	  types:
//	    username: string
func LoadRules(r io.Reader) (map[string]Rule, error) {
	var rules map[string]Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]Rule{}, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	var errs []error
	for _, name := range sortedKeys(rules) {
		if err := rules[name].Check(); err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
