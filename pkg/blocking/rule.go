// Package blocking generates candidate record pairs without all-pairs comparison
package blocking

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Rule derives a blocking key from a record. Two records are candidates
// when any rule yields the same key for both.
type Rule struct {
	Name string
	Key  func(r *models.Record) string
}

// FieldRule creates a rule whose key is the literal value of the named
// field, empty when the field is absent.
func FieldRule(field string) Rule {
	return Rule{
		Name: field,
		Key: func(r *models.Record) string {
			return r.Field(field)
		},
	}
}

// NormalizedFieldRule creates a field rule that applies the named
// normalizer chain to the value before it is used as a key.
func NormalizedFieldRule(field string, chain ...string) Rule {
	return Rule{
		Name: field,
		Key: func(r *models.Record) string {
			return normalizers.ApplyChain(r.Field(field), chain...)
		},
	}
}

// FromFields derives one rule per field name.
func FromFields(fields []string) []Rule {
	rules := make([]Rule, 0, len(fields))
	for _, field := range fields {
		rules = append(rules, FieldRule(field))
	}
	return rules
}

// keyOf evaluates a rule's key, treating a panicking key func as
// non-matching for that record.
func keyOf(rule Rule, r *models.Record) (key string, ok bool) {
	defer func() {
		if recover() != nil {
			key, ok = "", false
		}
	}()
	return rule.Key(r), true
}
