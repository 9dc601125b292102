// Package similarity implements IDF-weighted string similarity kernels
package similarity

import (
	"slices"

	"github.com/Ramsey-B/clover/pkg/idf"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Kind selects one of the similarity kernels.
type Kind string

const (
	KindEditDistance Kind = "edit_distance" // Token-weighted Levenshtein
	KindJaro         Kind = "jaro"          // Token-weighted Jaro
	KindCosine       Kind = "cosine"        // TF-IDF cosine
)

// Function is a named, field-bound similarity measure. Compare is pure and
// returns a value in [0, 1]; the only captured state is the IDF map, which
// is read-only during matching.
type Function struct {
	Name    string
	Field   string
	Compare func(a, b *models.Record) float64
}

// Scorer computes token-level similarities under a fixed IDF map.
type Scorer struct {
	idf *idf.Map
}

// NewScorer creates a Scorer. A nil map behaves as an empty one (every
// token weighs 1.0).
func NewScorer(weights *idf.Map) *Scorer {
	return &Scorer{idf: weights}
}

// ForField binds a kernel to a record field and returns it as a Function.
func (s *Scorer) ForField(kind Kind, field string) Function {
	var compare func(a, b string) float64
	switch kind {
	case KindJaro:
		compare = s.TokenJaro
	case KindCosine:
		compare = s.TFIDFCosine
	default:
		compare = s.TokenEditDistance
	}

	return Function{
		Name:  string(kind) + ":" + field,
		Field: field,
		Compare: func(a, b *models.Record) float64 {
			return compare(a.Field(field), b.Field(field))
		},
	}
}

// Functions builds one Function of the given kind per field name.
func (s *Scorer) Functions(kind Kind, fields []string) []Function {
	fns := make([]Function, 0, len(fields))
	for _, field := range fields {
		fns = append(fns, s.ForField(kind, field))
	}
	return fns
}

// weight returns the IDF weight of a token, defaulting to 1.0.
func (s *Scorer) weight(token string) float64 {
	return s.idf.Weight(token)
}

// totalWeight sums the IDF weights of a token sequence.
func (s *Scorer) totalWeight(tokens []string) float64 {
	var total float64
	for _, t := range tokens {
		total += s.weight(t)
	}
	return total
}

// prepare tokenizes both inputs and resolves the shared edge cases.
// done is true when the similarity is already decided: equal token
// sequences score 1, and an empty side against a non-empty side scores 0.
func prepare(a, b string) (ta, tb []string, score float64, done bool) {
	ta = idf.Tokenize(a)
	tb = idf.Tokenize(b)

	if slices.Equal(ta, tb) {
		return ta, tb, 1.0, true
	}
	if len(ta) == 0 || len(tb) == 0 {
		return ta, tb, 0.0, true
	}
	return ta, tb, 0, false
}
