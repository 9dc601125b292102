// Package idf computes inverse document frequency weights for record tokens
package idf

import (
	"math"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Map holds token weights. It is built once before matching and must not
// be mutated while a run is in flight.
type Map struct {
	weights map[string]float64
}

// New creates a Map from precomputed weights. Negative or non-finite
// weights are dropped.
func New(weights map[string]float64) *Map {
	m := &Map{weights: make(map[string]float64, len(weights))}
	for token, w := range weights {
		if w < 0 || math.IsInf(w, 0) || math.IsNaN(w) {
			continue
		}
		m.weights[token] = w
	}
	return m
}

// Empty returns a Map with no entries; every lookup yields the default weight.
func Empty() *Map {
	return &Map{weights: map[string]float64{}}
}

// Build computes log(N/df) weights over the given fields of a record set.
// Each record contributes a token at most once per field (document frequency,
// not term frequency).
func Build(records []*models.Record, fields []string) *Map {
	df := make(map[string]int)
	n := len(records)

	for _, record := range records {
		seen := make(map[string]bool)
		for _, field := range fields {
			for _, token := range Tokenize(record.Field(field)) {
				if !seen[token] {
					seen[token] = true
					df[token]++
				}
			}
		}
	}

	weights := make(map[string]float64, len(df))
	for token, count := range df {
		weights[token] = math.Log(float64(n) / float64(count))
	}
	return New(weights)
}

// Weight returns the weight for a token. Unknown tokens weigh 1.0.
func (m *Map) Weight(token string) float64 {
	if m == nil {
		return 1.0
	}
	if w, ok := m.weights[token]; ok {
		return w
	}
	return 1.0
}

// Contains reports whether the token has an explicit weight.
func (m *Map) Contains(token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.weights[token]
	return ok
}

// Len returns the number of explicit token weights.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.weights)
}

// Tokenize lowercases the input and splits it on single spaces, dropping
// empty substrings. All similarity kernels share this tokenization.
func Tokenize(s string) []string {
	parts := strings.Split(strings.ToLower(s), " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
