package blocking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func rec(id string, fields map[string]string) *models.Record {
	return &models.Record{ID: id, Fields: fields}
}

func collect(t *testing.T, g *Generator) []models.CandidatePair {
	t.Helper()
	var pairs []models.CandidatePair
	for pair := range g.Pairs(context.Background()) {
		pairs = append(pairs, pair)
	}
	return pairs
}

func pairKey(p models.CandidatePair) [2]string {
	return [2]string{p.A.ID, p.B.ID}
}

func TestGenerator_Disjunction(t *testing.T) {
	records := []*models.Record{
		rec("A", map[string]string{"city": "NY", "zip": "10001"}),
		rec("B", map[string]string{"city": "NY", "zip": "99999"}),
		rec("C", map[string]string{"city": "LA", "zip": "10001"}),
	}
	rules := FromFields([]string{"city", "zip"})

	pairs := collect(t, NewGenerator(records, rules, 10))
	require.Len(t, pairs, 2)

	seen := map[[2]string]bool{}
	for _, p := range pairs {
		seen[pairKey(p)] = true
	}
	assert.True(t, seen[[2]string{"A", "B"}], "A-B via city")
	assert.True(t, seen[[2]string{"A", "C"}], "A-C via zip")
}

func TestGenerator_Ordering(t *testing.T) {
	records := []*models.Record{
		rec("b", map[string]string{"k": "x"}),
		rec("a", map[string]string{"k": "x"}),
		rec("c", map[string]string{"k": "x"}),
	}

	pairs := collect(t, NewGenerator(records, FromFields([]string{"k"}), 1))
	require.Len(t, pairs, 3)

	for _, p := range pairs {
		assert.Less(t, p.A.ID, p.B.ID)
	}
}

func TestGenerator_NoDuplicatesAcrossRules(t *testing.T) {
	// Both rules agree on both fields; the pair must still appear once.
	records := []*models.Record{
		rec("1", map[string]string{"city": "NY", "zip": "10001"}),
		rec("2", map[string]string{"city": "NY", "zip": "10001"}),
	}

	pairs := collect(t, NewGenerator(records, FromFields([]string{"city", "zip"}), 10))
	assert.Len(t, pairs, 1)
}

func TestGenerator_BatchOrder(t *testing.T) {
	records := []*models.Record{
		rec("1", map[string]string{"k": "x"}),
		rec("2", map[string]string{"k": "x"}),
		rec("3", map[string]string{"k": "x"}),
		rec("4", map[string]string{"k": "x"}),
	}

	// Batch size 1: record 1's pairs arrive before record 2's, and so on.
	pairs := collect(t, NewGenerator(records, FromFields([]string{"k"}), 1))
	require.Len(t, pairs, 6)

	want := [][2]string{
		{"1", "2"}, {"1", "3"}, {"1", "4"},
		{"2", "3"}, {"2", "4"},
		{"3", "4"},
	}
	for i, p := range pairs {
		assert.Equal(t, want[i], pairKey(p))
	}
}

func TestGenerator_MissingFieldsMatchOnlyEmpties(t *testing.T) {
	records := []*models.Record{
		rec("1", map[string]string{}),
		rec("2", map[string]string{"city": ""}),
		rec("3", map[string]string{"city": "NY"}),
	}

	pairs := collect(t, NewGenerator(records, FromFields([]string{"city"}), 10))
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]string{"1", "2"}, pairKey(pairs[0]))
}

func TestGenerator_PanickingRuleIsNonMatching(t *testing.T) {
	records := []*models.Record{
		rec("1", map[string]string{"city": "NY"}),
		rec("2", map[string]string{"city": "NY"}),
	}

	bad := Rule{
		Name: "bad",
		Key: func(r *models.Record) string {
			panic("key derivation failed")
		},
	}

	t.Run("bad rule alone yields nothing", func(t *testing.T) {
		pairs := collect(t, NewGenerator(records, []Rule{bad}, 10))
		assert.Empty(t, pairs)
	})

	t.Run("other rules still apply", func(t *testing.T) {
		pairs := collect(t, NewGenerator(records, []Rule{bad, FieldRule("city")}, 10))
		assert.Len(t, pairs, 1)
	})
}

func TestGenerator_Cancellation(t *testing.T) {
	records := make([]*models.Record, 50)
	for i := range records {
		records[i] = rec(string(rune('a'+i%26))+string(rune('0'+i/26)), map[string]string{"k": "x"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewGenerator(records, FromFields([]string{"k"}), 5).Pairs(ctx)

	// Take one pair, then abandon the stream.
	_, ok := <-stream
	require.True(t, ok)
	cancel()

	for range stream {
	}
}

func TestNormalizedFieldRule(t *testing.T) {
	rule := NormalizedFieldRule("phone", "digits_only")
	r := rec("1", map[string]string{"phone": "(555) 123-4567"})
	assert.Equal(t, "5551234567", rule.Key(r))
}
