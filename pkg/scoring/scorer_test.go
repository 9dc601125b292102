package scoring

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

// constantFn returns a similarity function pinned to a fixed value.
func constantFn(value float64) similarity.Function {
	return similarity.Function{
		Name: fmt.Sprintf("const:%v", value),
		Compare: func(a, b *models.Record) float64 {
			return value
		},
	}
}

func pairOf(aID, bID string) models.CandidatePair {
	return models.CandidatePair{
		A: &models.Record{ID: aID, Fields: map[string]string{}},
		B: &models.Record{ID: bID, Fields: map[string]string{}},
	}
}

func TestScorePair_LLRSign(t *testing.T) {
	t.Run("full agreement is positive", func(t *testing.T) {
		s := NewScorer([]similarity.Function{constantFn(1)}, []float64{0.9}, []float64{0.1})
		scored := s.ScorePair(pairOf("a", "b"))
		assert.InDelta(t, math.Log(9), scored.Score, 1e-12)
	})

	t.Run("full disagreement is negative", func(t *testing.T) {
		s := NewScorer([]similarity.Function{constantFn(0)}, []float64{0.9}, []float64{0.1})
		scored := s.ScorePair(pairOf("a", "b"))
		assert.InDelta(t, -math.Log(9), scored.Score, 1e-12)
	})

	t.Run("terms sum over fields", func(t *testing.T) {
		s := NewScorer(
			[]similarity.Function{constantFn(1), constantFn(1)},
			[]float64{0.9, 0.9}, []float64{0.1, 0.1},
		)
		scored := s.ScorePair(pairOf("a", "b"))
		assert.InDelta(t, 2*math.Log(9), scored.Score, 1e-12)
	})

	t.Run("identical inputs score positive when m exceeds u", func(t *testing.T) {
		scorer := similarity.NewScorer(nil)
		fn := scorer.ForField(similarity.KindEditDistance, "name")
		s := NewScorer([]similarity.Function{fn}, []float64{0.8}, []float64{0.2})

		pair := models.CandidatePair{
			A: &models.Record{ID: "a", Fields: map[string]string{"name": "alice smith"}},
			B: &models.Record{ID: "b", Fields: map[string]string{"name": "alice smith"}},
		}
		assert.Greater(t, s.ScorePair(pair).Score, 0.0)
	})
}

func TestScorePair_Deterministic(t *testing.T) {
	s := NewScorer(
		[]similarity.Function{constantFn(0.37), constantFn(0.91)},
		[]float64{0.85, 0.7}, []float64{0.15, 0.3},
	)
	pair := pairOf("a", "b")

	first := s.ScorePair(pair)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Score, s.ScorePair(pair).Score)
	}
}

func TestScorePair_NeverInfinite(t *testing.T) {
	// Extreme parameters clamp to (0, 1) so no term can hit log(0)
	s := NewScorer([]similarity.Function{constantFn(1)}, []float64{1}, []float64{0})
	scored := s.ScorePair(pairOf("a", "b"))
	assert.False(t, math.IsInf(scored.Score, 0))
	assert.False(t, math.IsNaN(scored.Score))
}

func TestScoreStream(t *testing.T) {
	s := NewScorer([]similarity.Function{constantFn(1)}, []float64{0.9}, []float64{0.1})
	s.SetWorkers(4)

	pairs := make(chan models.CandidatePair)
	go func() {
		defer close(pairs)
		for i := 0; i < 500; i++ {
			pairs <- pairOf(fmt.Sprintf("a%03d", i), fmt.Sprintf("b%03d", i))
		}
	}()

	scored, err := s.ScoreStream(context.Background(), pairs)
	require.NoError(t, err)
	require.Len(t, scored, 500)

	t.Run("no pair lost or duplicated", func(t *testing.T) {
		seen := map[string]bool{}
		for _, sp := range scored {
			key := sp.AID + "|" + sp.BID
			assert.False(t, seen[key], "duplicate %s", key)
			seen[key] = true
		}
		assert.Len(t, seen, 500)
	})

	t.Run("ids carried through", func(t *testing.T) {
		for _, sp := range scored {
			assert.Less(t, sp.AID, sp.BID)
		}
	})
}
