package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

// nameFn compares the name field with unit-weight token Jaro, so equal
// names score 1 and disjoint names score 0.
func nameFn() similarity.Function {
	return similarity.NewScorer(nil).ForField(similarity.KindJaro, "name")
}

func namedPair(i int, aName, bName string) models.CandidatePair {
	return models.CandidatePair{
		A: &models.Record{ID: pairID(i, "a"), Fields: map[string]string{"name": aName}},
		B: &models.Record{ID: pairID(i, "b"), Fields: map[string]string{"name": bName}},
	}
}

func pairID(i int, side string) string {
	return side + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

// separableCorpus builds pairs where half agree on the field and half
// completely disagree.
func separableCorpus(n int) []models.CandidatePair {
	pairs := make([]models.CandidatePair, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			pairs = append(pairs, namedPair(i, "alice smith", "alice smith"))
		} else {
			pairs = append(pairs, namedPair(i, "bob jones", "carol white"))
		}
	}
	return pairs
}

func TestEstimate_RecoversSeparation(t *testing.T) {
	est := NewEstimator([]similarity.Function{nameFn()})
	m0, u0 := InitialParameters(1)

	m, u, converged, err := est.Estimate(context.Background(), separableCorpus(40), m0, u0)
	require.NoError(t, err)

	assert.True(t, converged, "EM should converge within the default cap")
	assert.Greater(t, m[0], 0.8)
	assert.Less(t, u[0], 0.2)
}

func TestEstimate_ZeroIterationsReturnsInitial(t *testing.T) {
	est := NewEstimator([]similarity.Function{nameFn()}, WithMaxIterations(0))

	m0 := []float64{0.75}
	u0 := []float64{0.25}
	m, u, converged, err := est.Estimate(context.Background(), separableCorpus(10), m0, u0)
	require.NoError(t, err)

	assert.Equal(t, m0, m)
	assert.Equal(t, u0, u)
	assert.False(t, converged)
	// inputs untouched
	assert.Equal(t, []float64{0.75}, m0)
}

func TestEstimate_EmptyPairSet(t *testing.T) {
	est := NewEstimator([]similarity.Function{nameFn()})
	m0, u0 := InitialParameters(1)

	m, u, converged, err := est.Estimate(context.Background(), nil, m0, u0)
	require.NoError(t, err)
	assert.Equal(t, m0, m)
	assert.Equal(t, u0, u)
	assert.False(t, converged)
}

func TestEstimate_ParametersStayInRange(t *testing.T) {
	est := NewEstimator([]similarity.Function{nameFn()}, WithMaxIterations(50))
	m0, u0 := InitialParameters(1)

	// All pairs agree: m and u both climb toward their ceiling but must stay inside (0, 1)
	pairs := make([]models.CandidatePair, 0, 20)
	for i := 0; i < 20; i++ {
		pairs = append(pairs, namedPair(i, "alice smith", "alice smith"))
	}

	m, u, _, err := est.Estimate(context.Background(), pairs, m0, u0)
	require.NoError(t, err)

	assert.Greater(t, m[0], 0.0)
	assert.Less(t, m[0], 1.0)
	assert.Greater(t, u[0], 0.0)
	assert.Less(t, u[0], 1.0)
}

func TestEstimate_FieldWeights(t *testing.T) {
	fns := []similarity.Function{nameFn(), nameFn()}
	est := NewEstimator(fns, WithFieldWeights([]float64{1.0, 0.5}))
	m0, u0 := InitialParameters(2)

	m, u, _, err := est.Estimate(context.Background(), separableCorpus(20), m0, u0)
	require.NoError(t, err)

	// The down-weighted field accumulates half the mass
	assert.InDelta(t, m[0]/2, m[1], 1e-6)
	assert.InDelta(t, u[0]/2, u[1], 1e-6)
}

func TestEstimate_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := NewEstimator([]similarity.Function{nameFn()})
	m0, u0 := InitialParameters(1)

	_, _, _, err := est.Estimate(ctx, separableCorpus(10), m0, u0)
	assert.Error(t, err)
}
