package integration

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/linkage"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// TestFullPipeline links a small school dataset end to end: blocking on
// city and zip, edit distance similarity on name, EM refinement, and
// transitive clustering.
func TestFullPipeline(t *testing.T) {
	records := []*models.Record{
		{ID: "s1", Fields: map[string]string{"name": "lincoln elementary school", "city": "springfield", "zip": "62704"}},
		{ID: "s2", Fields: map[string]string{"name": "lincoln elementary school", "city": "springfield", "zip": "62704"}},
		{ID: "s3", Fields: map[string]string{"name": "lincoln elementary", "city": "springfield", "zip": "62704"}},
		{ID: "s4", Fields: map[string]string{"name": "washington high school", "city": "springfield", "zip": "62704"}},
		{ID: "s5", Fields: map[string]string{"name": "roosevelt middle school", "city": "shelbyville", "zip": "62565"}},
		{ID: "s6", Fields: map[string]string{"name": "roosevelt middle school", "city": "shelbyville", "zip": "62565"}},
	}

	engine := linkage.NewEngine(silentLogger(), nil)

	opts := linkage.Options{
		Records:          records,
		BlockingFields:   []string{"city", "zip"},
		SimilarityFields: []string{"name"},
		Kernel:           similarity.KindEditDistance,
		MatchThreshold:   0.0,
		BatchSize:        2,
	}

	result, err := engine.LinkRecords(context.Background(), opts)
	require.NoError(t, err)

	roots := map[string]string{}
	for root, members := range result.Clusters {
		for _, id := range members {
			roots[id] = root
		}
	}

	t.Run("duplicates cluster together", func(t *testing.T) {
		assert.Equal(t, roots["s1"], roots["s2"])
		assert.Equal(t, roots["s5"], roots["s6"])
	})

	t.Run("distinct schools stay apart", func(t *testing.T) {
		assert.NotEqual(t, roots["s1"], roots["s4"])
		assert.NotEqual(t, roots["s1"], roots["s5"])
	})

	t.Run("refined parameters separate the classes", func(t *testing.T) {
		m, u, _, err := engine.EstimateParameters(context.Background(), opts)
		require.NoError(t, err)
		require.Len(t, m, 1)
		require.Len(t, u, 1)
		assert.Greater(t, m[0], u[0])
	})
}

// TestPipelineAcrossKernels runs the same corpus under each kernel and
// expects exact duplicates to merge under all of them.
func TestPipelineAcrossKernels(t *testing.T) {
	records := []*models.Record{
		{ID: "a", Fields: map[string]string{"name": "acme supply co", "city": "ny"}},
		{ID: "b", Fields: map[string]string{"name": "acme supply co", "city": "ny"}},
		{ID: "c", Fields: map[string]string{"name": "zenith logistics", "city": "ny"}},
	}

	for _, kernel := range []similarity.Kind{
		similarity.KindEditDistance,
		similarity.KindJaro,
		similarity.KindCosine,
	} {
		t.Run(string(kernel), func(t *testing.T) {
			engine := linkage.NewEngine(silentLogger(), nil)
			result, err := engine.LinkRecords(context.Background(), linkage.Options{
				Records:          records,
				BlockingFields:   []string{"city"},
				SimilarityFields: []string{"name"},
				Kernel:           kernel,
				MatchThreshold:   0.0,
			})
			require.NoError(t, err)
			assert.Equal(t, 1, result.PairsMerged)
			assert.Len(t, result.Clusters, 2)
		})
	}
}
