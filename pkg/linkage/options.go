package linkage

import (
	"errors"
	"fmt"
	"math"

	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/idf"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

// ErrInvalidOptions marks configuration problems detected before any
// pipeline work starts.
var ErrInvalidOptions = errors.New("invalid linkage options")

// Options configures a single linkage run.
type Options struct {
	// Records overrides the engine's loader when non-empty.
	Records []*models.Record

	// BlockingFields derives one blocking rule per field whose key is the
	// literal field value. BlockingRules, when set, takes precedence.
	BlockingFields []string
	BlockingRules  []blocking.Rule

	// SimilarityFields + Kernel derive the similarity function list; an
	// explicit Functions list takes precedence. IDF, when nil, is built
	// from the loaded corpus over SimilarityFields.
	SimilarityFields []string
	Kernel           similarity.Kind
	IDF              *idf.Map
	Functions        []similarity.Function

	// MProbs/UProbs are the initial (or current) per-field probabilities.
	// Empty means the standard initialization m=0.9, u=0.1.
	MProbs []float64
	UProbs []float64

	// BatchSize bounds how many records block at once.
	BatchSize int

	// MatchThreshold is compared strictly against pair scores. Scores are
	// log-likelihood ratios, so any finite value is legal, including
	// negative ones.
	MatchThreshold float64

	// EM knobs
	RunEM        bool
	EMMaxIter    int
	EMTolerance  float64
	FieldWeights []float64
}

// DefaultBatchSize bounds blocking batches when the caller does not.
const DefaultBatchSize = 100

func (o *Options) applyDefaults() {
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Kernel == "" {
		o.Kernel = similarity.KindEditDistance
	}
	if o.EMMaxIter == 0 {
		o.EMMaxIter = DefaultEMMaxIterations
	}
	if o.EMTolerance == 0 {
		o.EMTolerance = DefaultEMTolerance
	}
}

// Re-exported EM defaults, so callers configuring Options need not import
// the scoring package.
const (
	DefaultEMMaxIterations = 20
	DefaultEMTolerance     = 1e-4
)

// Validate fails fast on missing or inconsistent options.
func (o *Options) Validate() error {
	if len(o.Functions) == 0 && len(o.SimilarityFields) == 0 {
		return fmt.Errorf("%w: at least one similarity function or field is required", ErrInvalidOptions)
	}
	if len(o.BlockingRules) == 0 && len(o.BlockingFields) == 0 {
		return fmt.Errorf("%w: at least one blocking rule or field is required", ErrInvalidOptions)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidOptions)
	}
	// Scores are LLRs and routinely leave [0, 1]; only non-finite
	// thresholds are rejected.
	if math.IsNaN(o.MatchThreshold) || math.IsInf(o.MatchThreshold, 0) {
		return fmt.Errorf("%w: match threshold must be finite", ErrInvalidOptions)
	}

	n := len(o.Functions)
	if n == 0 {
		n = len(o.SimilarityFields)
	}
	if len(o.MProbs) != len(o.UProbs) {
		return fmt.Errorf("%w: m and u probabilities must have equal length", ErrInvalidOptions)
	}
	if len(o.MProbs) > 0 && len(o.MProbs) != n {
		return fmt.Errorf("%w: m/u probabilities must match the similarity function count (%d)", ErrInvalidOptions, n)
	}
	if len(o.FieldWeights) > 0 && len(o.FieldWeights) != n {
		return fmt.Errorf("%w: field weights must match the similarity function count (%d)", ErrInvalidOptions, n)
	}
	for i := range o.MProbs {
		if o.MProbs[i] <= 0 || o.MProbs[i] >= 1 || o.UProbs[i] <= 0 || o.UProbs[i] >= 1 {
			return fmt.Errorf("%w: m/u probabilities must lie in (0, 1) (field %d)", ErrInvalidOptions, i)
		}
	}
	if o.EMMaxIter < 0 {
		return fmt.Errorf("%w: EM iteration cap must be non-negative", ErrInvalidOptions)
	}
	return nil
}
