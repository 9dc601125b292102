package scoring

import (
	"context"
	"math"
	"sync"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

// Default EM knobs. The tolerance is intentionally far above floating
// point noise so that parallel reduction order cannot stall convergence
// detection.
const (
	DefaultMaxIterations = 20
	DefaultTolerance     = 1e-4
	DefaultInitialM      = 0.9
	DefaultInitialU      = 0.1
)

// Estimator refines per-field m/u probabilities by expectation
// maximization over a two-component Fellegi-Sunter mixture.
type Estimator struct {
	functions    []similarity.Function
	maxIter      int
	tolerance    float64
	fieldWeights []float64
	workers      int
}

// EstimatorOption customizes an Estimator.
type EstimatorOption func(*Estimator)

// WithMaxIterations caps the number of EM iterations. Zero means no
// refinement: the initial parameters are returned unchanged.
func WithMaxIterations(n int) EstimatorOption {
	return func(e *Estimator) { e.maxIter = n }
}

// WithTolerance sets the per-parameter convergence tolerance.
func WithTolerance(tau float64) EstimatorOption {
	return func(e *Estimator) { e.tolerance = tau }
}

// WithFieldWeights sets per-field weights on the accumulators; the
// default weight is 1.0 for every field.
func WithFieldWeights(weights []float64) EstimatorOption {
	return func(e *Estimator) { e.fieldWeights = weights }
}

// WithWorkers sets the parallelism of the similarity pass.
func WithWorkers(n int) EstimatorOption {
	return func(e *Estimator) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// NewEstimator creates an Estimator for the given similarity functions.
func NewEstimator(functions []similarity.Function, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		functions: functions,
		maxIter:   DefaultMaxIterations,
		tolerance: DefaultTolerance,
		workers:   4,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.fieldWeights) != len(functions) {
		e.fieldWeights = make([]float64, len(functions))
		for i := range e.fieldWeights {
			e.fieldWeights[i] = 1.0
		}
	}
	return e
}

// InitialParameters returns the default starting point m=0.9, u=0.1.
func InitialParameters(n int) (m, u []float64) {
	m = make([]float64, n)
	u = make([]float64, n)
	for i := range m {
		m[i] = DefaultInitialM
		u[i] = DefaultInitialU
	}
	return m, u
}

// Estimate refines m and u starting from the given values. The inputs are
// not mutated. It returns the refined parameters and whether every
// parameter moved by no more than the tolerance on the final iteration.
func (e *Estimator) Estimate(ctx context.Context, pairs []models.CandidatePair, initialM, initialU []float64) (m, u []float64, converged bool, err error) {
	n := len(e.functions)
	m = clamp(initialM)
	u = clamp(initialU)

	if e.maxIter <= 0 || len(pairs) == 0 {
		return m, u, false, ctx.Err()
	}

	// Similarities are stateless in the parameters, so one parallel pass
	// serves every iteration.
	sims := e.similarityMatrix(pairs)

	for iter := 0; iter < e.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return m, u, false, err
		}

		mNum := make([]float64, n)
		uNum := make([]float64, n)
		var mDen, uDen float64

		for _, sim := range sims {
			// Soft class posterior for this pair
			pMatch, pUnmatch := 1.0, 1.0
			for i := 0; i < n; i++ {
				pMatch *= m[i]*sim[i] + (1-m[i])*(1-sim[i])
				pUnmatch *= u[i]*sim[i] + (1-u[i])*(1-sim[i])
			}

			total := pMatch + pUnmatch
			if total <= 0 {
				continue
			}
			w := pMatch / total

			for i := 0; i < n; i++ {
				mNum[i] += w * sim[i] * e.fieldWeights[i]
				uNum[i] += (1 - w) * sim[i] * e.fieldWeights[i]
			}
			mDen += w
			uDen += 1 - w
		}

		converged = true
		for i := 0; i < n; i++ {
			nextM := min(max(mNum[i]/(mDen+epsilon), epsilon), 1-epsilon)
			nextU := min(max(uNum[i]/(uDen+epsilon), epsilon), 1-epsilon)

			if math.Abs(nextM-m[i]) > e.tolerance || math.Abs(nextU-u[i]) > e.tolerance {
				converged = false
			}
			m[i] = nextM
			u[i] = nextU
		}

		if converged {
			metrics.EMIterations.WithLabelValues("converged").Add(float64(iter + 1))
			return m, u, true, nil
		}
	}

	metrics.EMIterations.WithLabelValues("capped").Add(float64(e.maxIter))
	return m, u, false, nil
}

// similarityMatrix computes the per-pair similarity vectors with a pool
// of workers writing disjoint rows.
func (e *Estimator) similarityMatrix(pairs []models.CandidatePair) [][]float64 {
	sims := make([][]float64, len(pairs))

	var wg sync.WaitGroup
	chunk := (len(pairs) + e.workers - 1) / e.workers
	for start := 0; start < len(pairs); start += chunk {
		end := min(start+chunk, len(pairs))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for p := start; p < end; p++ {
				row := make([]float64, len(e.functions))
				for i, fn := range e.functions {
					row[i] = fn.Compare(pairs[p].A, pairs[p].B)
				}
				sims[p] = row
			}
		}(start, end)
	}
	wg.Wait()

	return sims
}
