// Package scoring implements Fellegi-Sunter match scoring and EM parameter estimation
package scoring

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

const epsilon = 1e-10

// Scorer computes log-likelihood ratios for candidate pairs under
// per-field m/u probabilities.
type Scorer struct {
	functions []similarity.Function
	m         []float64
	u         []float64
	workers   int

	// degenerate counts LLR terms skipped because the numerator or
	// denominator was non-positive.
	degenerate atomic.Int64
}

// NewScorer creates a Scorer. The m and u slices must have the same
// length as the function list; callers validate that before any work.
func NewScorer(functions []similarity.Function, m, u []float64) *Scorer {
	return &Scorer{
		functions: functions,
		m:         clamp(m),
		u:         clamp(u),
		workers:   runtime.GOMAXPROCS(0),
	}
}

// SetWorkers overrides the worker count; values below 1 are ignored.
func (s *Scorer) SetWorkers(n int) {
	if n >= 1 {
		s.workers = n
	}
}

// DegenerateTerms returns how many LLR terms have been skipped so far.
func (s *Scorer) DegenerateTerms() int64 {
	return s.degenerate.Load()
}

// ScorePair computes the log-likelihood ratio for a single pair:
//
//	llr = Σ_i log( (m_i·s_i + (1−m_i)·(1−s_i)) / (u_i·s_i + (1−u_i)·(1−s_i)) )
//
// Terms whose numerator or denominator is non-positive are skipped and
// counted, so the result is always finite.
func (s *Scorer) ScorePair(pair models.CandidatePair) models.ScoredPair {
	var llr float64
	for i, fn := range s.functions {
		sim := fn.Compare(pair.A, pair.B)

		num := s.m[i]*sim + (1-s.m[i])*(1-sim)
		den := s.u[i]*sim + (1-s.u[i])*(1-sim)
		if num <= 0 || den <= 0 {
			s.degenerate.Add(1)
			metrics.DegenerateTerms.Inc()
			continue
		}
		llr += math.Log(num / den)
	}

	return models.ScoredPair{
		A:     pair.A,
		B:     pair.B,
		AID:   pair.A.ID,
		BID:   pair.B.ID,
		Score: llr,
	}
}

// ScoreStream scores every pair on the stream in parallel. Each worker
// accumulates into a private buffer; the buffers are combined at join, so
// no pair is lost or duplicated. Output order is unspecified.
func (s *Scorer) ScoreStream(ctx context.Context, pairs <-chan models.CandidatePair) ([]models.ScoredPair, error) {
	buffers := make([][]models.ScoredPair, s.workers)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for pair := range pairs {
				buffers[w] = append(buffers[w], s.ScorePair(pair))
			}
		}(w)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var scored []models.ScoredPair
	for _, buffer := range buffers {
		scored = append(scored, buffer...)
	}
	metrics.PairsScored.Add(float64(len(scored)))
	return scored, nil
}

// Similarities computes the per-function similarity vector for a pair.
func (s *Scorer) Similarities(pair models.CandidatePair) []float64 {
	sims := make([]float64, len(s.functions))
	for i, fn := range s.functions {
		sims[i] = fn.Compare(pair.A, pair.B)
	}
	return sims
}

// clamp copies probabilities into [ε, 1−ε] so later logs stay finite.
func clamp(probs []float64) []float64 {
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = min(max(p, epsilon), 1-epsilon)
	}
	return out
}
