// Package linkage orchestrates the record linkage pipeline:
// blocking -> scoring -> optional EM refinement -> threshold -> clustering.
package linkage

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/cluster"
	"github.com/Ramsey-B/clover/pkg/idf"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/similarity"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Loader supplies the records to link. Implementations are external
// collaborators (SQL repositories, test fixtures); their failures are
// reported to the caller unchanged.
type Loader interface {
	LoadAll(ctx context.Context) ([]*models.Record, error)
	LoadBatch(ctx context.Context, limit, offset int) ([]*models.Record, error)
}

// Engine runs the linkage pipeline over a Loader's records.
type Engine struct {
	logger ectologger.Logger
	loader Loader
}

// NewEngine creates a linkage engine.
func NewEngine(logger ectologger.Logger, loader Loader) *Engine {
	return &Engine{
		logger: logger,
		loader: loader,
	}
}

// LinkRecords runs the full pipeline and returns disjoint clusters of
// record ids keyed by cluster root.
func (e *Engine) LinkRecords(ctx context.Context, opts Options) (*models.LinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Engine.LinkRecords")
	defer span.End()

	run, err := e.prepare(ctx, &opts)
	if err != nil {
		metrics.LinkRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	scored, err := e.score(ctx, run)
	if err != nil {
		metrics.LinkRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if opts.RunEM {
		m, u, _, err := run.estimator.Estimate(ctx, run.pairsOf(scored), run.m, run.u)
		if err != nil {
			metrics.LinkRunsTotal.WithLabelValues("failed").Inc()
			return nil, err
		}
		run.m, run.u = m, u

		// Rescore under the refined parameters
		rescorer := scoring.NewScorer(run.functions, run.m, run.u)
		for i := range scored {
			scored[i] = rescorer.ScorePair(models.CandidatePair{A: scored[i].A, B: scored[i].B})
		}
	}

	// Every record that entered a pair appears in the snapshot, as a
	// singleton when nothing merged. Records no rule ever paired do not.
	forest := cluster.NewForest()
	merged := 0
	for _, pair := range scored {
		forest.Find(pair.AID)
		forest.Find(pair.BID)
		if pair.Score > opts.MatchThreshold {
			forest.Merge(pair.AID, pair.BID)
			merged++
		}
	}

	result := &models.LinkResult{
		Clusters:    forest.Snapshot(),
		PairsScored: len(scored),
		PairsMerged: merged,
	}
	if opts.RunEM {
		result.MProbs = run.m
		result.UProbs = run.u
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"records":      len(run.records),
		"pairs_scored": len(scored),
		"pairs_merged": merged,
		"clusters":     len(result.Clusters),
	}).Info("Linkage run complete")
	metrics.LinkRunsTotal.WithLabelValues("completed").Inc()

	return result, nil
}

// LinkRecordsWithDetails runs the full pipeline and resolves each cluster
// to its member records.
func (e *Engine) LinkRecordsWithDetails(ctx context.Context, opts Options) ([][]*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Engine.LinkRecordsWithDetails")
	defer span.End()

	result, err := e.LinkRecords(ctx, opts)
	if err != nil {
		return nil, err
	}

	records, err := e.loadRecords(ctx, opts)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	clusters := make([][]*models.Record, 0, len(result.Clusters))
	for _, memberIDs := range result.Clusters {
		members := make([]*models.Record, 0, len(memberIDs))
		for _, id := range memberIDs {
			if r, ok := byID[id]; ok {
				members = append(members, r)
			}
		}
		clusters = append(clusters, members)
	}
	return clusters, nil
}

// GenerateCandidatePairs runs blocking only and returns the lazy pair
// stream. The stream closes when the record set is exhausted.
func (e *Engine) GenerateCandidatePairs(ctx context.Context, opts Options) (<-chan models.CandidatePair, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Engine.GenerateCandidatePairs")
	defer span.End()

	run, err := e.prepare(ctx, &opts)
	if err != nil {
		return nil, err
	}
	return run.generator.Pairs(ctx), nil
}

// ScoreCandidatePairs runs blocking and scoring and returns the scored
// pairs in unspecified order.
func (e *Engine) ScoreCandidatePairs(ctx context.Context, opts Options) ([]models.ScoredPair, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Engine.ScoreCandidatePairs")
	defer span.End()

	run, err := e.prepare(ctx, &opts)
	if err != nil {
		return nil, err
	}
	return e.score(ctx, run)
}

// EstimateParameters runs blocking, then EM over the candidate pairs, and
// returns the refined m/u probabilities.
func (e *Engine) EstimateParameters(ctx context.Context, opts Options) (m, u []float64, converged bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Engine.EstimateParameters")
	defer span.End()

	run, err := e.prepare(ctx, &opts)
	if err != nil {
		return nil, nil, false, err
	}

	var pairs []models.CandidatePair
	for pair := range run.generator.Pairs(ctx) {
		pairs = append(pairs, pair)
	}
	metrics.PairsGenerated.Add(float64(len(pairs)))

	return run.estimator.Estimate(ctx, pairs, run.m, run.u)
}

// run holds the per-run state assembled from validated options.
type run struct {
	records   []*models.Record
	functions []similarity.Function
	generator *blocking.Generator
	estimator *scoring.Estimator
	m, u      []float64
}

func (r *run) pairsOf(scored []models.ScoredPair) []models.CandidatePair {
	pairs := make([]models.CandidatePair, len(scored))
	for i, sp := range scored {
		pairs[i] = models.CandidatePair{A: sp.A, B: sp.B}
	}
	return pairs
}

// prepare validates options, loads records and assembles the pipeline
// stages. Configuration problems fail here, before any work is done.
func (e *Engine) prepare(ctx context.Context, opts *Options) (*run, error) {
	opts.applyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	records, err := e.loadRecords(ctx, *opts)
	if err != nil {
		return nil, err
	}

	functions := opts.Functions
	if len(functions) == 0 {
		weights := opts.IDF
		if weights == nil {
			weights = idf.Build(records, opts.SimilarityFields)
		}
		functions = similarity.NewScorer(weights).Functions(opts.Kernel, opts.SimilarityFields)
	}

	m, u := opts.MProbs, opts.UProbs
	if len(m) == 0 && len(u) == 0 {
		m, u = scoring.InitialParameters(len(functions))
	}
	if len(m) != len(functions) || len(u) != len(functions) {
		return nil, fmt.Errorf("%w: m/u probabilities must match the similarity function count (%d)", ErrInvalidOptions, len(functions))
	}

	rules := opts.BlockingRules
	if len(rules) == 0 {
		rules = blocking.FromFields(opts.BlockingFields)
	}

	return &run{
		records:   records,
		functions: functions,
		generator: blocking.NewGenerator(records, rules, opts.BatchSize),
		estimator: scoring.NewEstimator(functions,
			scoring.WithMaxIterations(opts.EMMaxIter),
			scoring.WithTolerance(opts.EMTolerance),
			scoring.WithFieldWeights(opts.FieldWeights),
		),
		m: m,
		u: u,
	}, nil
}

func (e *Engine) score(ctx context.Context, run *run) ([]models.ScoredPair, error) {
	scorer := scoring.NewScorer(run.functions, run.m, run.u)
	pairs := run.generator.Pairs(ctx)

	scored, err := scorer.ScoreStream(ctx, pairs)
	if err != nil {
		return nil, err
	}
	metrics.PairsGenerated.Add(float64(len(scored)))

	if skipped := scorer.DegenerateTerms(); skipped > 0 {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"skipped_terms": skipped,
		}).Warn("Skipped degenerate log-likelihood terms")
	}
	return scored, nil
}

func (e *Engine) loadRecords(ctx context.Context, opts Options) ([]*models.Record, error) {
	if len(opts.Records) > 0 {
		return opts.Records, nil
	}
	if e.loader == nil {
		return nil, fmt.Errorf("%w: no records and no loader configured", ErrInvalidOptions)
	}
	records, err := e.loader.LoadAll(ctx)
	if err != nil {
		// Loader failures are external; report them unchanged.
		return nil, err
	}
	return records, nil
}
