package linkage

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/linkrun"
	"github.com/Ramsey-B/clover/internal/repositories/record"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Service runs linkage over persisted datasets: it drives the engine,
// stores the run outcome, emits lifecycle events and optionally exports
// clusters to the graph database.
type Service struct {
	logger     ectologger.Logger
	recordRepo *record.Repository
	runRepo    *linkrun.Repository
	emitter    *events.Emitter
	clusters   *graph.ClusterService
}

// NewService creates a linkage service. The emitter and cluster service
// may be nil; the corresponding side effects are skipped.
func NewService(
	logger ectologger.Logger,
	recordRepo *record.Repository,
	runRepo *linkrun.Repository,
	emitter *events.Emitter,
	clusters *graph.ClusterService,
) *Service {
	return &Service{
		logger:     logger,
		recordRepo: recordRepo,
		runRepo:    runRepo,
		emitter:    emitter,
		clusters:   clusters,
	}
}

// Run links a dataset and persists the outcome. The returned run id
// identifies the stored snapshot.
func (s *Service) Run(ctx context.Context, dataset string, opts Options) (string, *models.LinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Service.Run")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{"dataset": dataset})

	loader := s.recordRepo.NewLoader(dataset)
	engine := NewEngine(s.logger, loader)

	records, err := loader.LoadAll(ctx)
	if err != nil {
		return "", nil, err
	}
	opts.Records = records

	runFingerprint := fingerprint.Run(dataset, opts.BlockingFields, opts.SimilarityFields, opts.MatchThreshold)
	runID, err := s.runRepo.Create(ctx, dataset, runFingerprint, len(records))
	if err != nil {
		return "", nil, err
	}

	result, err := engine.LinkRecords(ctx, opts)
	if err != nil {
		if failErr := s.runRepo.Fail(ctx, runID); failErr != nil {
			log.WithError(failErr).Warn("Failed to mark link run failed")
		}
		return runID, nil, err
	}

	if err := s.runRepo.Complete(ctx, runID, result); err != nil {
		return runID, result, err
	}

	if s.emitter != nil {
		if err := s.emitter.EmitRunCompleted(ctx, runID, dataset, len(records), result); err != nil {
			log.WithError(err).Warn("Failed to emit run events")
		}
	}

	if s.clusters != nil {
		if err := s.clusters.ExportSnapshot(ctx, runID, result.Clusters); err != nil {
			log.WithError(err).Warn("Failed to export clusters to graph")
		}
	}

	return runID, result, nil
}

// EstimateParameters refines m/u for a dataset and emits the outcome.
func (s *Service) EstimateParameters(ctx context.Context, dataset string, opts Options) (m, u []float64, converged bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Service.EstimateParameters")
	defer span.End()

	loader := s.recordRepo.NewLoader(dataset)
	engine := NewEngine(s.logger, loader)

	m, u, converged, err = engine.EstimateParameters(ctx, opts)
	if err != nil {
		return nil, nil, false, err
	}

	if s.emitter != nil {
		runFingerprint := fingerprint.Run(dataset, opts.BlockingFields, opts.SimilarityFields, opts.MatchThreshold)
		if emitErr := s.emitter.EmitParametersEstimated(ctx, runFingerprint, dataset, m, u, converged); emitErr != nil {
			s.logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit parameter event")
		}
	}
	return m, u, converged, nil
}

// ScorePairs scores a dataset's candidate pairs without clustering.
func (s *Service) ScorePairs(ctx context.Context, dataset string, opts Options) ([]models.ScoredPair, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Service.ScorePairs")
	defer span.End()

	engine := NewEngine(s.logger, s.recordRepo.NewLoader(dataset))
	return engine.ScoreCandidatePairs(ctx, opts)
}
