// Package events handles event emission for linkage run lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Emitter publishes linkage lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunCompleted emits a run completed event plus one cluster event per
// multi-member cluster.
func (e *Emitter) EmitRunCompleted(ctx context.Context, runID, dataset string, recordCount int, result *models.LinkResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	payload, _ := json.Marshal(RunCompletedEvent{
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		Dataset:       dataset,
		RecordCount:   recordCount,
		PairsScored:   result.PairsScored,
		PairsMerged:   result.PairsMerged,
		ClusterCount:  len(result.Clusters),
	})

	event := &kafka.LinkageEvent{
		EventType: string(EventTypeRunCompleted),
		RunID:     runID,
		Dataset:   dataset,
		Payload:   payload,
	}
	if err := e.producer.PublishLinkageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run completed event")
		return err
	}

	for root, members := range result.Clusters {
		if len(members) < 2 {
			continue
		}
		if err := e.emitClusterFormed(ctx, runID, dataset, root, members); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitClusterFormed(ctx context.Context, runID, dataset, rootID string, memberIDs []string) error {
	payload, _ := json.Marshal(ClusterFormedEvent{
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		Dataset:       dataset,
		RootID:        rootID,
		MemberIDs:     memberIDs,
	})

	return e.producer.PublishLinkageEvent(ctx, &kafka.LinkageEvent{
		EventType: string(EventTypeClusterFormed),
		RunID:     runID,
		Dataset:   dataset,
		Payload:   payload,
	})
}

// EmitParametersEstimated emits an event carrying refined m/u probabilities.
func (e *Emitter) EmitParametersEstimated(ctx context.Context, runID, dataset string, m, u []float64, converged bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitParametersEstimated")
	defer span.End()

	payload, _ := json.Marshal(ParametersEstimatedEvent{
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		Dataset:       dataset,
		MProbs:        m,
		UProbs:        u,
		Converged:     converged,
	})

	event := &kafka.LinkageEvent{
		EventType: string(EventTypeParametersEstimated),
		RunID:     runID,
		Dataset:   dataset,
		Payload:   payload,
	}
	if err := e.producer.PublishLinkageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit parameters estimated event")
		return err
	}
	return nil
}
