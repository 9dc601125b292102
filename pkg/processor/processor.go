// Package processor consumes record messages and stages them for linkage
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	recordrepo "github.com/Ramsey-B/clover/internal/repositories/record"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Processor ingests records from the input topic into the record store.
type Processor struct {
	logger     ectologger.Logger
	recordRepo *recordrepo.Repository
	consumer   *kafka.Consumer
}

// New creates an ingestion processor bound to the given consumer config.
func New(cfg kafka.ConsumerConfig, logger ectologger.Logger, recordRepo *recordrepo.Repository) *Processor {
	p := &Processor{
		logger:     logger,
		recordRepo: recordRepo,
	}
	p.consumer = kafka.NewConsumer(cfg, logger, p.handleMessage)
	return p
}

// Start begins consuming record messages.
func (p *Processor) Start(ctx context.Context) error {
	return p.consumer.Start(ctx)
}

// Stop drains the consumer.
func (p *Processor) Stop() error {
	return p.consumer.Stop()
}

func (p *Processor) handleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.handleMessage")
	defer span.End()

	record := &models.Record{
		ID:      msg.Record.ID,
		Dataset: msg.Record.Dataset,
		Fields:  msg.Record.Fields,
	}

	if err := p.recordRepo.Upsert(ctx, record); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": record.ID,
			"dataset":   record.Dataset,
		}).Error("Failed to stage record")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"record_id": record.ID,
		"dataset":   record.Dataset,
	}).Debug("Staged record")
	return nil
}
