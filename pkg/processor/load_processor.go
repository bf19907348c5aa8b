// Package processor wires Kafka messages into the load pipeline.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// LoadProcessor handles extract batch messages from upstream extractors
type LoadProcessor struct {
	logger       ectologger.Logger
	orchestrator *loader.Orchestrator
}

// NewLoadProcessor creates a new load processor
func NewLoadProcessor(logger ectologger.Logger, orchestrator *loader.Orchestrator) *LoadProcessor {
	return &LoadProcessor{
		logger:       logger,
		orchestrator: orchestrator,
	}
}

// ProcessMessage loads a batch of source records from an extract message.
// Returning an error leaves the message uncommitted for redelivery.
func (p *LoadProcessor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "LoadProcessor.ProcessMessage")
	defer span.End()

	records := msg.Records()
	if len(records) == 0 {
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Warn("Extract message carried no records")
		return nil
	}

	batchID := msg.GetBatchID()
	if batchID == "" {
		batchID = uuid.New().String()
	}
	ctx = appcontext.SetBatchID(ctx, batchID)
	ctx = appcontext.SetSource(ctx, msg.GetSource())

	result, err := p.orchestrator.LoadBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id":  batchID,
		"source":    msg.GetSource(),
		"processed": result.Processed,
		"errors":    result.Errors,
	}).Info("Loaded extract batch")

	return nil
}
