// Package events handles event emission for catalog lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Event types emitted by the catalog
const (
	EventTypeProductCreated  = "product.created"
	EventTypeProductUpdated  = "product.updated"
	EventTypeMappingVerified = "mapping.verified"
)

// Emitter publishes catalog lifecycle events. Emission is best effort: events
// go out after the batch commits, and a publish failure never fails the
// operation that produced it.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables emission.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitProductCreated emits a product created event
func (e *Emitter) EmitProductCreated(ctx context.Context, product *models.CanonicalProduct) {
	e.emitProduct(ctx, EventTypeProductCreated, product)
}

// EmitProductUpdated emits a product updated event
func (e *Emitter) EmitProductUpdated(ctx context.Context, product *models.CanonicalProduct) {
	e.emitProduct(ctx, EventTypeProductUpdated, product)
}

func (e *Emitter) emitProduct(ctx context.Context, eventType string, product *models.CanonicalProduct) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitProduct")
	defer span.End()

	data, _ := json.Marshal(product)
	event := &kafka.ProductEvent{
		EventType: eventType,
		ProductID: product.ID,
		Name:      product.Name,
		Brand:     product.Brand,
		Category:  product.Category,
		Data:      data,
	}

	if err := e.producer.PublishProductEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"product_id": product.ID,
		}).Error("Failed to emit product event")
	}
}

// EmitMappingVerified emits an event when a human decides a pending mapping
func (e *Emitter) EmitMappingVerified(ctx context.Context, mapping *models.SkuMapping) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMappingVerified")
	defer span.End()

	resolvedBy := ""
	if mapping.ResolvedBy != nil {
		resolvedBy = *mapping.ResolvedBy
	}

	event := &kafka.MappingEvent{
		EventType:   EventTypeMappingVerified,
		MappingID:   mapping.ID,
		Source:      mapping.Source,
		ExternalSKU: mapping.ExternalSKU,
		CanonicalID: mapping.CanonicalID,
		Confidence:  mapping.Confidence,
		Status:      string(mapping.Status),
		ResolvedBy:  resolvedBy,
	}

	if err := e.producer.PublishMappingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"mapping_id": mapping.ID,
		}).Error("Failed to emit mapping event")
	}
}
