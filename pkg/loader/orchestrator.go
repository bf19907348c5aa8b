// Package loader runs the load pipeline: normalize, match, consolidate, and
// record every source record of a batch inside a single transaction.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/product"
	"github.com/Ramsey-B/fern/internal/repositories/retryqueue"
	"github.com/Ramsey-B/fern/internal/repositories/skumapping"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizer"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Orchestrator drives batch loads end to end
type Orchestrator struct {
	db         database.DB
	normalizer *normalizer.Normalizer
	resolver   *matching.Resolver
	catalog    *catalog.Manager
	products   *product.Repository
	mappings   *skumapping.Repository
	retries    *retryqueue.Repository
	emitter    *events.Emitter
	logger     ectologger.Logger
	retryDelay time.Duration
}

// NewOrchestrator creates a new load orchestrator
func NewOrchestrator(
	db database.DB,
	norm *normalizer.Normalizer,
	resolver *matching.Resolver,
	cat *catalog.Manager,
	products *product.Repository,
	mappings *skumapping.Repository,
	retries *retryqueue.Repository,
	emitter *events.Emitter,
	logger ectologger.Logger,
	retryDelay time.Duration,
) *Orchestrator {
	if retryDelay <= 0 {
		retryDelay = time.Hour
	}
	return &Orchestrator{
		db:         db,
		normalizer: norm,
		resolver:   resolver,
		catalog:    cat,
		products:   products,
		mappings:   mappings,
		retries:    retries,
		emitter:    emitter,
		logger:     logger,
		retryDelay: retryDelay,
	}
}

// recordOutcome is what a single record contributed to the batch
type recordOutcome struct {
	matched        bool
	createdProduct *models.CanonicalProduct
	updatedProduct *models.CanonicalProduct
}

// LoadBatch processes a batch of source records inside one transaction.
// Processed counts every record attempted. Individual record failures are
// parked on the retry queue and counted under Errors; the rest of the batch
// proceeds. A failure to park a record is systemic and rolls the whole batch
// back.
func (o *Orchestrator) LoadBatch(ctx context.Context, records []models.SourceRecord) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "loader.Orchestrator.LoadBatch")
	defer span.End()

	log := o.logger.WithContext(ctx).WithFields(map[string]any{"batch_size": len(records)})

	result := &models.BatchResult{}
	if len(records) == 0 {
		return result, nil
	}

	ctxTx, tx, err := o.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start batch transaction")
	}
	defer tx.Rollback(ctx)

	var outcomes []recordOutcome
	for _, rec := range records {
		result.Processed++
		outcome, err := o.loadOne(ctxTx, rec)
		if err != nil {
			result.Errors++
			log.WithError(err).WithFields(map[string]any{
				"source":       rec.Source,
				"external_sku": rec.ExternalSKU,
			}).Warn("Record failed; parking for retry")

			if enqErr := o.parkRecord(ctxTx, rec, err); enqErr != nil {
				// cannot even park the record, treat the failure as systemic
				return nil, enqErr
			}
			continue
		}

		if outcome.matched {
			result.Matched++
		}
		if outcome.createdProduct != nil {
			result.NewCanonical++
		}
		if outcome.updatedProduct != nil {
			result.UpdatedCanonical++
		}
		outcomes = append(outcomes, outcome)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit batch")
	}

	// events go out only for work that actually committed
	for _, outcome := range outcomes {
		if outcome.createdProduct != nil {
			o.emitter.EmitProductCreated(ctx, outcome.createdProduct)
		}
		if outcome.updatedProduct != nil {
			o.emitter.EmitProductUpdated(ctx, outcome.updatedProduct)
		}
	}

	log.WithFields(map[string]any{
		"processed":         result.Processed,
		"matched":           result.Matched,
		"new_canonical":     result.NewCanonical,
		"updated_canonical": result.UpdatedCanonical,
		"errors":            result.Errors,
	}).Info("Processed load batch")

	return result, nil
}

// loadOne runs the pipeline for a single record within the batch transaction
func (o *Orchestrator) loadOne(ctx context.Context, rec models.SourceRecord) (recordOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "loader.Orchestrator.loadOne")
	defer span.End()

	var outcome recordOutcome

	if rec.Source == "" || rec.ExternalSKU == "" {
		return outcome, fmt.Errorf("record is missing source or external_sku")
	}

	normalized := o.normalizer.Normalize(rec)

	match, err := o.resolver.Resolve(ctx, normalized)
	if err != nil {
		return outcome, err
	}

	existing, err := o.mappings.GetBySourceSKU(ctx, normalized.Source, normalized.ExternalSKU)
	if err != nil {
		return outcome, err
	}

	var canonicalID string
	switch {
	case existing != nil && existing.Status == models.VerificationStatusManual:
		// a human decided this mapping; reloads keep the decision and only
		// enrich the product it points to
		canonicalID = existing.CanonicalID
	case match.Best != nil:
		canonicalID = match.Best.ID
		outcome.matched = true
	default:
		created := o.catalog.NewProduct(normalized)
		if err := o.products.Create(ctx, created); err != nil {
			return outcome, err
		}
		canonicalID = created.ID
		outcome.createdProduct = created
	}

	// enrich the canonical product with whatever this record adds
	if outcome.createdProduct == nil {
		target, err := o.products.Get(ctx, canonicalID)
		if err != nil {
			return outcome, err
		}
		if target == nil {
			return outcome, fmt.Errorf("canonical product %s not found", canonicalID)
		}
		if update := o.catalog.Enrich(target, normalized); update != nil {
			if err := o.products.ApplyUpdate(ctx, canonicalID, update); err != nil {
				return outcome, err
			}
			if update.Description != nil {
				target.Description = *update.Description
			}
			if update.Attributes != nil {
				target.Attributes = update.Attributes
			}
			outcome.updatedProduct = target
		}
	}

	payload, err := json.Marshal(normalized)
	if err != nil {
		return outcome, err
	}
	fp := fingerprint.Generate(payloadMap(normalized))

	mapping := &models.SkuMapping{
		Source:        normalized.Source,
		ExternalSKU:   normalized.ExternalSKU,
		CanonicalID:   canonicalID,
		Confidence:    match.Score,
		Status:        deriveVerificationStatus(outcome.matched, match.Score, o.resolver.AutoVerifyThreshold()),
		SourcePayload: payload,
		Fingerprint:   fp,
	}
	if existing != nil && existing.Status == models.VerificationStatusManual {
		mapping.Status = existing.Status
		mapping.Confidence = existing.Confidence
		mapping.ResolvedAt = existing.ResolvedAt
		mapping.ResolvedBy = existing.ResolvedBy
		mapping.ResolutionReason = existing.ResolutionReason
	}

	if _, err := o.mappings.Upsert(ctx, mapping); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// parkRecord enqueues a failed record for later replay, inside the batch
// transaction so the entry commits with the batch.
func (o *Orchestrator) parkRecord(ctx context.Context, rec models.SourceRecord, cause error) error {
	return o.retries.Enqueue(ctx, &models.RetryEntry{
		Source:       rec.Source,
		Payload:      rec,
		ErrorMessage: cause.Error(),
		RetryAfter:   time.Now().UTC().Add(o.retryDelay),
	})
}

// deriveVerificationStatus bands a load outcome into a verification status.
// High-confidence matches verify automatically; everything else, including
// every newly created canonical product, waits for review.
func deriveVerificationStatus(matched bool, score, autoVerifyThreshold float64) models.VerificationStatus {
	if matched && score >= autoVerifyThreshold {
		return models.VerificationStatusAuto
	}
	return models.VerificationStatusPending
}

// payloadMap flattens a record for fingerprinting
func payloadMap(rec models.SourceRecord) map[string]any {
	attrs := make(map[string]any, len(rec.Attributes))
	for k, v := range rec.Attributes {
		attrs[k] = v
	}
	return map[string]any{
		"source":       rec.Source,
		"external_sku": rec.ExternalSKU,
		"name":         rec.Name,
		"brand":        rec.Brand,
		"category":     rec.Category,
		"description":  rec.Description,
		"price":        rec.Price,
		"attributes":   attrs,
	}
}
