package skumapping

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles sku mapping persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new sku mapping repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the result of an upsert operation
type UpsertResult struct {
	Mapping *models.SkuMapping
	IsNew   bool
}

// Upsert creates or updates the mapping for (source, external_sku). Exactly
// one row exists per pair; later loads update it in place.
func (r *Repository) Upsert(ctx context.Context, mapping *models.SkuMapping) (*UpsertResult, error) {
	ctx2, span := tracing.StartSpan(ctx, "skumapping.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx2).WithFields(map[string]any{
		"source":       mapping.Source,
		"external_sku": mapping.ExternalSKU,
		"canonical_id": mapping.CanonicalID,
	})

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO sku_mappings (
			id, source, external_sku, canonical_id, confidence, status,
			source_payload, fingerprint, created_at, updated_at, resolved_at, resolved_by, resolution_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (source, external_sku)
		DO UPDATE SET
			canonical_id = EXCLUDED.canonical_id,
			confidence = EXCLUDED.confidence,
			status = EXCLUDED.status,
			source_payload = EXCLUDED.source_payload,
			fingerprint = EXCLUDED.fingerprint,
			updated_at = EXCLUDED.updated_at,
			resolved_at = EXCLUDED.resolved_at,
			resolved_by = EXCLUDED.resolved_by,
			resolution_reason = EXCLUDED.resolution_reason
		RETURNING
			id, source, external_sku, canonical_id, confidence, status,
			source_payload, fingerprint, created_at, updated_at, resolved_at, resolved_by, resolution_reason,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.SkuMapping
		Inserted bool `db:"inserted"`
	}

	err = tx.GetContext(ctxTx, &result, query,
		id, mapping.Source, mapping.ExternalSKU, mapping.CanonicalID, mapping.Confidence, mapping.Status,
		mapping.SourcePayload, mapping.Fingerprint, now, now, mapping.ResolvedAt, mapping.ResolvedBy, mapping.ResolutionReason,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert sku mapping")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert sku mapping")
	}

	if err := tx.Commit(ctx2); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created sku mapping")
	} else {
		log.WithFields(map[string]any{"id": result.ID}).Debug("Updated sku mapping")
	}

	return &UpsertResult{Mapping: &result.SkuMapping, IsNew: result.Inserted}, nil
}

// GetByID retrieves a mapping by ID. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.SkuMapping, error) {
	ctx2, span := tracing.StartSpan(ctx, "skumapping.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "source", "external_sku", "canonical_id", "confidence", "status",
		"source_payload", "fingerprint", "created_at", "updated_at", "resolved_at", "resolved_by", "resolution_reason")
	sb.From("sku_mappings")
	sb.Where(sb.Equal("id", id))
	sb.Limit(1)

	return r.getMapping(ctx2, sb, map[string]any{"id": id})
}

// GetBySourceSKU retrieves the mapping for a (source, external_sku) pair.
// Returns nil when the pair has never been loaded.
func (r *Repository) GetBySourceSKU(ctx context.Context, source, externalSKU string) (*models.SkuMapping, error) {
	ctx2, span := tracing.StartSpan(ctx, "skumapping.Repository.GetBySourceSKU")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "source", "external_sku", "canonical_id", "confidence", "status",
		"source_payload", "fingerprint", "created_at", "updated_at", "resolved_at", "resolved_by", "resolution_reason")
	sb.From("sku_mappings")
	sb.Where(sb.Equal("source", source), sb.Equal("external_sku", externalSKU))
	sb.Limit(1)

	return r.getMapping(ctx2, sb, map[string]any{"source": source, "external_sku": externalSKU})
}

func (r *Repository) getMapping(ctx context.Context, sb *sqlbuilder.SelectBuilder, fields map[string]any) (*models.SkuMapping, error) {
	ctxTx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	var mapping models.SkuMapping
	if err := tx.GetContext(ctxTx, &mapping, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, tx.Commit(ctx)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(fields).Error("Failed to get sku mapping")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get sku mapping")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return &mapping, nil
}

// ListPending returns a page of pending mappings joined with their product's
// display fields, highest confidence first.
func (r *Repository) ListPending(ctx context.Context, page, pageSize int) ([]models.PendingMapping, error) {
	ctx2, span := tracing.StartSpan(ctx, "skumapping.Repository.ListPending")
	defer span.End()

	if page < 1 {
		page = 1
	}

	query := `
		SELECT
			m.id, m.source, m.external_sku, m.canonical_id, m.confidence, m.status,
			m.source_payload, m.fingerprint, m.created_at, m.updated_at, m.resolved_at, m.resolved_by, m.resolution_reason,
			p.name AS product_name, p.brand AS product_brand, p.category AS product_category
		FROM sku_mappings m
		JOIN canonical_products p ON p.id = m.canonical_id
		WHERE m.status = $1
		ORDER BY m.confidence DESC, m.created_at ASC
		LIMIT $2 OFFSET $3
	`

	var mappings []models.PendingMapping
	err := r.db.SelectContext(ctx2, &mappings, query, models.VerificationStatusPending, pageSize, (page-1)*pageSize)
	if err != nil {
		r.logger.WithContext(ctx2).WithError(err).Error("Failed to list pending mappings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending mappings")
	}
	return mappings, nil
}

// UpdateVerification records a human decision: the mapping's target, status,
// who resolved it, and the reviewer's rationale when one was given.
func (r *Repository) UpdateVerification(ctx context.Context, id, canonicalID string, status models.VerificationStatus, resolvedBy string, reason *string) error {
	ctx2, span := tracing.StartSpan(ctx, "skumapping.Repository.UpdateVerification")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("sku_mappings")
	sb.Set(
		sb.Assign("canonical_id", canonicalID),
		sb.Assign("status", status),
		sb.Assign("resolved_at", now),
		sb.Assign("resolved_by", resolvedBy),
		sb.Assign("resolution_reason", reason),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update mapping verification")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update mapping verification")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": id, "status": status, "resolved_by": resolvedBy}).Info("Updated mapping verification")
	return nil
}
