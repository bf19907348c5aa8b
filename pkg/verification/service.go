// Package verification is the human review workflow for pending sku mappings.
package verification

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/product"
	"github.com/Ramsey-B/fern/internal/repositories/skumapping"
	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Service coordinates review of pending mappings
type Service struct {
	db       database.DB
	mappings *skumapping.Repository
	products *product.Repository
	catalog  *catalog.Manager
	resolver *matching.Resolver
	emitter  *events.Emitter
	logger   ectologger.Logger
}

// NewService creates a new verification service
func NewService(
	db database.DB,
	mappings *skumapping.Repository,
	products *product.Repository,
	cat *catalog.Manager,
	resolver *matching.Resolver,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:       db,
		mappings: mappings,
		products: products,
		catalog:  cat,
		resolver: resolver,
		emitter:  emitter,
		logger:   logger,
	}
}

// ListPending returns a page of mappings waiting for review, highest
// confidence first
func (s *Service) ListPending(ctx context.Context, page, pageSize int) (*models.MappingListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Service.ListPending")
	defer span.End()

	items, err := s.mappings.ListPending(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.MappingListResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Candidates re-resolves the mapping's captured source record against the
// current catalog, so reviewers see fresh alternatives rather than the
// candidates from load time.
func (s *Service) Candidates(ctx context.Context, mappingID string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Service.Candidates")
	defer span.End()

	mapping, err := s.mappings.GetByID(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "mapping not found")
	}

	rec, err := mapping.SourceRecord()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"mapping_id": mappingID}).Error("Failed to decode mapping payload")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode mapping payload")
	}

	return s.resolver.Resolve(ctx, *rec)
}

// Confirm records a human decision on a pending mapping. Decisions are
// terminal: a mapping that has already been decided is returned as-is and a
// repeat call never moves the canonical reference.
//
// Approved keeps the current target. Rejected with a reassignment repoints to
// the given product. Rejected without one mints a new canonical product from
// the captured source record and repoints to it.
func (s *Service) Confirm(ctx context.Context, mappingID string, req models.ConfirmMappingRequest) (*models.SkuMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Service.Confirm")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{"mapping_id": mappingID})

	ctxTx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	mapping, err := s.mappings.GetByID(ctxTx, mappingID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "mapping not found")
	}
	if mapping.Status == models.VerificationStatusManual {
		log.WithFields(map[string]any{"status": mapping.Status}).Info("Mapping already decided, re-applying")
		return mapping, tx.Commit(ctx)
	}

	resolvedBy := appcontext.GetUserID(ctx)
	if resolvedBy == "" {
		resolvedBy = "system"
	}

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	var createdProduct *models.CanonicalProduct
	targetID := mapping.CanonicalID

	if !req.Approved {
		switch {
		case req.ReassignToID != nil:
			target, err := s.products.Get(ctxTx, *req.ReassignToID)
			if err != nil {
				return nil, err
			}
			if target == nil || target.Status != models.ProductStatusActive {
				return nil, httperror.NewHTTPError(http.StatusBadRequest, "reassignment target is not an active product")
			}
			targetID = target.ID
		default:
			rec, err := mapping.SourceRecord()
			if err != nil {
				log.WithError(err).Error("Failed to decode mapping payload")
				return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode mapping payload")
			}
			created := s.catalog.NewProduct(*rec)
			if err := s.products.Create(ctxTx, created); err != nil {
				return nil, err
			}
			targetID = created.ID
			createdProduct = created
		}
	}

	if err := s.mappings.UpdateVerification(ctxTx, mappingID, targetID, models.VerificationStatusManual, resolvedBy, reason); err != nil {
		return nil, err
	}

	updated, err := s.mappings.GetByID(ctxTx, mappingID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	if createdProduct != nil {
		s.emitter.EmitProductCreated(ctx, createdProduct)
	}
	s.emitter.EmitMappingVerified(ctx, updated)

	log.WithFields(map[string]any{
		"approved":     req.Approved,
		"canonical_id": targetID,
		"resolved_by":  resolvedBy,
		"reason":       req.Reason,
	}).Info("Confirmed mapping")

	return updated, nil
}

// BulkApprove approves a set of pending mappings. Each mapping is decided
// independently; one failure never blocks the rest.
func (s *Service) BulkApprove(ctx context.Context, req models.BulkApproveRequest) *models.BulkApproveResult {
	ctx, span := tracing.StartSpan(ctx, "verification.Service.BulkApprove")
	defer span.End()

	result := &models.BulkApproveResult{}
	for _, id := range req.MappingIDs {
		if _, err := s.Confirm(ctx, id, models.ConfirmMappingRequest{Approved: true}); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[id] = err.Error()
			continue
		}
		result.Approved = append(result.Approved, id)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"approved": len(result.Approved),
		"failed":   len(result.Failed),
	}).Info("Bulk approved mappings")

	return result
}
