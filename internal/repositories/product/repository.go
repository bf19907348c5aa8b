package product

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var columns = []string{"id", "name", "brand", "category", "description", "attributes", "status", "created_at", "updated_at"}

// Repository handles canonical product persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new canonical product repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying database for transaction coordination
func (r *Repository) DB() database.DB {
	return r.db
}

// Create persists a new canonical product. The product's ID is set by the
// caller and is authoritative; nothing is read back.
func (r *Repository) Create(ctx context.Context, product *models.CanonicalProduct) error {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.Create")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("canonical_products")
	sb.Cols(columns...)
	sb.Values(product.ID, product.Name, product.Brand, product.Category, product.Description,
		product.Attributes, product.Status, product.CreatedAt, product.UpdatedAt)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": product.ID}).Error("Failed to create canonical product")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create canonical product")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": product.ID}).Info("Created canonical product")
	return nil
}

// Get retrieves a canonical product by ID. Returns nil when not found.
func (r *Repository) Get(ctx context.Context, id string) (*models.CanonicalProduct, error) {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.Get")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_products")
	sb.Where(sb.Equal("id", id))
	sb.Limit(1)

	query, args := sb.Build()
	var product models.CanonicalProduct
	if err := tx.GetContext(ctxTx, &product, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, tx.Commit(ctx2)
		}
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get canonical product")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get canonical product")
	}

	if err := tx.Commit(ctx2); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return &product, nil
}

// ApplyUpdate writes an enrichment delta to a product. Nil update is a no-op.
func (r *Repository) ApplyUpdate(ctx context.Context, id string, update *models.ProductUpdate) error {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.ApplyUpdate")
	defer span.End()

	if update == nil {
		return nil
	}

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("canonical_products")
	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if update.Description != nil {
		assignments = append(assignments, sb.Assign("description", *update.Description))
	}
	if update.Attributes != nil {
		assignments = append(assignments, sb.Assign("attributes", update.Attributes))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update canonical product")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update canonical product")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": id}).Debug("Enriched canonical product")
	return nil
}

// UpdateStatus transitions a product's lifecycle status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) error {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.UpdateStatus")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("canonical_products")
	sb.Set(sb.Assign("status", status), sb.Assign("updated_at", time.Now().UTC()))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": id, "status": status}).Error("Failed to update product status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update product status")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": id, "status": status}).Info("Updated product status")
	return nil
}

// List returns a page of canonical products plus the total count
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.ProductListResponse, error) {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_products")
	sb.OrderBy("updated_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var products []models.CanonicalProduct
	if err := r.db.SelectContext(ctx2, &products, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).Error("Failed to list canonical products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical products")
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, "SELECT COUNT(*) FROM canonical_products"); err != nil {
		r.logger.WithContext(ctx2).WithError(err).Error("Failed to count canonical products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count canonical products")
	}

	return &models.ProductListResponse{
		Items:      products,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// FindByName returns active products whose name matches exactly,
// case-insensitively
func (r *Repository) FindByName(ctx context.Context, name string, limit int) ([]models.CanonicalProduct, error) {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.FindByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_products")
	sb.Where(
		"lower(name) = lower("+sb.Var(name)+")",
		sb.Equal("status", models.ProductStatusActive),
	)
	sb.Limit(limit)

	return r.selectProducts(ctx2, sb, "Failed to find products by name")
}

// FindByBrandCategory returns active products in the same brand and category
// bucket
func (r *Repository) FindByBrandCategory(ctx context.Context, brand, category string, limit int) ([]models.CanonicalProduct, error) {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.FindByBrandCategory")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_products")
	sb.Where(
		"lower(brand) = lower("+sb.Var(brand)+")",
		"lower(category) = lower("+sb.Var(category)+")",
		sb.Equal("status", models.ProductStatusActive),
	)
	sb.Limit(limit)

	return r.selectProducts(ctx2, sb, "Failed to find products by brand and category")
}

// SearchNameTokens returns active products whose name contains any of the
// given tokens
func (r *Repository) SearchNameTokens(ctx context.Context, tokens []string, limit int) ([]models.CanonicalProduct, error) {
	ctx2, span := tracing.StartSpan(ctx, "product.Repository.SearchNameTokens")
	defer span.End()

	if len(tokens) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("canonical_products")
	conds := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		conds = append(conds, sb.ILike("name", "%"+tok+"%"))
	}
	sb.Where(sb.Or(conds...), sb.Equal("status", models.ProductStatusActive))
	sb.Limit(limit)

	return r.selectProducts(ctx2, sb, "Failed to search products by name tokens")
}

// selectProducts runs a candidate query inside the ambient transaction so
// products created earlier in the same batch are visible.
func (r *Repository) selectProducts(ctx context.Context, sb *sqlbuilder.SelectBuilder, errMsg string) ([]models.CanonicalProduct, error) {
	ctxTx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	var products []models.CanonicalProduct
	if err := tx.SelectContext(ctxTx, &products, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(errMsg)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query canonical products")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return products, nil
}
