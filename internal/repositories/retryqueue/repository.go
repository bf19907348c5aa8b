package retryqueue

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles the load retry queue: records whose individual load
// failed, parked for later replay
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new retry queue repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Enqueue parks a failed record. Runs inside the ambient batch transaction so
// the entry commits together with the rest of the batch.
func (r *Repository) Enqueue(ctx context.Context, entry *models.RetryEntry) error {
	ctx2, span := tracing.StartSpan(ctx, "retryqueue.Repository.Enqueue")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = Now()
	}

	row := FromEntry(entry)
	ib := retryStruct.InsertInto(retryTable, row)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"source": entry.Source}).Error("Failed to enqueue retry entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to enqueue retry entry")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": entry.ID, "source": entry.Source}).Info("Enqueued retry entry")
	return nil
}

// ListDue returns entries whose retry_after has passed, oldest first
func (r *Repository) ListDue(ctx context.Context, limit int) ([]models.RetryEntry, error) {
	ctx2, span := tracing.StartSpan(ctx, "retryqueue.Repository.ListDue")
	defer span.End()

	sb := retryStruct.SelectFrom(retryTable)
	sb.Where(sb.LessEqualThan("retry_after", Now()))
	sb.OrderBy("retry_after ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []RetryRow
	if err := r.db.SelectContext(ctx2, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).Error("Failed to list due retry entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list due retry entries")
	}
	return ToEntries(rows), nil
}

// Remove deletes an entry, typically after a successful replay
func (r *Repository) Remove(ctx context.Context, id string) error {
	ctx2, span := tracing.StartSpan(ctx, "retryqueue.Repository.Remove")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx2, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx2)

	db := retryStruct.DeleteFrom(retryTable)
	db.Where(db.Equal("id", id))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctxTx, query, args...); err != nil {
		r.logger.WithContext(ctx2).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to remove retry entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to remove retry entry")
	}

	if err := tx.Commit(ctx2); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	r.logger.WithContext(ctx2).WithFields(map[string]any{"id": id}).Debug("Removed retry entry")
	return nil
}
