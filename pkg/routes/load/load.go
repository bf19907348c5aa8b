package load

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/retryqueue"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers load routes
func Register(g *echo.Group) {
	g.POST("", LoadBatch)
	g.GET("/retries", ListRetries)
}

// LoadBatch runs the load pipeline for a batch of source records
func LoadBatch(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "load_handler.LoadBatch")
	defer span.End()

	var req models.LoadBatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, orchestrator, err := ectoinject.GetContext[*loader.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get orchestrator")
	}

	result, err := orchestrator.LoadBatch(ctx, req.Records)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ListRetries returns records parked for retry whose delay has passed
func ListRetries(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "load_handler.ListRetries")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 100
	}

	ctx, repo, err := ectoinject.GetContext[*retryqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	entries, err := repo.ListDue(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}
