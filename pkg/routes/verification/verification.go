package verification

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/verification"
)

var validate = validator.New()

// Register registers verification routes
func Register(g *echo.Group) {
	g.GET("", ListPending)
	g.GET("/:id/candidates", GetCandidates)
	g.POST("/:id/approve", Approve)
	g.POST("/:id/reject", Reject)
	g.POST("/bulk-approve", BulkApprove)
}

// ListPending lists mappings waiting for review, highest confidence first
func ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "verification_handler.ListPending")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	ctx, svc, err := ectoinject.GetContext[*verification.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verification service")
	}

	resp, err := svc.ListPending(ctx, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetCandidates re-resolves a mapping's source record against the current
// catalog
func GetCandidates(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "verification_handler.GetCandidates")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "mapping id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*verification.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verification service")
	}

	result, err := svc.Candidates(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Approve confirms a pending mapping's current target
func Approve(c echo.Context) error {
	return confirm(c, true)
}

// Reject rejects a pending mapping. The body may carry a reassignment target;
// without one a new canonical product is created from the captured record.
func Reject(c echo.Context) error {
	return confirm(c, false)
}

func confirm(c echo.Context, approved bool) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "verification_handler.Confirm")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "mapping id is required")
	}

	var req models.ConfirmMappingRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Approved = approved

	ctx, svc, err := ectoinject.GetContext[*verification.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verification service")
	}

	mapping, err := svc.Confirm(ctx, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, mapping)
}

// BulkApprove approves a set of pending mappings in one call
func BulkApprove(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "verification_handler.BulkApprove")
	defer span.End()

	var req models.BulkApproveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*verification.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verification service")
	}

	return c.JSON(http.StatusOK, svc.BulkApprove(ctx, req))
}
