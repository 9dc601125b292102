// Package record exposes record ingestion and inspection over HTTP
package record

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	recordrepo "github.com/Ramsey-B/clover/internal/repositories/record"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Register registers record routes
func Register(g *echo.Group) {
	g.POST("", IngestRecords)
	g.GET("", ListRecords)
	g.GET("/count", CountRecords)
}

// IngestRecords stores a batch of records into a dataset
func IngestRecords(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.IngestRecordsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records := make([]*models.Record, 0, len(req.Records))
	for _, payload := range req.Records {
		records = append(records, &models.Record{
			ID:      payload.ID,
			Dataset: req.Dataset,
			Fields:  payload.Fields,
		})
	}

	if err := repo.UpsertBatch(ctx, records); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"stored": len(records)})
}

// ListRecords pages through a dataset's records
func ListRecords(c echo.Context) error {
	ctx := c.Request().Context()

	dataset := c.QueryParam("dataset")
	if dataset == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "dataset query parameter is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.LoadBatchByDataset(ctx, dataset, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// CountRecords returns the dataset size
func CountRecords(c echo.Context) error {
	ctx := c.Request().Context()

	dataset := c.QueryParam("dataset")
	if dataset == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "dataset query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*recordrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	count, err := repo.CountByDataset(ctx, dataset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"dataset": dataset, "count": count})
}
