// Package linkage exposes the record linkage pipeline over HTTP
package linkage

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/linkrun"
	linkagesvc "github.com/Ramsey-B/clover/pkg/linkage"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

var validate = validator.New()

// Register registers linkage routes
func Register(g *echo.Group) {
	g.POST("/link", LinkDataset)
	g.POST("/score", ScoreDataset)
	g.POST("/estimate", EstimateParameters)
	g.GET("/runs/:id", GetRun)
	g.GET("/runs", ListRuns)
}

// LinkDataset runs the full pipeline over a dataset and returns clusters
func LinkDataset(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := bindLinkRequest(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*linkagesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	runID, result, err := service.Run(ctx, req.Dataset, toOptions(req))
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, models.LinkResponse{RunID: runID, Result: result})
}

// ScoreDataset runs blocking and scoring only
func ScoreDataset(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := bindLinkRequest(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*linkagesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	scored, err := service.ScorePairs(ctx, req.Dataset, toOptions(req))
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{"pairs": scored, "count": len(scored)})
}

// EstimateParameters refines m/u probabilities with EM
func EstimateParameters(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := bindLinkRequest(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*linkagesvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	m, u, converged, err := service.EstimateParameters(ctx, req.Dataset, toOptions(req))
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, models.EstimateResponse{MProbs: m, UProbs: u, Converged: converged})
}

// GetRun returns a stored run with its cluster snapshot
func GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*linkrun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}

// ListRuns lists recent runs for a dataset
func ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	dataset := c.QueryParam("dataset")
	if dataset == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "dataset query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*linkrun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	runs, err := repo.ListByDataset(ctx, dataset, 50)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

func bindLinkRequest(c echo.Context) (*models.LinkRequest, error) {
	var req models.LinkRequest
	if err := c.Bind(&req); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}
	return &req, nil
}

func toOptions(req *models.LinkRequest) linkagesvc.Options {
	return linkagesvc.Options{
		BlockingFields:   req.BlockingFields,
		SimilarityFields: req.SimilarityFields,
		Kernel:           similarity.Kind(req.Kernel),
		MProbs:           req.MProbs,
		UProbs:           req.UProbs,
		BatchSize:        req.BatchSize,
		MatchThreshold:   req.MatchThreshold,
		RunEM:            req.RunEM,
		EMMaxIter:        req.EMMaxIter,
		EMTolerance:      req.EMTolerance,
		FieldWeights:     req.FieldWeights,
	}
}

func asHTTPError(err error) error {
	if errors.Is(err, linkagesvc.ErrInvalidOptions) {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "%v", err)
	}
	return err
}
