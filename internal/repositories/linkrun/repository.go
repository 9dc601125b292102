// Package linkrun persists linkage run results for later review
package linkrun

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Run status constants
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is a persisted linkage run with its cluster snapshot.
type Run struct {
	ID           string                                 `json:"id" db:"id"`
	Dataset      string                                 `json:"dataset" db:"dataset"`
	Fingerprint  string                                 `json:"fingerprint" db:"fingerprint"`
	Status       string                                 `json:"status" db:"status"`
	RecordCount  int                                    `json:"record_count" db:"record_count"`
	PairsScored  int                                    `json:"pairs_scored" db:"pairs_scored"`
	PairsMerged  int                                    `json:"pairs_merged" db:"pairs_merged"`
	ClusterCount int                                    `json:"cluster_count" db:"cluster_count"`
	MProbs       database.JSONB[[]float64]              `json:"m_probs" db:"m_probs"`
	UProbs       database.JSONB[[]float64]              `json:"u_probs" db:"u_probs"`
	Clusters     database.JSONB[models.ClusterSnapshot] `json:"clusters" db:"clusters"`
	CreatedAt    time.Time                              `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time                             `json:"completed_at,omitempty" db:"completed_at"`
}

// Repository handles link run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new link run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a running row and returns its id.
func (r *Repository) Create(ctx context.Context, dataset, configFingerprint string, recordCount int) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "linkrun.Repository.Create")
	defer span.End()

	id := uuid.New().String()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("link_runs")
	sb.Cols("id", "dataset", "fingerprint", "status", "record_count", "created_at")
	sb.Values(id, dataset, configFingerprint, StatusRunning, recordCount, time.Now().UTC())

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dataset": dataset}).Error("Failed to create link run")
		return "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to create link run")
	}
	return id, nil
}

// Complete stores the outcome of a run.
func (r *Repository) Complete(ctx context.Context, id string, result *models.LinkResult) error {
	ctx, span := tracing.StartSpan(ctx, "linkrun.Repository.Complete")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("link_runs")
	ub.Set(
		ub.Assign("status", StatusCompleted),
		ub.Assign("pairs_scored", result.PairsScored),
		ub.Assign("pairs_merged", result.PairsMerged),
		ub.Assign("cluster_count", len(result.Clusters)),
		ub.Assign("m_probs", database.JSONB[[]float64]{Data: result.MProbs}),
		ub.Assign("u_probs", database.JSONB[[]float64]{Data: result.UProbs}),
		ub.Assign("clusters", database.JSONB[models.ClusterSnapshot]{Data: result.Clusters}),
		ub.Assign("completed_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": id}).Error("Failed to complete link run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to complete link run")
	}
	return nil
}

// Fail marks a run as failed.
func (r *Repository) Fail(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "linkrun.Repository.Fail")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("link_runs")
	ub.Set(
		ub.Assign("status", StatusFailed),
		ub.Assign("completed_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": id}).Error("Failed to mark link run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update link run")
	}
	return nil
}

// Get retrieves a run by id.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	ctx, span := tracing.StartSpan(ctx, "linkrun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "dataset", "fingerprint", "status", "record_count", "pairs_scored", "pairs_merged", "cluster_count", "m_probs", "u_probs", "clusters", "created_at", "completed_at")
	sb.From("link_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var run Run
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "link run %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get link run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get link run")
	}
	return &run, nil
}

// ListByDataset retrieves recent runs for a dataset, newest first.
func (r *Repository) ListByDataset(ctx context.Context, dataset string, limit int) ([]Run, error) {
	ctx, span := tracing.StartSpan(ctx, "linkrun.Repository.ListByDataset")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "dataset", "fingerprint", "status", "record_count", "pairs_scored", "pairs_merged", "cluster_count", "m_probs", "u_probs", "clusters", "created_at", "completed_at")
	sb.From("link_runs")
	sb.Where(sb.Equal("dataset", dataset))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dataset": dataset}).Error("Failed to list link runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list link runs")
	}
	return runs, nil
}
