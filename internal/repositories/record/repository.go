// Package record persists source records awaiting linkage
package record

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// row is the database shape of a record; Fields lives in a jsonb column.
type row struct {
	ID        string                            `db:"id"`
	Dataset   string                            `db:"dataset"`
	Fields    database.JSONB[map[string]string] `db:"fields"`
	CreatedAt time.Time                         `db:"created_at"`
}

func (r row) toModel() *models.Record {
	fields := r.Fields.GetValue()
	if fields == nil {
		fields = map[string]string{}
	}
	return &models.Record{
		ID:        r.ID,
		Dataset:   r.Dataset,
		Fields:    fields,
		CreatedAt: r.CreatedAt,
	}
}

// Upsert stores a record, replacing the field map when the id exists.
func (r *Repository) Upsert(ctx context.Context, record *models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Upsert")
	defer span.End()

	if record.ID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "record id is required")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("records")
	sb.Cols("id", "dataset", "fields", "created_at")
	sb.Values(record.ID, record.Dataset, database.JSONB[map[string]string]{Data: record.Fields}, time.Now().UTC())
	sb.SQL("ON CONFLICT (id) DO UPDATE SET dataset = EXCLUDED.dataset, fields = EXCLUDED.fields")

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"record_id": record.ID}).Error("Failed to upsert record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store record")
	}
	return nil
}

// UpsertBatch stores several records in one statement.
func (r *Repository) UpsertBatch(ctx context.Context, records []*models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.UpsertBatch")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("records")
	sb.Cols("id", "dataset", "fields", "created_at")
	for _, record := range records {
		sb.Values(record.ID, record.Dataset, database.JSONB[map[string]string]{Data: record.Fields}, now)
	}
	sb.SQL("ON CONFLICT (id) DO UPDATE SET dataset = EXCLUDED.dataset, fields = EXCLUDED.fields")

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(records)}).Error("Failed to upsert record batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store records")
	}
	return nil
}

// LoadAllByDataset returns every record in a dataset ordered by id.
func (r *Repository) LoadAllByDataset(ctx context.Context, dataset string) ([]*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.LoadAllByDataset")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "dataset", "fields", "created_at")
	sb.From("records")
	sb.Where(sb.Equal("dataset", dataset))
	sb.OrderBy("id")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dataset": dataset}).Error("Failed to load records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}

	records := make([]*models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// LoadBatchByDataset returns a page of records ordered by id.
func (r *Repository) LoadBatchByDataset(ctx context.Context, dataset string, limit, offset int) ([]*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.LoadBatchByDataset")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "dataset", "fields", "created_at")
	sb.From("records")
	sb.Where(sb.Equal("dataset", dataset))
	sb.OrderBy("id")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dataset": dataset, "limit": limit, "offset": offset}).Error("Failed to load record batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}

	records := make([]*models.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// CountByDataset returns how many records a dataset holds.
func (r *Repository) CountByDataset(ctx context.Context, dataset string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.CountByDataset")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("records")
	sb.Where(sb.Equal("dataset", dataset))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"dataset": dataset}).Error("Failed to count records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count records")
	}
	return count, nil
}
