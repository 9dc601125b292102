package record

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Loader binds the repository to one dataset, satisfying the linkage
// engine's loader contract.
type Loader struct {
	repo    *Repository
	dataset string
}

// NewLoader creates a dataset-bound loader.
func (r *Repository) NewLoader(dataset string) *Loader {
	return &Loader{repo: r, dataset: dataset}
}

func (l *Loader) LoadAll(ctx context.Context) ([]*models.Record, error) {
	return l.repo.LoadAllByDataset(ctx, l.dataset)
}

func (l *Loader) LoadBatch(ctx context.Context, limit, offset int) ([]*models.Record, error) {
	return l.repo.LoadBatchByDataset(ctx, l.dataset, limit, offset)
}
