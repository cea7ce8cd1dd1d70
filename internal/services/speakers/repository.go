package speakers

import (
	"context"
	"errors"

	"github.com/killallgit/diarist/internal/models"
	"gorm.io/gorm"
)

// RunRepository persists aggregation run records.
type RunRepository interface {
	Create(ctx context.Context, run *models.AggregationRun) error
	// Latest returns nil without error when no run was recorded yet
	Latest(ctx context.Context) (*models.AggregationRun, error)
}

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new aggregation run repository
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *models.AggregationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) Latest(ctx context.Context) (*models.AggregationRun, error) {
	var run models.AggregationRun
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
