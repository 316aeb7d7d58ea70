package picker

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error)
	List(ctx context.Context, params pagination.Params) ([]models.AnalysisRun, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, run *models.AnalysisRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List pages through runs newest first. Result documents are not loaded.
func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.AnalysisRun, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.AnalysisRun{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.AnalysisRun
	err := query.
		Select("id", "run_code", "criteria", "stats", "created_at").
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
