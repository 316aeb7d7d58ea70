package tracking

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
)

// Repository persists shipment tracking records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.TrackingRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TrackingRecord, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingRecord, error)
	Search(ctx context.Context, number string, limit int) ([]models.TrackingRecord, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.TrackingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TrackingRecord, error) {
	var record models.TrackingRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingRecord, error) {
	var rows []models.TrackingRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Search matches number anywhere in the tracking number, ignoring case.
func (r *repository) Search(ctx context.Context, number string, limit int) ([]models.TrackingRecord, error) {
	like := "%" + escapeLike(strings.TrimSpace(number)) + "%"
	query := r.db.WithContext(ctx).Model(&models.TrackingRecord{})
	if r.db.Dialector.Name() == "postgres" {
		query = query.Where("tracking_number ILIKE ?", like)
	} else {
		query = query.Where(`LOWER(tracking_number) LIKE ? ESCAPE '\'`, strings.ToLower(like))
	}
	var rows []models.TrackingRecord
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.TrackingRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TrackingRecord{})
	return result.RowsAffected, result.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
