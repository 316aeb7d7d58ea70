package messaging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// TemplateFilter narrows the template listing. Nil fields match everything.
type TemplateFilter struct {
	Channel      *enums.NotificationChannel
	TriggerEvent string
	Active       *bool
}

type Repository interface {
	ListTemplates(ctx context.Context, filter TemplateFilter) ([]models.NotificationTemplate, error)
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.NotificationTemplate, error)
	FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error)
	SaveTemplate(ctx context.Context, tpl *models.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) (int64, error)
	CreateLog(ctx context.Context, entry *models.CommunicationLog) error
	UpdateLog(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListLogsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.CommunicationLog, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListTemplates(ctx context.Context, filter TemplateFilter) ([]models.NotificationTemplate, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationTemplate{})
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.TriggerEvent != "" {
		query = query.Where("trigger_event = ?", filter.TriggerEvent)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	var rows []models.NotificationTemplate
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindTemplate(ctx context.Context, id uuid.UUID) (*models.NotificationTemplate, error) {
	var tpl models.NotificationTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *repository) FindTemplateByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	var tpl models.NotificationTemplate
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// SaveTemplate inserts tpl when its id is unset and updates it otherwise.
func (r *repository) SaveTemplate(ctx context.Context, tpl *models.NotificationTemplate) error {
	if tpl.ID == uuid.Nil {
		return r.db.WithContext(ctx).Create(tpl).Error
	}
	return r.db.WithContext(ctx).Save(tpl).Error
}

func (r *repository) DeleteTemplate(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.NotificationTemplate{})
	return result.RowsAffected, result.Error
}

func (r *repository) CreateLog(ctx context.Context, entry *models.CommunicationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) UpdateLog(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.CommunicationLog{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) ListLogsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.CommunicationLog, error) {
	var rows []models.CommunicationLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
