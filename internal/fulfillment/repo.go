package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// Repository persists vendor order records.
type Repository interface {
	Create(ctx context.Context, record *models.FulfillmentRecord) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentRecord, error)
	FindByVendorOrderID(ctx context.Context, platform enums.Platform, vendorOrderID string) (*models.FulfillmentRecord, error)
	ListActive(ctx context.Context, limit int) ([]models.FulfillmentRecord, error)
	OrderStats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *models.FulfillmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.FulfillmentRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentRecord, error) {
	var rows []models.FulfillmentRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByVendorOrderID(ctx context.Context, platform enums.Platform, vendorOrderID string) (*models.FulfillmentRecord, error) {
	var record models.FulfillmentRecord
	err := r.db.WithContext(ctx).
		Where("platform = ? AND vendor_order_id = ?", platform, vendorOrderID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListActive returns supplier records still waiting on the vendor, oldest
// sync first so a capped run eventually reaches every record.
func (r *repository) ListActive(ctx context.Context, limit int) ([]models.FulfillmentRecord, error) {
	var rows []models.FulfillmentRecord
	query := r.db.WithContext(ctx).
		Where("status IN ?", []enums.FulfillmentRecordStatus{
			enums.FulfillmentRecordStatusPending,
			enums.FulfillmentRecordStatusProcessing,
		}).
		Where("platform <> ?", enums.PlatformLocal).
		Where("vendor_order_id IS NOT NULL AND vendor_order_id <> ''").
		Order("last_sync_at IS NOT NULL, last_sync_at ASC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) OrderStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		dst   *int64
		apply func(*gorm.DB) *gorm.DB
	}{
		{&stats.TotalOrders, func(q *gorm.DB) *gorm.DB {
			return q.Where("payment_status = ?", enums.PaymentStatusPaid)
		}},
		{&stats.PendingFulfillment, func(q *gorm.DB) *gorm.DB {
			return q.Where("payment_status = ? AND fulfillment_status = ?", enums.PaymentStatusPaid, enums.FulfillmentStatusUnfulfilled)
		}},
		{&stats.Processing, func(q *gorm.DB) *gorm.DB {
			return q.Where("fulfillment_status IN ?", []enums.FulfillmentStatus{enums.FulfillmentStatusProcessing, enums.FulfillmentStatusPartial})
		}},
		{&stats.Shipped, func(q *gorm.DB) *gorm.DB {
			return q.Where("fulfillment_status = ?", enums.FulfillmentStatusShipped)
		}},
		{&stats.Delivered, func(q *gorm.DB) *gorm.DB {
			return q.Where("fulfillment_status = ?", enums.FulfillmentStatusDelivered)
		}},
		{&stats.Failed, func(q *gorm.DB) *gorm.DB {
			return q.Where("sync_error IS NOT NULL AND sync_error <> ''")
		}},
	}
	for _, c := range counts {
		q := c.apply(r.db.WithContext(ctx).Model(&models.Order{}))
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	err := r.db.WithContext(ctx).Model(&models.FulfillmentRecord{}).
		Where("needs_reconciliation = ?", true).
		Count(&stats.NeedsReconciliation).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
