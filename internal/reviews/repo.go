package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// Sort orders a review listing.
type Sort string

const (
	SortNewest  Sort = "newest"
	SortOldest  Sort = "oldest"
	SortHighest Sort = "highest"
	SortLowest  Sort = "lowest"
	SortHelpful Sort = "helpful"
)

var sortClauses = map[Sort]string{
	SortNewest:  "created_at DESC",
	SortOldest:  "created_at ASC",
	SortHighest: "rating DESC, created_at DESC",
	SortLowest:  "rating ASC, created_at DESC",
	SortHelpful: "helpful_count DESC, created_at DESC",
}

type Filter struct {
	ProductID        *uuid.UUID
	CustomerID       *uuid.UUID
	Status           enums.ReviewStatus
	MinRating        int
	MaxRating        int
	VerifiedPurchase *bool
	Sort             Sort
}

// RatingCounts holds the number of reviews per star value.
type RatingCounts map[int]int64

type Repository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Exists(ctx context.Context, productID, customerID uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Review, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	IncrementHelpful(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Distribution(ctx context.Context, productID *uuid.UUID) (RatingCounts, error)
	CountByStatus(ctx context.Context) (map[enums.ReviewStatus]int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	UpdateProductRating(ctx context.Context, productID uuid.UUID, average float64, count int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) Exists(ctx context.Context, productID, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND customer_id = ?", productID, customerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Review, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Review{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}
	if filter.MaxRating > 0 {
		query = query.Where("rating <= ?", filter.MaxRating)
	}
	if filter.VerifiedPurchase != nil {
		query = query.Where("verified_purchase = ?", *filter.VerifiedPurchase)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order, ok := sortClauses[filter.Sort]
	if !ok {
		order = sortClauses[SortNewest]
	}
	var rows []models.Review
	err := query.Order(order).Limit(params.Limit).Offset(params.Offset()).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) IncrementHelpful(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	return result.RowsAffected, result.Error
}

// Distribution counts approved reviews per rating, for one product or all.
func (r *repository) Distribution(ctx context.Context, productID *uuid.UUID) (RatingCounts, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("status = ?", enums.ReviewStatusApproved)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if err := query.Group("rating").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := RatingCounts{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		out[row.Rating] = row.Count
	}
	return out, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.ReviewStatus]int64, error) {
	var rows []struct {
		Status enums.ReviewStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ReviewStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *repository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *repository) UpdateProductRating(ctx context.Context, productID uuid.UUID, average float64, count int64) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{"rating": average, "review_count": count}).Error
}
