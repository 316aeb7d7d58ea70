// Package reviews stores customer product reviews and their moderation.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

const (
	maxTitleLength   = 200
	maxCommentLength = 5000
	maxReasonLength  = 500
)

type CreateInput struct {
	ProductID    uuid.UUID
	CustomerID   *uuid.UUID
	Rating       int
	Title        string
	Comment      string
	CustomerName string
}

// Summary is the public rating of a product, computed from approved reviews.
type Summary struct {
	ProductID     uuid.UUID    `json:"product_id"`
	AverageRating float64      `json:"average_rating"`
	TotalReviews  int64        `json:"total_reviews"`
	Distribution  RatingCounts `json:"rating_distribution"`
}

type ReviewPage struct {
	Reviews    []models.Review `json:"reviews"`
	Pagination pagination.Meta `json:"pagination"`
	Summary    *Summary        `json:"summary,omitempty"`
}

type Stats struct {
	Total         int64   `json:"total"`
	Pending       int64   `json:"pending"`
	Approved      int64   `json:"approved"`
	Rejected      int64   `json:"rejected"`
	Flagged       int64   `json:"flagged"`
	AverageRating float64 `json:"average_rating"`
	ThisMonth     int64   `json:"this_month"`
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Review, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (*ReviewPage, error)
	Summary(ctx context.Context, productID uuid.UUID) (*Summary, error)
	Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Review, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Review, error)
	MarkHelpful(ctx context.Context, id uuid.UUID) error
	Report(ctx context.Context, id uuid.UUID, reason string) error
	Pending(ctx context.Context, params pagination.Params) (*ReviewPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

type ServiceParams struct {
	Repo     Repository
	Products products.Repository
	Orders   orders.Repository
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	products products.Repository
	orders   orders.Repository
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		orders:   params.Orders,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

// Create stores a review awaiting moderation. A customer may review a product
// once; the review is verified when that customer received the product.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	title := strings.TrimSpace(input.Title)
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}
	if len(title) > maxTitleLength || len(comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review text is too long")
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	review := &models.Review{
		ProductID:    input.ProductID,
		CustomerID:   input.CustomerID,
		Rating:       input.Rating,
		Title:        title,
		Comment:      comment,
		CustomerName: strings.TrimSpace(input.CustomerName),
		Status:       enums.ReviewStatusPending,
	}
	if input.CustomerID != nil {
		exists, err := s.repo.Exists(ctx, input.ProductID, *input.CustomerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		verified, err := s.orders.CustomerReceivedProduct(ctx, *input.CustomerID, input.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check purchase")
		}
		review.VerifiedPurchase = verified
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return review, nil
}

// List returns reviews for the storefront. Without a status only approved
// reviews are listed.
func (s *service) List(ctx context.Context, filter Filter, params pagination.Params) (*ReviewPage, error) {
	if filter.Status == "" {
		filter.Status = enums.ReviewStatusApproved
	} else if !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review status")
	}
	if filter.Sort != "" {
		if _, ok := sortClauses[filter.Sort]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
		}
	}
	page, err := s.list(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	if filter.ProductID != nil {
		summary, err := s.Summary(ctx, *filter.ProductID)
		if err != nil {
			return nil, err
		}
		page.Summary = summary
	}
	return page, nil
}

func (s *service) list(ctx context.Context, filter Filter, params pagination.Params) (*ReviewPage, error) {
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	if rows == nil {
		rows = []models.Review{}
	}
	return &ReviewPage{Reviews: rows, Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Summary(ctx context.Context, productID uuid.UUID) (*Summary, error) {
	dist, err := s.repo.Distribution(ctx, &productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rating distribution")
	}
	avg, total := average(dist)
	return &Summary{ProductID: productID, AverageRating: avg, TotalReviews: total, Distribution: dist}, nil
}

// average is rounded to one decimal.
func average(dist RatingCounts) (float64, int64) {
	var sum, total int64
	for rating, n := range dist {
		sum += int64(rating) * n
		total += n
	}
	if total == 0 {
		return 0, 0
	}
	return math.Round(float64(sum)/float64(total)*10) / 10, total
}

func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID) (*models.Review, error) {
	return s.moderate(ctx, id, map[string]any{
		"status":            enums.ReviewStatusApproved,
		"moderation_reason": nil,
		"moderated_by":      adminID,
	})
}

func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*models.Review, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is too long")
	}
	updates := map[string]any{
		"status":            enums.ReviewStatusRejected,
		"moderation_reason": nil,
		"moderated_by":      adminID,
	}
	if reason != "" {
		updates["moderation_reason"] = reason
	}
	return s.moderate(ctx, id, updates)
}

func (s *service) moderate(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Review, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review")
	}
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload review")
	}
	s.refreshProductRating(ctx, review.ProductID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"review_id": review.ID.String(),
		"status":    string(review.Status),
	}), "review moderated")
	return review, nil
}

// refreshProductRating copies the approved-review average onto the product.
func (s *service) refreshProductRating(ctx context.Context, productID uuid.UUID) {
	summary, err := s.Summary(ctx, productID)
	if err == nil {
		err = s.repo.UpdateProductRating(ctx, productID, summary.AverageRating, summary.TotalReviews)
	}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID.String()), "product rating refresh failed", err)
	}
}

func (s *service) MarkHelpful(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.IncrementHelpful(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark review helpful")
	}
	return nil
}

// Report flags a review for another moderation pass. It stops being public
// until an admin approves it again.
func (s *service) Report(ctx context.Context, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if len(reason) > maxReasonLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is too long")
	}
	_, err := s.moderate(ctx, id, map[string]any{
		"status":            enums.ReviewStatusFlagged,
		"moderation_reason": reason,
	})
	return err
}

// Pending lists reviews awaiting moderation, oldest first.
func (s *service) Pending(ctx context.Context, params pagination.Params) (*ReviewPage, error) {
	return s.list(ctx, Filter{Status: enums.ReviewStatusPending, Sort: SortOldest}, params)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	if review.Status == enums.ReviewStatusApproved {
		s.refreshProductRating(ctx, review.ProductID)
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reviews")
	}
	dist, err := s.repo.Distribution(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rating distribution")
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	thisMonth, err := s.repo.CountSince(ctx, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count recent reviews")
	}

	stats := &Stats{
		Pending:   counts[enums.ReviewStatusPending],
		Approved:  counts[enums.ReviewStatusApproved],
		Rejected:  counts[enums.ReviewStatusRejected],
		Flagged:   counts[enums.ReviewStatusFlagged],
		ThisMonth: thisMonth,
	}
	for _, n := range counts {
		stats.Total += n
	}
	stats.AverageRating, _ = average(dist)
	return stats, nil
}
