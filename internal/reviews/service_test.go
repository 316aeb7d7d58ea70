package reviews

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

func newTestService(t *testing.T, name string) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, name)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Products: products.NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Logger:   logger.New(logger.Options{ServiceName: "reviews-test", Output: io.Discard}),
		Now:      func() time.Time { return time.Now() },
	})
	require.NoError(t, err)
	return svc, conn
}

func create(t *testing.T, svc Service, productID uuid.UUID, rating int, customer *uuid.UUID) *models.Review {
	t.Helper()
	review, err := svc.Create(context.Background(), CreateInput{
		ProductID:    productID,
		CustomerID:   customer,
		Rating:       rating,
		Title:        "Solid",
		Comment:      "Does what it says.",
		CustomerName: "Ada",
	})
	require.NoError(t, err)
	return review
}

func TestCreateMarksVerifiedPurchases(t *testing.T) {
	svc, conn := newTestService(t, "reviews_verified")
	product := dbtest.Product(t, conn, nil)
	buyer, browser := uuid.New(), uuid.New()
	dbtest.Order(t, conn, []*models.Product{product}, func(o *models.Order) {
		o.CustomerID = &buyer
		o.Status = enums.OrderStatusDelivered
	})

	verified := create(t, svc, product.ID, 5, &buyer)
	assert.True(t, verified.VerifiedPurchase)
	assert.Equal(t, enums.ReviewStatusPending, verified.Status)

	unverified := create(t, svc, product.ID, 4, &browser)
	assert.False(t, unverified.VerifiedPurchase)

	_, err := svc.Create(context.Background(), CreateInput{ProductID: product.ID, CustomerID: &buyer, Rating: 3, Comment: "again"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateValidation(t *testing.T) {
	svc, conn := newTestService(t, "reviews_validation")
	product := dbtest.Product(t, conn, nil)
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		_, err := svc.Create(ctx, CreateInput{ProductID: product.ID, Rating: rating, Comment: "ok"})
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code(), rating)
	}
	_, err := svc.Create(ctx, CreateInput{ProductID: product.ID, Rating: 4, Comment: "  "})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{ProductID: uuid.New(), Rating: 4, Comment: "ok"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestModerationDrivesPublicListAndSummary(t *testing.T) {
	svc, conn := newTestService(t, "reviews_moderation")
	ctx := context.Background()
	product := dbtest.Product(t, conn, nil)
	admin := uuid.New()

	five := create(t, svc, product.ID, 5, nil)
	four := create(t, svc, product.ID, 4, nil)
	one := create(t, svc, product.ID, 1, nil)

	page, err := svc.List(ctx, Filter{ProductID: &product.ID}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
	require.NotNil(t, page.Summary)
	assert.Zero(t, page.Summary.TotalReviews)

	pending, err := svc.Pending(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, pending.Reviews, 3)

	_, err = svc.Approve(ctx, five.ID, admin)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, four.ID, admin)
	require.NoError(t, err)
	rejected, err := svc.Reject(ctx, one.ID, admin, "off topic")
	require.NoError(t, err)
	assert.Equal(t, enums.ReviewStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ModerationReason)
	assert.Equal(t, "off topic", *rejected.ModerationReason)

	page, err = svc.List(ctx, Filter{ProductID: &product.ID, Sort: SortLowest}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, 4, page.Reviews[0].Rating)
	assert.Equal(t, 4.5, page.Summary.AverageRating)
	assert.Equal(t, int64(2), page.Summary.TotalReviews)
	assert.Equal(t, int64(1), page.Summary.Distribution[5])
	assert.Equal(t, int64(0), page.Summary.Distribution[1])

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 4.5, stored.Rating)
	assert.Equal(t, 2, stored.ReviewCount)

	require.NoError(t, svc.Report(ctx, four.ID, "spam link"))
	summary, err := svc.Summary(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, summary.AverageRating)

	_, err = svc.List(ctx, Filter{Sort: "random"}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	_, err = svc.Approve(ctx, uuid.New(), admin)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(svc.Report(ctx, five.ID, "")).Code())
}

func TestHelpfulAndStats(t *testing.T) {
	svc, conn := newTestService(t, "reviews_stats")
	ctx := context.Background()
	product := dbtest.Product(t, conn, nil)
	admin := uuid.New()

	a := create(t, svc, product.ID, 5, nil)
	b := create(t, svc, product.ID, 2, nil)
	create(t, svc, product.ID, 3, nil)
	_, err := svc.Approve(ctx, a.ID, admin)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, b.ID, admin)
	require.NoError(t, err)

	require.NoError(t, svc.MarkHelpful(ctx, b.ID))
	require.NoError(t, svc.MarkHelpful(ctx, b.ID))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(svc.MarkHelpful(ctx, uuid.New())).Code())

	page, err := svc.List(ctx, Filter{Sort: SortHelpful}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, b.ID, page.Reviews[0].ID)
	assert.Equal(t, 2, page.Reviews[0].HelpfulCount)
	assert.Nil(t, page.Summary)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(2), stats.Approved)
	assert.Equal(t, 3.5, stats.AverageRating)
	assert.Equal(t, int64(3), stats.ThisMonth)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(svc.Delete(ctx, a.ID)).Code())
	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 2.0, stored.Rating)
}
