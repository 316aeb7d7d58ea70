package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

func newTestService(t *testing.T, name string) (Service, *models.Order) {
	t.Helper()
	db := dbtest.Open(t, name)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	order := dbtest.Order(t, db, []*models.Product{dbtest.Product(t, db, nil)}, func(o *models.Order) {
		o.Status = enums.OrderStatusPending
		o.PaymentStatus = enums.PaymentStatusPending
	})
	return svc, order
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	svc, order := newTestService(t, "orders_svc_transitions")
	ctx := context.Background()

	paid, err := svc.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	assert.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatus)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusDelivered})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	tracking := "1Z999AA10123456784"
	shipped, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, shipped.Status)

	shipped, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusShipped, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusShipped, shipped.FulfillmentStatus)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Equal(t, tracking, *shipped.TrackingNumber)

	delivered, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusDelivered})
	require.NoError(t, err)
	assert.True(t, delivered.Status.IsTerminal())

	_, err = svc.Cancel(ctx, order.ID, "too late")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateStatusRefusesToShipUnpaidOrders(t *testing.T) {
	svc, order := newTestService(t, "orders_svc_unpaid_ship")
	ctx := context.Background()

	processing, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, processing.Status)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusShipped})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, got.Status)
}

func TestShippingPath(t *testing.T) {
	cases := []struct {
		status  enums.OrderStatus
		payment enums.PaymentStatus
		want    []enums.OrderStatus
		code    pkgerrors.Code
	}{
		{enums.OrderStatusPending, enums.PaymentStatusPaid, []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped}, ""},
		{enums.OrderStatusPaid, enums.PaymentStatusPaid, []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped}, ""},
		{enums.OrderStatusProcessing, enums.PaymentStatusPaid, []enums.OrderStatus{enums.OrderStatusShipped}, ""},
		{enums.OrderStatusShipped, enums.PaymentStatusPaid, nil, ""},
		{enums.OrderStatusPending, enums.PaymentStatusPending, nil, pkgerrors.CodeStateConflict},
		{enums.OrderStatusProcessing, enums.PaymentStatusRefunded, nil, pkgerrors.CodeStateConflict},
		{enums.OrderStatusCancelled, enums.PaymentStatusPaid, nil, pkgerrors.CodeStateConflict},
		{enums.OrderStatusDelivered, enums.PaymentStatusPaid, nil, pkgerrors.CodeStateConflict},
	}
	for _, tc := range cases {
		path, err := ShippingPath(&models.Order{Status: tc.status, PaymentStatus: tc.payment})
		if tc.code != "" {
			require.Error(t, err, "%s/%s", tc.status, tc.payment)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, path, "%s/%s", tc.status, tc.payment)
	}
}

func TestCancelAppendsInternalNote(t *testing.T) {
	svc, order := newTestService(t, "orders_svc_cancel")

	cancelled, err := svc.Cancel(context.Background(), order.ID, "customer changed mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.FulfillmentStatusCancelled, cancelled.FulfillmentStatus)
	require.NotNil(t, cancelled.InternalNotes)
	assert.Contains(t, *cancelled.InternalNotes, "customer changed mind")
}

func TestGetUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t, "orders_svc_missing")
	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestNewOrderNumberFormat(t *testing.T) {
	got := NewOrderNumber(time.UnixMilli(1712345678901))
	assert.Regexp(t, regexp.MustCompile(`^ORD-1712345678901-[0-9A-F]{8}$`), got)
}
