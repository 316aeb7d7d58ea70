package tracking

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/messaging"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

type notification struct {
	trigger string
	orderID uuid.UUID
	status  enums.OrderStatus
	extra   map[string]any
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) NotifyOrderEvent(_ context.Context, trigger string, order *models.Order, extra map[string]any) ([]messaging.SendResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{trigger: trigger, orderID: order.ID, status: order.Status, extra: extra})
	return nil, nil
}

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, name string) (Service, *gorm.DB, *recordingNotifier) {
	t.Helper()
	conn := dbtest.Open(t, name)
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Tx:       db.NewFromConn(conn),
		Notifier: notifier,
		Logger:   logger.New(logger.Options{ServiceName: "tracking-test", Output: io.Discard}),
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, conn, notifier
}

func reloadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.Order {
	t.Helper()
	order, err := orders.NewRepository(conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func TestAddTrackingShipsTheOrder(t *testing.T) {
	svc, conn, notifier := newTestService(t, "tracking_add")
	order := dbtest.Order(t, conn, nil, nil)

	record, err := svc.AddTracking(context.Background(), AddInput{
		OrderID:        order.ID,
		Carrier:        "UPS",
		TrackingNumber: " 1Z999AA10123456784 ",
		Notes:          "left warehouse",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CarrierUPS, record.Carrier)
	assert.Equal(t, enums.TrackingStatusPending, record.Status)
	assert.Equal(t, "https://www.ups.com/track?tracknum=1Z999AA10123456784", record.TrackingURL)
	require.NotNil(t, record.Notes)

	got := reloadOrder(t, conn, order.ID)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)
	assert.Equal(t, enums.FulfillmentStatusShipped, got.FulfillmentStatus)
	require.NotNil(t, got.TrackingNumber)
	assert.Equal(t, "1Z999AA10123456784", *got.TrackingNumber)
	require.NotNil(t, got.Carrier)
	assert.Equal(t, "ups", *got.Carrier)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	assert.Equal(t, messaging.TriggerOrderShipped, call.trigger)
	assert.Equal(t, enums.OrderStatusShipped, call.status)
	assert.Equal(t, "UPS", call.extra["carrier"])
	assert.Equal(t, "1Z999AA10123456784", call.extra["tracking_number"])
}

func TestAddTrackingKeepsCustomURLAndCanStaySilent(t *testing.T) {
	svc, conn, notifier := newTestService(t, "tracking_silent")
	order := dbtest.Order(t, conn, nil, func(o *models.Order) { o.Status = enums.OrderStatusShipped })
	silent := false

	record, err := svc.AddTracking(context.Background(), AddInput{
		OrderID:        order.ID,
		Carrier:        enums.CarrierNaqel,
		TrackingNumber: "NQ-778899",
		TrackingURL:    "https://naqel.example/NQ-778899",
		NotifyCustomer: &silent,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://naqel.example/NQ-778899", record.TrackingURL)
	assert.Empty(t, notifier.calls)
	assert.Equal(t, enums.OrderStatusShipped, reloadOrder(t, conn, order.ID).Status)
}

func TestAddTrackingRejections(t *testing.T) {
	svc, conn, _ := newTestService(t, "tracking_reject")
	cancelled := dbtest.Order(t, conn, nil, func(o *models.Order) { o.Status = enums.OrderStatusCancelled })
	ctx := context.Background()

	_, err := svc.AddTracking(ctx, AddInput{OrderID: cancelled.ID, Carrier: enums.CarrierUPS, TrackingNumber: "ABC123456"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddTracking(ctx, AddInput{OrderID: cancelled.ID, Carrier: "pigeon", TrackingNumber: "ABC123456"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddTracking(ctx, AddInput{OrderID: uuid.New(), Carrier: enums.CarrierDHL, TrackingNumber: "JD014600"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.AddTracking(ctx, AddInput{OrderID: cancelled.ID, Carrier: enums.CarrierDHL, TrackingNumber: "JD014600"})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	rows, err := svc.OrderTracking(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAddTrackingFollowsOrderLifecycle(t *testing.T) {
	svc, conn, notifier := newTestService(t, "tracking_lifecycle")
	ctx := context.Background()

	unpaid := dbtest.Order(t, conn, nil, func(o *models.Order) {
		o.Status = enums.OrderStatusPending
		o.PaymentStatus = enums.PaymentStatusPending
	})
	_, err := svc.AddTracking(ctx, AddInput{OrderID: unpaid.ID, Carrier: enums.CarrierUPS, TrackingNumber: "1Z999AA10123456784"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, enums.OrderStatusPending, reloadOrder(t, conn, unpaid.ID).Status)
	rows, err := svc.OrderTracking(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, notifier.calls)

	paidPending := dbtest.Order(t, conn, nil, func(o *models.Order) { o.Status = enums.OrderStatusPending })
	_, err = svc.AddTracking(ctx, AddInput{OrderID: paidPending.ID, Carrier: enums.CarrierUPS, TrackingNumber: "1Z999AA10123456784"})
	require.NoError(t, err)
	got := reloadOrder(t, conn, paidPending.ID)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)
	assert.Equal(t, enums.FulfillmentStatusShipped, got.FulfillmentStatus)
}

func TestUpdateStatusDeliveredCompletesOrder(t *testing.T) {
	svc, conn, notifier := newTestService(t, "tracking_delivered")
	order := dbtest.Order(t, conn, nil, nil)
	ctx := context.Background()
	record, err := svc.AddTracking(ctx, AddInput{OrderID: order.ID, Carrier: enums.CarrierFedEx, TrackingNumber: "123456789012"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, record.ID, enums.TrackingStatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusInTransit, updated.Status)
	assert.Nil(t, updated.DeliveredAt)
	assert.Equal(t, enums.OrderStatusShipped, reloadOrder(t, conn, order.ID).Status)

	updated, err = svc.UpdateStatus(ctx, record.ID, enums.TrackingStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.True(t, fixedNow.Equal(*updated.DeliveredAt))

	got := reloadOrder(t, conn, order.ID)
	assert.Equal(t, enums.OrderStatusDelivered, got.Status)
	assert.Equal(t, enums.FulfillmentStatusDelivered, got.FulfillmentStatus)

	require.Len(t, notifier.calls, 2)
	assert.Equal(t, messaging.TriggerOrderDelivered, notifier.calls[1].trigger)

	_, err = svc.UpdateStatus(ctx, record.ID, "lost")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	_, err = svc.UpdateStatus(ctx, uuid.New(), enums.TrackingStatusFailed)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSearchAndDelete(t *testing.T) {
	svc, conn, _ := newTestService(t, "tracking_search")
	ctx := context.Background()
	first := dbtest.Order(t, conn, nil, nil)
	second := dbtest.Order(t, conn, nil, nil)

	a, err := svc.AddTracking(ctx, AddInput{OrderID: first.ID, Carrier: enums.CarrierUPS, TrackingNumber: "1Z999AA10123456784"})
	require.NoError(t, err)
	_, err = svc.AddTracking(ctx, AddInput{OrderID: second.ID, Carrier: enums.CarrierAramex, TrackingNumber: "AX555001"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "1z999")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	found, err = svc.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.Search(ctx, "  ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, svc.Delete(ctx, a.ID))
	err = svc.Delete(ctx, a.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	rows, err := svc.OrderTracking(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
