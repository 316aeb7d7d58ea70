// Package tracking attaches carrier shipments to orders and moves the order
// through shipped and delivered as the shipment progresses.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/messaging"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const searchLimit = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier sends the customer notification bound to an order event.
type Notifier interface {
	NotifyOrderEvent(ctx context.Context, trigger string, order *models.Order, extra map[string]any) ([]messaging.SendResult, error)
}

// AddInput attaches a shipment to an order. TrackingURL is derived from the
// carrier when empty. NotifyCustomer defaults to true.
type AddInput struct {
	OrderID           uuid.UUID
	Carrier           enums.Carrier
	TrackingNumber    string
	TrackingURL       string
	EstimatedDelivery *time.Time
	Notes             string
	NotifyCustomer    *bool
}

type Service interface {
	AddTracking(ctx context.Context, input AddInput) (*models.TrackingRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TrackingStatus) (*models.TrackingRecord, error)
	OrderTracking(ctx context.Context, orderID uuid.UUID) ([]models.TrackingRecord, error)
	Search(ctx context.Context, number string) ([]models.TrackingRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Carriers() []CarrierInfo
}

type ServiceParams struct {
	Repo     Repository
	Orders   orders.Repository
	Tx       txRunner
	Notifier Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	orders   orders.Repository
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the tracking service. Notifier may be nil, in which case
// customers are not notified.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		tx:       params.Tx,
		notifier: params.Notifier,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) AddTracking(ctx context.Context, input AddInput) (*models.TrackingRecord, error) {
	carrier := enums.Carrier(strings.ToLower(strings.TrimSpace(string(input.Carrier))))
	if !carrier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown carrier")
	}
	number := strings.TrimSpace(input.TrackingNumber)
	if ok, msg := ValidateTrackingNumber(carrier, number); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot ship a cancelled order")
	}
	shipNow := order.Status != enums.OrderStatusShipped && !order.Status.IsTerminal()
	if shipNow {
		if _, err := orders.ShippingPath(order); err != nil {
			return nil, err
		}
	}

	link := strings.TrimSpace(input.TrackingURL)
	if link == "" {
		link = TrackingURL(carrier, number)
	}
	record := &models.TrackingRecord{
		OrderID:           order.ID,
		Carrier:           carrier,
		TrackingNumber:    number,
		TrackingURL:       link,
		Status:            enums.TrackingStatusPending,
		EstimatedDelivery: input.EstimatedDelivery,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		record.Notes = &notes
	}

	orderUpdates := map[string]any{
		"tracking_number": number,
		"tracking_url":    link,
		"carrier":         string(carrier),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save tracking")
		}
		orderRepo := s.orders.WithTx(tx)
		if !shipNow {
			if err := orderRepo.Update(ctx, order.ID, orderUpdates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order tracking")
			}
			return nil
		}
		orderUpdates["fulfillment_status"] = enums.FulfillmentStatusShipped
		ok, err := orders.Ship(ctx, orderRepo, order, orderUpdates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order shipped")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"carrier": string(carrier), "tracking_number": number}), "tracking added")

	if input.NotifyCustomer == nil || *input.NotifyCustomer {
		s.notify(ctx, messaging.TriggerOrderShipped, order.ID, map[string]any{
			"carrier":         carrier.DisplayName(),
			"tracking_number": number,
			"tracking_url":    link,
		})
	}
	return record, nil
}

// UpdateStatus records carrier progress. A delivered shipment stamps
// delivered_at and moves a shipped order to delivered.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TrackingStatus) (*models.TrackingRecord, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking status")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tracking")
	}

	updates := map[string]any{"status": status}
	delivered := status == enums.TrackingStatusDelivered && record.Status != enums.TrackingStatusDelivered
	var orderDelivered bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if delivered {
			now := s.now().UTC()
			updates["delivered_at"] = now
			record.DeliveredAt = &now
		}
		if err := s.repo.WithTx(tx).Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update tracking")
		}
		if !delivered {
			return nil
		}
		ok, err := s.orders.WithTx(tx).TransitionStatus(ctx, record.OrderID, enums.OrderStatusShipped, enums.OrderStatusDelivered,
			map[string]any{"fulfillment_status": enums.FulfillmentStatusDelivered})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order delivered")
		}
		orderDelivered = ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	record.Status = status

	if orderDelivered {
		s.notify(s.logg.WithOrderID(ctx, record.OrderID.String()), messaging.TriggerOrderDelivered, record.OrderID, map[string]any{
			"carrier":         record.Carrier.DisplayName(),
			"tracking_number": record.TrackingNumber,
			"tracking_url":    record.TrackingURL,
		})
	}
	return record, nil
}

func (s *service) OrderTracking(ctx context.Context, orderID uuid.UUID) ([]models.TrackingRecord, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tracking")
	}
	if rows == nil {
		rows = []models.TrackingRecord{}
	}
	return rows, nil
}

func (s *service) Search(ctx context.Context, number string) ([]models.TrackingRecord, error) {
	if strings.TrimSpace(number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}
	rows, err := s.repo.Search(ctx, number, searchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search tracking")
	}
	if rows == nil {
		rows = []models.TrackingRecord{}
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete tracking")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tracking not found")
	}
	return nil
}

func (s *service) Carriers() []CarrierInfo {
	return Carriers()
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// notify is best effort: the shipment is already recorded.
func (s *service) notify(ctx context.Context, trigger string, orderID uuid.UUID, extra map[string]any) {
	if s.notifier == nil {
		return
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.logg.Error(ctx, "reload order for notification failed", err)
		return
	}
	if _, err := s.notifier.NotifyOrderEvent(ctx, trigger, order, extra); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "trigger", trigger), "customer notification failed", err)
	}
}
