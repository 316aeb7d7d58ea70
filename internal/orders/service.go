package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// Service exposes admin order operations.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Order, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

// UpdateStatusInput carries an admin status change.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	TrackingNumber *string
	Carrier        *string
	InternalNote   *string
}

type service struct {
	repo Repository
}

// NewService builds an order service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return &OrderList{Orders: rows, Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": input.Status})
	}

	if input.Status == enums.OrderStatusShipped && order.Status != enums.OrderStatusShipped {
		if _, err := ShippingPath(order); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	switch input.Status {
	case enums.OrderStatusShipped:
		updates["fulfillment_status"] = enums.FulfillmentStatusShipped
	case enums.OrderStatusDelivered:
		updates["fulfillment_status"] = enums.FulfillmentStatusDelivered
	case enums.OrderStatusCancelled:
		updates["fulfillment_status"] = enums.FulfillmentStatusCancelled
	case enums.OrderStatusPaid:
		updates["payment_status"] = enums.PaymentStatusPaid
	}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if input.Carrier != nil {
		updates["carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.InternalNote != nil {
		updates["internal_notes"] = appendNote(order.InternalNotes, *input.InternalNote)
	}

	if order.Status == input.Status {
		if err := s.repo.Update(ctx, order.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		return s.Get(ctx, order.ID)
	}

	ok, err := s.repo.TransitionStatus(ctx, order.ID, order.Status, input.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be marked paid")
	}
	ok, err := s.repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid,
		map[string]any{"payment_status": enums.PaymentStatusPaid})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Order, error) {
	var note *string
	if reason = strings.TrimSpace(reason); reason != "" {
		n := "cancelled: " + reason
		note = &n
	}
	return s.UpdateStatus(ctx, UpdateStatusInput{OrderID: id, Status: enums.OrderStatusCancelled, InternalNote: note})
}

func (s *service) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	return counts, nil
}

func appendNote(existing *string, note string) string {
	note = strings.TrimSpace(note)
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n" + note
}
