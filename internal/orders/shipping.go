package orders

import (
	"context"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// ShippingPath lists the statuses an order moves through to reach shipped,
// in order. It is empty for an order that is already shipped. Unpaid orders
// and orders past shipping are refused with a state conflict.
func ShippingPath(order *models.Order) ([]enums.OrderStatus, error) {
	switch {
	case order.Status == enums.OrderStatusShipped:
		return nil, nil
	case order.Status.IsTerminal():
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be shipped").
			WithDetails(map[string]any{"status": order.Status})
	case order.PaymentStatus != enums.PaymentStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot ship an unpaid order").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus})
	}

	var path []enums.OrderStatus
	if order.Status != enums.OrderStatusProcessing {
		path = append(path, enums.OrderStatusProcessing)
	}
	path = append(path, enums.OrderStatusShipped)

	prev := order.Status
	for _, next := range path {
		if !prev.CanTransitionTo(next) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{"from": prev, "to": next})
		}
		prev = next
	}
	return path, nil
}

// Ship walks the order along ShippingPath. updates are written with the final
// step. It reports false when another writer moved the order first.
func Ship(ctx context.Context, repo Repository, order *models.Order, updates map[string]any) (bool, error) {
	path, err := ShippingPath(order)
	if err != nil {
		return false, err
	}
	if len(path) == 0 {
		return false, nil
	}
	from := order.Status
	for i, next := range path {
		var values map[string]any
		if i == len(path)-1 {
			values = updates
		}
		ok, err := repo.TransitionStatus(ctx, order.ID, from, next, values)
		if err != nil || !ok {
			return false, err
		}
		from = next
	}
	return true, nil
}
