package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

// AdminListOrders pages through orders with optional status, payment,
// fulfillment, customer, search and date filters.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := orderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func orderFilters(r *http.Request) (orders.ListFilters, error) {
	var (
		filters orders.ListFilters
		err     error
	)
	if filters.Status, err = parseOptional(r, "status", enums.ParseOrderStatus); err != nil {
		return filters, err
	}
	if filters.PaymentStatus, err = parseOptional(r, "payment_status", enums.ParsePaymentStatus); err != nil {
		return filters, err
	}
	if filters.FulfillmentStatus, err = parseOptional(r, "fulfillment_status", enums.ParseFulfillmentStatus); err != nil {
		return filters, err
	}
	if filters.CustomerID, err = queryUUID(r, "customer_id"); err != nil {
		return filters, err
	}
	if filters.CreatedFrom, err = queryTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.CreatedTo, err = queryTime(r, "to"); err != nil {
		return filters, err
	}
	if filters.CreatedFrom != nil && filters.CreatedTo != nil && filters.CreatedTo.Before(*filters.CreatedFrom) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	filters.Search = validators.SanitizeString(r.URL.Query().Get("search"), 100)
	return filters, nil
}

func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CreateOrder places an order on the active platform. A supplier rejection
// is reported as a dependency failure and nothing is stored.
func CreateOrder(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		var body platforms.OrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.CustomerEmail = strings.ToLower(strings.TrimSpace(body.CustomerEmail))
		body.CustomerName = validators.SanitizeString(body.CustomerName, 200)
		body.Notes = validators.SanitizeString(body.Notes, 2000)

		result, err := svc.CreateOrder(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "supplier rejected the order").
				WithDetails(map[string]any{"platform": result.Platform, "error": result.Error}))
			return
		}
		ctx := logg.WithFields(r.Context(), map[string]any{
			"order_id": result.OrderID,
			"platform": result.Platform,
		})
		logg.Info(ctx, "order.created")
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type updateOrderStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,max=100"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,max=50"`
	InternalNote   *string `json:"internal_note,omitempty" validate:"omitempty,max=2000"`
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID:        id,
			Status:         status,
			TrackingNumber: body.TrackingNumber,
			Carrier:        body.Carrier,
			InternalNote:   body.InternalNote,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func AdminCancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), id, validators.SanitizeString(body.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminMarkOrderPaid(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "order")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.MarkPaid(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
