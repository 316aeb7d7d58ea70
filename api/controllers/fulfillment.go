package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/fulfillment"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// FulfillmentQuery serves the read side: ?order_id= returns one order's
// fulfillment state, ?stats=true the dashboard counters and ?pending=true the
// queue of paid, unfulfilled orders.
func FulfillmentQuery(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "fulfillment")
			return
		}
		orderID, err := queryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := validators.ParseQueryBool(r, "stats")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pending, err := validators.ParseQueryBool(r, "pending")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch {
		case orderID != nil:
			view, err := svc.GetFulfillmentStatus(r.Context(), *orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
		case stats != nil && *stats:
			out, err := svc.Stats(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, out)
		case pending != nil && *pending:
			params, err := pageParams(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			list, err := svc.PendingOrders(r.Context(), params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		default:
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "one of order_id, stats or pending is required"))
		}
	}
}

func FulfillmentHistory(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "fulfillment")
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		records, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order_id": orderID, "records": records})
	}
}

type fulfillmentActionRequest struct {
	Action          string                    `json:"action" validate:"required,oneof=fulfill update_status retry cancel sync vendor_status vendor_cancel"`
	OrderID         *uuid.UUID                `json:"order_id,omitempty"`
	Items           []fulfillment.FulfillItem `json:"items,omitempty" validate:"omitempty,dive"`
	ShippingAddress *types.ShippingAddress    `json:"shipping_address,omitempty"`
	Email           string                    `json:"email,omitempty" validate:"omitempty,email"`
	Force           bool                      `json:"force,omitempty"`
	Reason          string                    `json:"reason,omitempty" validate:"max=500"`
	Platform        string                    `json:"platform,omitempty"`
	VendorOrderID   string                    `json:"vendor_order_id,omitempty" validate:"max=100"`
	Status          string                    `json:"status,omitempty" validate:"max=50"`
	TrackingNumber  string                    `json:"tracking_number,omitempty" validate:"max=100"`
	TrackingURL     string                    `json:"tracking_url,omitempty" validate:"omitempty,url,max=500"`
	Carrier         string                    `json:"carrier,omitempty" validate:"max=50"`
}

func (req fulfillmentActionRequest) orderID() (uuid.UUID, error) {
	if req.OrderID == nil || *req.OrderID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required").
			WithDetails(map[string]any{"action": req.Action})
	}
	return *req.OrderID, nil
}

func (req fulfillmentActionRequest) vendorOrder() (enums.Platform, string, error) {
	platform, err := enums.ParsePlatform(strings.TrimSpace(req.Platform))
	if err != nil || !platform.IsVendor() {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "platform must be a supplier platform").
			WithDetails(map[string]any{"action": req.Action})
	}
	vendorOrderID := strings.TrimSpace(req.VendorOrderID)
	if vendorOrderID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "vendor_order_id is required").
			WithDetails(map[string]any{"action": req.Action})
	}
	return platform, vendorOrderID, nil
}

// FulfillmentAction dispatches the admin fulfillment commands.
func FulfillmentAction(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "fulfillment")
			return
		}
		var body fulfillmentActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "action", body.Action)

		var (
			out any
			err error
		)
		switch body.Action {
		case "fulfill":
			var id uuid.UUID
			if id, err = body.orderID(); err == nil {
				out, err = svc.FulfillOrder(ctx, fulfillment.FulfillInput{
					OrderID: id,
					Items:   body.Items,
					Address: body.ShippingAddress,
					Email:   strings.ToLower(strings.TrimSpace(body.Email)),
					Force:   body.Force,
				})
			}
		case "retry":
			var id uuid.UUID
			if id, err = body.orderID(); err == nil {
				out, err = svc.RetryFulfillment(ctx, id)
			}
		case "cancel":
			var id uuid.UUID
			if id, err = body.orderID(); err == nil {
				out, err = svc.CancelFulfillment(ctx, id, validators.SanitizeString(body.Reason, 500))
			}
		case "update_status":
			out, err = updateFromPlatform(ctx, svc, body)
		case "sync":
			var res *fulfillment.SyncOrdersResult
			res, err = svc.SyncAllOrders(ctx)
			if err == nil && res.Err() != nil {
				logg.Warn(logg.WithField(ctx, "error", res.Err().Error()), "fulfillment.sync.partial_failure")
			}
			out = res
		case "vendor_status":
			platform, vendorOrderID, verr := body.vendorOrder()
			if err = verr; err == nil {
				out, err = svc.GetOrderStatus(ctx, platform, vendorOrderID)
			}
		case "vendor_cancel":
			platform, vendorOrderID, verr := body.vendorOrder()
			if err = verr; err == nil {
				err = svc.CancelOrder(ctx, platform, vendorOrderID, validators.SanitizeString(body.Reason, 500))
				out = map[string]any{"platform": platform, "vendor_order_id": vendorOrderID, "cancelled": err == nil}
			}
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(ctx, "fulfillment.action.done")
		responses.WriteSuccess(w, out)
	}
}

func updateFromPlatform(ctx context.Context, svc fulfillment.Service, body fulfillmentActionRequest) (*fulfillment.StatusView, error) {
	id, err := body.orderID()
	if err != nil {
		return nil, err
	}
	platform, vendorOrderID, err := body.vendorOrder()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required").
			WithDetails(map[string]any{"action": body.Action})
	}
	return svc.UpdateStatusFromPlatform(ctx, fulfillment.PlatformUpdate{
		OrderID:        id,
		Platform:       platform,
		VendorOrderID:  vendorOrderID,
		Status:         strings.TrimSpace(body.Status),
		TrackingNumber: strings.TrimSpace(body.TrackingNumber),
		TrackingURL:    strings.TrimSpace(body.TrackingURL),
		Carrier:        strings.TrimSpace(body.Carrier),
	})
}
