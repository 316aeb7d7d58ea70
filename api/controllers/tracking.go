package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/tracking"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

// TrackingQuery looks up shipments by ?order_id= or by ?number=.
func TrackingQuery(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "tracking")
			return
		}
		orderID, err := queryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := validators.SanitizeString(r.URL.Query().Get("number"), 100)

		var records any
		switch {
		case orderID != nil:
			records, err = svc.OrderTracking(r.Context(), *orderID)
		case number != "":
			records, err = svc.Search(r.Context(), number)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "order_id or number is required")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tracking": records})
	}
}

type addTrackingRequest struct {
	OrderID           uuid.UUID  `json:"order_id" validate:"required"`
	Carrier           string     `json:"carrier" validate:"required"`
	TrackingNumber    string     `json:"tracking_number" validate:"required,max=100"`
	TrackingURL       string     `json:"tracking_url,omitempty" validate:"omitempty,url,max=500"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	Notes             string     `json:"notes,omitempty" validate:"max=2000"`
	NotifyCustomer    *bool      `json:"notify_customer,omitempty"`
}

func AddTracking(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "tracking")
			return
		}
		var body addTrackingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		carrier, err := enums.ParseCarrier(strings.TrimSpace(body.Carrier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid carrier"))
			return
		}
		record, err := svc.AddTracking(r.Context(), tracking.AddInput{
			OrderID:           body.OrderID,
			Carrier:           carrier,
			TrackingNumber:    strings.TrimSpace(body.TrackingNumber),
			TrackingURL:       strings.TrimSpace(body.TrackingURL),
			EstimatedDelivery: body.EstimatedDelivery,
			Notes:             validators.SanitizeString(body.Notes, 2000),
			NotifyCustomer:    body.NotifyCustomer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

type trackingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func UpdateTrackingStatus(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "tracking")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body trackingStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseTrackingStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		record, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func DeleteTracking(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "tracking")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func TrackingCarriers(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "tracking")
			return
		}
		responses.WriteSuccess(w, map[string]any{"carriers": svc.Carriers()})
	}
}
