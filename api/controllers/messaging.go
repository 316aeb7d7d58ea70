package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/messaging"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

func ListTemplates(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "messaging")
			return
		}
		var (
			filter messaging.TemplateFilter
			err    error
		)
		if filter.Channel, err = parseOptional(r, "channel", enums.ParseNotificationChannel); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Active, err = validators.ParseQueryBool(r, "active"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.TriggerEvent = strings.TrimSpace(r.URL.Query().Get("trigger_event"))
		templates, err := svc.ListTemplates(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"templates": templates})
	}
}

type templateRequest struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Name         string     `json:"name" validate:"required,max=100"`
	Channel      string     `json:"channel" validate:"required"`
	TriggerEvent string     `json:"trigger_event,omitempty" validate:"max=50"`
	Subject      *string    `json:"subject,omitempty" validate:"omitempty,max=200"`
	Body         string     `json:"body" validate:"required,max=10000"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// UpsertTemplate creates a template, or replaces it when id is given.
func UpsertTemplate(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "messaging")
			return
		}
		var body templateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		channel, err := enums.ParseNotificationChannel(strings.TrimSpace(body.Channel))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel"))
			return
		}
		tmpl, err := svc.UpsertTemplate(r.Context(), messaging.TemplateInput{
			ID:           body.ID,
			Name:         strings.TrimSpace(body.Name),
			Channel:      channel,
			TriggerEvent: strings.TrimSpace(body.TriggerEvent),
			Subject:      body.Subject,
			Body:         body.Body,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if body.ID == nil {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, tmpl)
	}
}

func DeleteTemplate(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "messaging")
			return
		}
		id, err := queryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if id == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "id is required"))
			return
		}
		if err := svc.DeleteTemplate(r.Context(), *id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type sendRequest struct {
	TemplateID   *uuid.UUID     `json:"template_id,omitempty"`
	TemplateName string         `json:"template_name,omitempty" validate:"max=100"`
	OrderID      *uuid.UUID     `json:"order_id,omitempty"`
	Recipient    string         `json:"recipient,omitempty" validate:"max=320"`
	Variables    map[string]any `json:"variables,omitempty"`
	Channel      string         `json:"channel,omitempty"`
	Subject      string         `json:"subject,omitempty" validate:"max=200"`
	Body         string         `json:"body,omitempty" validate:"max=10000"`
}

// SendMessage renders a template when one is named, otherwise sends a custom
// message. Channel "internal" records an order note without contacting the
// customer.
func SendMessage(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "messaging")
			return
		}
		var body sendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()

		if body.TemplateID != nil || strings.TrimSpace(body.TemplateName) != "" {
			results, err := svc.SendFromTemplate(ctx, messaging.TemplateSend{
				TemplateID:   body.TemplateID,
				TemplateName: strings.TrimSpace(body.TemplateName),
				OrderID:      body.OrderID,
				Recipient:    strings.TrimSpace(body.Recipient),
				Variables:    body.Variables,
			})
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"results": results})
			return
		}

		channel, err := enums.ParseCommunicationChannel(strings.TrimSpace(body.Channel))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "template or valid channel required"))
			return
		}
		if channel == enums.CommunicationChannelInternal {
			if body.OrderID == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required for internal notes"))
				return
			}
			note, err := svc.AddInternalNote(ctx, *body.OrderID, body.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, note)
			return
		}
		result, err := svc.SendCustom(ctx, messaging.CustomSend{
			OrderID:   body.OrderID,
			Channel:   channel,
			Recipient: strings.TrimSpace(body.Recipient),
			Subject:   body.Subject,
			Body:      body.Body,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": []messaging.SendResult{result}})
	}
}

func OrderCommunications(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "messaging")
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logs, err := svc.OrderCommunications(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order_id": orderID, "communications": logs})
	}
}
