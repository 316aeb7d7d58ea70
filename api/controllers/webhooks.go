package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/internal/webhooks"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const defaultWebhookBodyBytes = 1 << 20

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// WebhookOptions carries per supplier signing secrets. A supplier without a
// secret is only accepted when AllowUnsigned is set.
type WebhookOptions struct {
	Secrets       map[enums.Platform]string
	AllowUnsigned bool
	MaxBodyBytes  int64
}

func webhookPlatform(r *http.Request) (enums.Platform, error) {
	platform, err := pathPlatform(r)
	if err != nil || !webhooks.Supports(platform) {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "no webhook for platform")
	}
	return platform, nil
}

// SupplierWebhook receives order and inventory callbacks from a supplier.
func SupplierWebhook(svc webhooks.Service, guard webhookGuard, opts WebhookOptions, logg *logger.Logger) http.HandlerFunc {
	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = defaultWebhookBodyBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		platform, err := webhookPlatform(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if svc == nil {
			unavailable(w, r, logg, "webhook")
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		secret := opts.Secrets[platform]
		switch {
		case secret != "":
			if !webhooks.VerifySignature(payload, secret, r.Header.Get(webhooks.SignatureHeader(platform))) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
				return
			}
		case !opts.AllowUnsigned:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signing secret not configured"))
			return
		}

		event, err := webhooks.Decode(platform, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deliveryID := webhooks.DeliveryID(string(platform), payload)
		seen, err := guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if seen {
			responses.WriteSuccess(w, map[string]any{"received": true, "duplicate": true})
			return
		}

		result, err := svc.Handle(ctx, event)
		if err != nil {
			_ = guard.Delete(ctx, deliveryID)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithPlatform(ctx, string(platform)), fmt.Sprintf("supplier event %s %s", event.Type, result.Action))
		}
		responses.WriteSuccess(w, map[string]any{"received": true, "result": result})
	}
}

// SupplierWebhookHealth lets a supplier dashboard confirm the endpoint exists.
func SupplierWebhookHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform, err := webhookPlatform(r)
		if err != nil {
			responses.WriteError(r.Context(), nil, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ok", "platform": platform})
	}
}
