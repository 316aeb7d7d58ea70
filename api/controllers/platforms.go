package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const maxInventoryItems = 100

func pathPlatform(r *http.Request) (enums.Platform, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "platform"))
	p, err := enums.ParsePlatform(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform")
	}
	return p, nil
}

// PlatformSettings returns the redacted configuration and active platform.
func PlatformSettings(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		settings, err := svc.GetSettings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

type setActivePlatformRequest struct {
	Platform string `json:"platform" validate:"required,platform"`
}

func PlatformSetActive(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		var body setActivePlatformRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		platform, err := enums.ParsePlatform(strings.TrimSpace(body.Platform))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform"))
			return
		}
		settings, err := svc.SetActivePlatform(r.Context(), platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "platform", platform)
		logg.Info(ctx, "platform.active_changed")
		responses.WriteSuccess(w, settings)
	}
}

type platformStatusRequest struct {
	Enabled   bool    `json:"enabled"`
	APIKey    *string `json:"api_key,omitempty"`
	AppKey    *string `json:"app_key,omitempty"`
	SecretKey *string `json:"secret_key,omitempty"`
}

// PlatformUpdate enables or disables one platform and optionally replaces its
// credentials.
func PlatformUpdate(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		platform, err := pathPlatform(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body platformStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.SetPlatformStatus(r.Context(), platforms.StatusInput{
			Platform:  platform,
			Enabled:   body.Enabled,
			APIKey:    body.APIKey,
			AppKey:    body.AppKey,
			SecretKey: body.SecretKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func PlatformAutomation(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		var body platforms.AutomationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.UpdateAutomation(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

// PlatformStatus reports per-platform health. live=true calls each enabled
// supplier.
func PlatformStatus(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		live, err := validators.ParseQueryBool(r, "live")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.CheckPlatformStatus(r.Context(), live != nil && *live)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

func PlatformSync(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		result, err := svc.SyncProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PlatformTestConnection(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		platform, err := pathPlatform(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.TestConnection(r.Context(), platform); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"platform": platform, "connected": true})
	}
}

type inventoryCheckRequest struct {
	Items []platforms.InventoryItem `json:"items" validate:"required,min=1,dive"`
}

func PlatformCheckInventory(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		var body inventoryCheckRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(body.Items) > maxInventoryItems {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many items").
				WithDetails(map[string]any{"max": maxInventoryItems}))
			return
		}
		checks, err := svc.CheckInventory(r.Context(), body.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": checks})
	}
}
