package controllers

import (
	"net/http"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/admins"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

// AdminLogin exchanges admin credentials for a bearer token.
func AdminLogin(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "admin auth")
			return
		}

		var body admins.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminMe returns the authenticated admin.
func AdminMe(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "admin auth")
			return
		}
		id, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		admin, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, admin)
	}
}
