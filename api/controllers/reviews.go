package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/reviews"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

// PublicReviews lists approved reviews. A product_id adds the rating summary.
func PublicReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := reviews.Filter{
			Status: enums.ReviewStatusApproved,
			Sort:   reviews.Sort(strings.TrimSpace(r.URL.Query().Get("sort"))),
		}
		if filter.ProductID, err = queryUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.MinRating, err = validators.ParseQueryInt(r, "min_rating", 0, 0, 5); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.MaxRating, err = validators.ParseQueryInt(r, "max_rating", 0, 0, 5); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.VerifiedPurchase, err = validators.ParseQueryBool(r, "verified"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type publicReviewRequest struct {
	Action       string     `json:"action" validate:"required,oneof=create helpful report"`
	ReviewID     *uuid.UUID `json:"review_id,omitempty"`
	ProductID    *uuid.UUID `json:"product_id,omitempty"`
	CustomerID   *uuid.UUID `json:"customer_id,omitempty"`
	Rating       int        `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title        string     `json:"title,omitempty" validate:"max=200"`
	Comment      string     `json:"comment,omitempty" validate:"max=5000"`
	CustomerName string     `json:"customer_name,omitempty" validate:"max=100"`
	Reason       string     `json:"reason,omitempty" validate:"max=500"`
}

// PublicReviewAction handles the storefront review commands: create,
// helpful and report.
func PublicReviewAction(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		var body publicReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()

		switch body.Action {
		case "create":
			if body.ProductID == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required"))
				return
			}
			if body.Rating == 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "rating is required"))
				return
			}
			review, err := svc.Create(ctx, reviews.CreateInput{
				ProductID:    *body.ProductID,
				CustomerID:   body.CustomerID,
				Rating:       body.Rating,
				Title:        validators.SanitizeString(body.Title, 200),
				Comment:      validators.SanitizeString(body.Comment, 5000),
				CustomerName: validators.SanitizeString(body.CustomerName, 100),
			})
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, review)
		case "helpful", "report":
			if body.ReviewID == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "review_id is required"))
				return
			}
			var err error
			if body.Action == "helpful" {
				err = svc.MarkHelpful(ctx, *body.ReviewID)
			} else {
				err = svc.Report(ctx, *body.ReviewID, validators.SanitizeString(body.Reason, 500))
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"review_id": *body.ReviewID, "action": body.Action})
		}
	}
}

// AdminPendingReviews lists the moderation queue, or any status via ?status=.
func AdminPendingReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseOptional(r, "status", enums.ParseReviewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var page *reviews.ReviewPage
		if status == nil || *status == enums.ReviewStatusPending {
			page, err = svc.Pending(r.Context(), params)
		} else {
			page, err = svc.List(r.Context(), reviews.Filter{Status: *status}, params)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminApproveReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		moderator, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.Approve(r.Context(), id, moderator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

type rejectReviewRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func AdminRejectReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		moderator, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.Reject(r.Context(), id, moderator, validators.SanitizeString(body.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

func AdminDeleteReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
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

func AdminReviewStats(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "review")
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
