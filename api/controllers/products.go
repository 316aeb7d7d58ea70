package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	"github.com/angelmondragon/dropship-backend/api/validators"
	"github.com/angelmondragon/dropship-backend/internal/importer"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	productsvc "github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const maxImportBatch = 200

// StorefrontProducts lists what the storefront sells: the active local catalog,
// or the active supplier's catalog.
func StorefrontProducts(svc platforms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "platform")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.GetProducts(r.Context(), platforms.ProductQuery{
			Page:     params.Page,
			Limit:    params.Limit,
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 100),
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), 200),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StorefrontProduct returns one active catalog product.
func StorefrontProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product.Status != enums.ProductStatusActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseOptional(r, "status", enums.ParseProductStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		source, err := parseOptional(r, "source", enums.ParsePlatform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), productsvc.ListFilters{
			Status:   status,
			Source:   source,
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 100),
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), 200),
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		var body productsvc.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productsvc.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
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

type bulkProductsRequest struct {
	Action     string      `json:"action" validate:"required,oneof=activate draft archive delete"`
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1,max=500"`
}

func AdminBulkProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		var body bulkProductsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Bulk(r.Context(), productsvc.BulkAction(body.Action), body.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type importProductRequest struct {
	Platform  string                 `json:"platform" validate:"required,supplier"`
	ProductID string                 `json:"product_id" validate:"required"`
	Config    *importer.ImportConfig `json:"config,omitempty"`
}

// AdminImportProduct pulls one supplier product into the catalog.
func AdminImportProduct(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "importer")
			return
		}
		var body importProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		platform, err := enums.ParsePlatform(strings.TrimSpace(body.Platform))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform"))
			return
		}
		batch, err := svc.ImportByIDs(r.Context(), platform, []string{strings.TrimSpace(body.ProductID)}, importConfig(body.Config))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(batch.Results) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "supplier product not found"))
			return
		}
		responses.WriteSuccess(w, batch.Results[0])
	}
}

type bulkImportRequest struct {
	Platform   string                     `json:"platform,omitempty"`
	ProductIDs []string                   `json:"product_ids,omitempty"`
	Products   []platforms.UnifiedProduct `json:"products,omitempty"`
	Config     *importer.ImportConfig     `json:"config,omitempty"`
}

// AdminBulkImport imports supplier products by id, or from full product
// payloads when the caller already holds them.
func AdminBulkImport(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "importer")
			return
		}
		var body bulkImportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(body.ProductIDs)+len(body.Products) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_ids or products is required"))
			return
		}
		if len(body.ProductIDs) > maxImportBatch || len(body.Products) > maxImportBatch {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many products in one import").
				WithDetails(map[string]any{"max": maxImportBatch}))
			return
		}

		cfg := importConfig(body.Config)
		var (
			batch *importer.BatchResult
			err   error
		)
		if len(body.Products) > 0 {
			batch, err = svc.ImportProducts(r.Context(), body.Products, cfg)
		} else {
			platform, perr := enums.ParsePlatform(strings.TrimSpace(body.Platform))
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid platform"))
				return
			}
			batch, err = svc.ImportByIDs(r.Context(), platform, body.ProductIDs, cfg)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

func importConfig(cfg *importer.ImportConfig) importer.ImportConfig {
	if cfg == nil {
		return importer.DefaultImportConfig()
	}
	return *cfg
}
