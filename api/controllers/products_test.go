package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/internal/importer"
	productsvc "github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

type stubProducts struct {
	productsvc.Service
	product *models.Product
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p := *s.product
	p.ID = id
	return &p, nil
}

type stubImporter struct {
	importer.Service
	byIDsFn func(ctx context.Context, platform enums.Platform, ids []string, cfg importer.ImportConfig) (*importer.BatchResult, error)
}

func (s *stubImporter) ImportByIDs(ctx context.Context, platform enums.Platform, ids []string, cfg importer.ImportConfig) (*importer.BatchResult, error) {
	return s.byIDsFn(ctx, platform, ids, cfg)
}

func TestStorefrontProductHidesInactive(t *testing.T) {
	logg := testLogger()
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	active := &stubProducts{product: &models.Product{Name: "Lamp", Status: enums.ProductStatusActive}}
	rec := serve(t, StorefrontProduct(active, logg), request{method: http.MethodGet, target: "/", params: params})
	require.Equal(t, http.StatusOK, rec.Code)
	var product models.Product
	decodeData(t, rec, &product)
	require.Equal(t, id, product.ID)
	require.Equal(t, "Lamp", product.Name)

	draft := &stubProducts{product: &models.Product{Name: "Lamp", Status: enums.ProductStatusDraft}}
	rec = serve(t, StorefrontProduct(draft, logg), request{method: http.MethodGet, target: "/", params: params})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminImportProduct(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()
	svc := &stubImporter{byIDsFn: func(_ context.Context, platform enums.Platform, ids []string, cfg importer.ImportConfig) (*importer.BatchResult, error) {
		require.Equal(t, enums.PlatformCJ, platform)
		require.Equal(t, []string{"CJ-100"}, ids)
		require.Equal(t, importer.DefaultImportConfig(), cfg)
		return &importer.BatchResult{Imported: 1, Results: []importer.ImportResult{{VendorID: "CJ-100", Success: true, ProductID: &productID}}}, nil
	}}

	rec := serve(t, AdminImportProduct(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"platform": "cj", "product_id": " CJ-100 "}`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out importer.ImportResult
	decodeData(t, rec, &out)
	require.True(t, out.Success)
	require.Equal(t, productID, *out.ProductID)

	rec = serve(t, AdminImportProduct(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"platform": "ebay", "product_id": "1"}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminBulkImportLimits(t *testing.T) {
	logg := testLogger()
	svc := &stubImporter{byIDsFn: func(_ context.Context, _ enums.Platform, ids []string, _ importer.ImportConfig) (*importer.BatchResult, error) {
		return &importer.BatchResult{Imported: len(ids)}, nil
	}}

	rec := serve(t, AdminBulkImport(svc, logg), request{method: http.MethodPost, target: "/", body: `{"platform": "cj"}`})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ids := make([]string, maxImportBatch+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("%q", fmt.Sprintf("CJ-%d", i))
	}
	rec = serve(t, AdminBulkImport(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"platform": "cj", "product_ids": [` + strings.Join(ids, ",") + `]}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.EqualValues(t, maxImportBatch, decodeError(t, rec).Details["max"])

	rec = serve(t, AdminBulkImport(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"platform": "zendrop", "product_ids": ["Z-1", "Z-2"]}`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var batch importer.BatchResult
	decodeData(t, rec, &batch)
	require.Equal(t, 2, batch.Imported)
}
