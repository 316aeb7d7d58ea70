package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code    Code
		status  int
		expose  bool
		details bool
	}{
		{CodeValidation, http.StatusBadRequest, true, true},
		{CodeUnauthorized, http.StatusUnauthorized, true, false},
		{CodeNotFound, http.StatusNotFound, true, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, true, true},
		{CodeIdempotency, http.StatusConflict, true, true},
		{CodeRateLimit, http.StatusTooManyRequests, true, false},
		{CodeInternal, http.StatusInternalServerError, false, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
		{CodeInsufficientStock, http.StatusConflict, true, true},
		{CodeNotConfigured, http.StatusPreconditionFailed, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.expose, meta.ExposeMessage)
			assert.Equal(t, tt.details, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_ELSE"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeDependency, cause, "cj create order")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cj create order", err.Message())
	assert.Contains(t, err.Error(), "connection reset")

	outer := fmt.Errorf("fulfill: %w", err)
	require.NotNil(t, As(outer))
	assert.True(t, Is(outer, CodeDependency))
	assert.False(t, Is(outer, CodeNotFound))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(cause))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(stdErrors.New("timeout")))
	assert.True(t, Retryable(New(CodeDependency, "zendrop down")))
	assert.False(t, Retryable(New(CodeValidation, "bad sku")))
	assert.False(t, Retryable(New(CodeNotConfigured, "cj keys missing")))
}

func TestNewfAndDetails(t *testing.T) {
	err := Newf(CodeInsufficientStock, "only %d left of %s", 2, "SKU-1").
		WithDetails(map[string]any{"sku": "SKU-1", "available": 2})
	assert.Equal(t, "only 2 left of SKU-1", err.Message())
	assert.Equal(t, map[string]any{"sku": "SKU-1", "available": 2}, err.Details())
}

func TestInspectPostgresErrors(t *testing.T) {
	pgx := Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key", TableName: "products"}, "create product")
	r := Inspect(pgx)
	assert.Equal(t, CodeConflict, r.Code)
	assert.Equal(t, "23505", r.PGCode)
	assert.Equal(t, "products_sku_key", r.Constraint)
	assert.Len(t, r.Chain, 2)
	fields := r.Fields()
	assert.Equal(t, "products", fields["pg_table"])
	assert.NotContains(t, fields, "pg_column")

	rep := Inspect(fmt.Errorf("insert: %w", &pq.Error{Code: "23503", Table: "order_items", Column: "product_id"}))
	assert.Equal(t, CodeInternal, rep.Code)
	assert.Equal(t, "23503", rep.PGCode)
	assert.Equal(t, "product_id", rep.Column)

	assert.Equal(t, Report{}, Inspect(nil))
}
