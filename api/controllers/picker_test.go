package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/internal/picker"
)

type stubPicker struct {
	picker.Service
	runFn func(ctx context.Context, input picker.RunInput) (*picker.Run, error)
}

func (s *stubPicker) Run(ctx context.Context, input picker.RunInput) (*picker.Run, error) {
	return s.runFn(ctx, input)
}

func (s *stubPicker) Criteria() picker.Criteria {
	return picker.DefaultCriteria()
}

func TestAnalyzeProducts(t *testing.T) {
	logg := testLogger()
	svc := &stubPicker{runFn: func(_ context.Context, input picker.RunInput) (*picker.Run, error) {
		require.Len(t, input.Candidates, 1)
		require.Equal(t, "Desk Lamp", input.Candidates[0].Name)
		require.NotNil(t, input.Criteria)
		require.Equal(t, 4.0, *input.Criteria.MinRating)
		return &picker.Run{
			ID:       uuid.New(),
			RunCode:  "AI-1-abc",
			Stats:    picker.RunStats{TotalAnalyzed: 1, Approved: 1},
			Duration: 12 * time.Millisecond,
		}, nil
	}}

	rec := serve(t, AnalyzeProducts(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"products": [{"id": "cj_1", "name": "Desk Lamp", "price": "4.00", "rating": 4.9}], "criteria": {"min_rating": 4}}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var out struct {
		Run        picker.Run `json:"run"`
		DurationMS int64      `json:"duration_ms"`
	}
	decodeData(t, rec, &out)
	require.Equal(t, "AI-1-abc", out.Run.RunCode)
	require.EqualValues(t, 12, out.DurationMS)
}

func TestPickerCriteria(t *testing.T) {
	rec := serve(t, PickerCriteria(&stubPicker{}, testLogger()), request{method: http.MethodGet, target: "/"})
	require.Equal(t, http.StatusOK, rec.Code)
	var criteria picker.Criteria
	decodeData(t, rec, &criteria)
	require.Equal(t, picker.DefaultCriteria().MinRating, criteria.MinRating)
	require.Equal(t, 50, criteria.MaxProductsPerRun)
}
