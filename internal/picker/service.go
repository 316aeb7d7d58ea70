package picker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

const maxCandidates = 1000

// Importer adds supplier products to the catalog.
type Importer interface {
	ImportBatch(ctx context.Context, items []platforms.UnifiedProduct) platforms.BatchSummary
}

type RunInput struct {
	Candidates []Candidate        `json:"products"`
	Criteria   *CriteriaOverrides `json:"criteria,omitempty"`
	AutoImport bool               `json:"auto_import"`
}

// ImportSummary reports the catalog import of a run's winners.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

type Run struct {
	ID        uuid.UUID      `json:"id"`
	RunCode   string         `json:"run_code"`
	Criteria  Criteria       `json:"criteria"`
	Stats     RunStats       `json:"stats"`
	Winners   []Analysis     `json:"winners,omitempty"`
	Rejected  []Analysis     `json:"rejected,omitempty"`
	Imported  *ImportSummary `json:"imported,omitempty"`
	Duration  time.Duration  `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

type RunList struct {
	Runs       []Run           `json:"runs"`
	Pagination pagination.Meta `json:"pagination"`
}

type Service interface {
	Run(ctx context.Context, input RunInput) (*Run, error)
	ListRuns(ctx context.Context, params pagination.Params) (*RunList, error)
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	Criteria() Criteria
}

type ServiceParams struct {
	Repo     Repository
	Importer Importer
	Defaults *Criteria
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	importer Importer
	defaults Criteria
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the picker. Importer is only needed for auto-import runs.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("analysis run repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	defaults := DefaultCriteria()
	if params.Defaults != nil {
		if err := params.Defaults.Validate(); err != nil {
			return nil, err
		}
		defaults = *params.Defaults
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		importer: params.Importer,
		defaults: defaults,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) Criteria() Criteria {
	return s.defaults
}

// Run scores the candidates, stores the run and optionally imports the winners.
func (s *service) Run(ctx context.Context, input RunInput) (*Run, error) {
	if len(input.Candidates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no products supplied for analysis")
	}
	if len(input.Candidates) > maxCandidates {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d products per analysis", maxCandidates))
	}
	criteria := input.Criteria.Apply(s.defaults)
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if input.AutoImport && s.importer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "product import is not available")
	}

	start := s.now()
	result := Analyze(input.Candidates, criteria)
	run := &Run{
		RunCode:  newRunCode(start),
		Criteria: criteria,
		Stats:    result.Stats,
		Winners:  result.Winners,
		Rejected: result.Rejected,
	}
	ctx = s.logg.WithField(ctx, "run_code", run.RunCode)

	row, err := encodeRun(run)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode analysis run")
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save analysis run")
	}
	run.ID, run.CreatedAt = row.ID, row.CreatedAt

	if input.AutoImport && len(run.Winners) > 0 {
		run.Imported = s.importWinners(ctx, run.Winners)
	}
	run.Duration = s.now().Sub(start)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"analyzed":    run.Stats.TotalAnalyzed,
		"approved":    run.Stats.Approved,
		"hot_trends":  run.Stats.HotTrends,
		"duration_ms": run.Duration.Milliseconds(),
	}), "product analysis finished")
	return run, nil
}

func (s *service) importWinners(ctx context.Context, winners []Analysis) *ImportSummary {
	items := make([]platforms.UnifiedProduct, 0, len(winners))
	summary := &ImportSummary{}
	for _, w := range winners {
		p := w.Candidate
		if !p.Platform.IsVendor() {
			summary.Skipped++
			continue
		}
		items = append(items, platforms.UnifiedProduct{
			ID:          p.ID,
			VendorID:    platforms.StripID(p.Platform, p.ID),
			Platform:    p.Platform,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.Mul(retailMultiplier).Round(2),
			CostPrice:   p.Price,
			Images:      p.Images,
			Category:    p.Category,
			Stock:       p.Stock,
			Rating:      p.Rating,
			ReviewCount: p.Reviews,
		})
	}
	if len(items) == 0 {
		return summary
	}
	batch := s.importer.ImportBatch(ctx, items)
	summary.Imported += batch.Imported
	summary.Skipped += batch.Skipped
	summary.Failed += batch.Failed
	for _, err := range batch.Errors {
		summary.Errors = append(summary.Errors, err.Error())
	}
	return summary
}

func (s *service) ListRuns(ctx context.Context, params pagination.Params) (*RunList, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list analysis runs")
	}
	list := &RunList{Runs: make([]Run, 0, len(rows)), Pagination: pagination.NewMeta(params, total)}
	for i := range rows {
		run, err := decodeRun(&rows[i])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode analysis run")
		}
		list.Runs = append(list.Runs, *run)
	}
	return list, nil
}

func (s *service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "analysis run not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load analysis run")
	}
	run, err := decodeRun(row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode analysis run")
	}
	return run, nil
}

func newRunCode(at time.Time) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for range 9 {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return fmt.Sprintf("AI-%d-%s", at.UnixMilli(), b.String())
}

func encodeRun(run *Run) (*models.AnalysisRun, error) {
	criteria, err := json.Marshal(run.Criteria)
	if err != nil {
		return nil, err
	}
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return nil, err
	}
	winners, err := json.Marshal(run.Winners)
	if err != nil {
		return nil, err
	}
	rejected, err := json.Marshal(run.Rejected)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisRun{
		RunCode:  run.RunCode,
		Criteria: criteria,
		Stats:    stats,
		Winners:  winners,
		Rejected: rejected,
	}, nil
}

func decodeRun(row *models.AnalysisRun) (*Run, error) {
	run := &Run{ID: row.ID, RunCode: row.RunCode, CreatedAt: row.CreatedAt}
	docs := []struct {
		raw []byte
		dst any
	}{
		{row.Criteria, &run.Criteria},
		{row.Stats, &run.Stats},
		{row.Winners, &run.Winners},
		{row.Rejected, &run.Rejected},
	}
	for _, d := range docs {
		if len(d.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(d.raw, d.dst); err != nil {
			return nil, err
		}
	}
	return run, nil
}
