// Package migrate applies the goose SQL migrations that define the schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const DefaultDir = "pkg/migrate/migrations"

// Embedded is compiled into every binary so services can migrate without the
// source tree.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// EmbeddedFS is Embedded rooted at the migrations directory.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(Embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrator runs goose against one database and one set of migration files.
type Migrator struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// New prepares a Postgres migrator over the files in fsys.
func New(conn *sql.DB, fsys fs.FS, logg *logger.Logger) (*Migrator, error) {
	return newMigrator(database.DialectPostgres, conn, fsys, logg)
}

func newMigrator(dialect database.Dialect, conn *sql.DB, fsys fs.FS, logg *logger.Logger) (*Migrator, error) {
	if conn == nil {
		return nil, errors.New("db is required")
	}
	p, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: p, logg: logg}, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	res, err := m.provider.Up(ctx)
	m.report(ctx, res)
	return wrap("up", err)
}

// Down rolls back the newest applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	res, err := m.provider.Down(ctx)
	m.report(ctx, []*goose.MigrationResult{res})
	return wrap("down", err)
}

// Redo rolls back the newest migration and applies it again.
func (m *Migrator) Redo(ctx context.Context) error {
	if err := m.Down(ctx); err != nil {
		return err
	}
	res, err := m.provider.UpByOne(ctx)
	m.report(ctx, []*goose.MigrationResult{res})
	return wrap("redo", err)
}

// Reset rolls every migration back.
func (m *Migrator) Reset(ctx context.Context) error {
	res, err := m.provider.DownTo(ctx, 0)
	m.report(ctx, res)
	return wrap("reset", err)
}

// To moves the schema up or down until target is the newest applied version.
func (m *Migrator) To(ctx context.Context, target int64) error {
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return wrap("version", err)
	}
	var res []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		res, err = m.provider.UpTo(ctx, target)
	default:
		res, err = m.provider.DownTo(ctx, target)
	}
	m.report(ctx, res)
	return wrap(fmt.Sprintf("migrate to %d", target), err)
}

func (m *Migrator) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	st, err := m.provider.Status(ctx)
	return st, wrap("status", err)
}

func (m *Migrator) Pending(ctx context.Context) (bool, error) {
	ok, err := m.provider.HasPending(ctx)
	return ok, wrap("pending", err)
}

func (m *Migrator) report(ctx context.Context, results []*goose.MigrationResult) {
	if m.logg == nil {
		return
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fields := map[string]any{
			"version":     r.Source.Version,
			"file":        filepath.Base(r.Source.Path),
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		}
		if r.Error != nil {
			m.logg.Error(m.logg.WithFields(ctx, fields), "migrate.step_failed", r.Error)
			continue
		}
		m.logg.Info(m.logg.WithFields(ctx, fields), "migrate.step")
	}
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}

// ParseVersion reads a YYYYMMDDHHMMSS migration version.
func ParseVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != len(versionLayout) {
		return 0, fmt.Errorf("version %q: expected YYYYMMDDHHMMSS", raw)
	}
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("version %q: %w", raw, err)
	}
	var v int64
	_, err := fmt.Sscan(raw, &v)
	return v, err
}

const versionLayout = "20060102150405"

// Create writes an empty migration named after name into dir and returns
// its path.
func Create(dir, name string, now time.Time) (string, error) {
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, now.UTC().Format(versionLayout)+"_"+slug+".sql")
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n", upMarker, downMarker)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", err
	}
	return path, nil
}

func slugify(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// AutoRun applies the embedded migrations when a dev deployment enables
// auto-migrate. Other environments migrate through cmd/migrate.
func AutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	conn, err := client.DB().DB()
	if err != nil {
		return err
	}
	m, err := New(conn, EmbeddedFS(), logg)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "migrate.autorun")
	return m.Up(ctx)
}
