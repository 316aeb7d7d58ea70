package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up         apply every pending migration
  down       roll back the newest migration
  redo       roll back and re-apply the newest migration
  reset      roll back every migration
  status     list migrations and whether they are applied
  to         move to -version (YYYYMMDDHHMMSS)
  create     write an empty migration named -name into -dir
  validate   check file names and goose markers in -dir

flags:
`

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name for create")
	version := flag.String("version", "", "target version for to")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(command, *dir, *embedded, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}

func run(command, dir string, embedded bool, name, version string) error {
	// offline commands
	switch command {
	case "create":
		if name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.Create(dir, name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "command": command})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()
	conn, err := client.DB().DB()
	if err != nil {
		return err
	}

	files := migrate.EmbeddedFS()
	if !embedded {
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		files = os.DirFS(dir)
	}
	m, err := migrate.New(conn, files, logg)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "redo":
		return m.Redo(ctx)
	case "reset":
		return m.Reset(ctx)
	case "to":
		target, err := migrate.ParseVersion(version)
		if err != nil {
			return err
		}
		return m.To(ctx, target)
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown command %q", command)
}
