package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/dropship-backend/internal/admins"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	name := flag.String("name", "", "display name, defaults to the email local part")
	password := flag.String("password", "", "password; a temporary one is generated when empty")
	reset := flag.Bool("reset", false, "reset the password of an existing admin")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "create-admin"})
	_ = godotenv.Load()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "create-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := admins.NewService(admins.ServiceParams{
		Repo:           admins.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create admin service", err)
		os.Exit(1)
	}

	result, err := svc.Create(ctx, admins.CreateInput{
		Email:         *email,
		Name:          *name,
		Password:      *password,
		ResetExisting: *reset,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create admin: %v\n", err)
		os.Exit(1)
	}

	verb := "created"
	if result.Reset {
		verb = "reset"
	}
	fmt.Printf("admin %s: %s (%s)\n", verb, result.Admin.Email, result.Admin.ID)
	if result.TempPassword != "" {
		fmt.Printf("temporary password: %s\n", result.TempPassword)
	}
}
