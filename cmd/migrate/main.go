package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joao-fontenele/tacotown/internal/config"
	"github.com/joao-fontenele/tacotown/internal/logging"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-source url] <up|down|version|force N>")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Options{Service: "tacotown-migrate", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.Store.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	m, err := migrate.New(*source, cfg.Store.PostgresURL)
	if err != nil {
		logger.Error("failed to create migrate instance", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
		} else if err != nil {
			logger.Error("migration up failed", "error", err)
			os.Exit(1)
		} else {
			logger.Info("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to roll back")
		} else if err != nil {
			logger.Error("migration down failed", "error", err)
			os.Exit(1)
		} else {
			logger.Info("rolled back one migration")
		}

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("failed to read version", "error", err)
			os.Exit(1)
		}
		logger.Info("current migration version", "version", version, "dirty", dirty)

	case "force":
		if len(args) < 2 {
			logger.Error("force needs a version number")
			os.Exit(2)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Error("invalid version", "value", args[1], "error", err)
			os.Exit(2)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force failed", "error", err)
			os.Exit(1)
		}
		logger.Info("forced migration version", "version", version)

	default:
		logger.Error("unknown command", "command", command)
		os.Exit(2)
	}
}
