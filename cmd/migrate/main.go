package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"spielapi/internal/config"
	"spielapi/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, redo, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	log, err := logger.New(os.Getenv("LOG_MODE"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dir := migrationsDir()
	if *command == "create" {
		if *name == "" {
			log.Fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatal("failed to create migration", "error", err)
		}
		log.Info("migration created", "name", *name, "dir", dir)
		return
	}

	dsn, err := databaseDSN()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := run(db, *command, dir); err != nil {
		log.Fatal("migration failed", "command", *command, "error", err)
	}
	log.Info("migration finished", "command", *command)
}

func run(db *sql.DB, command, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "redo":
		return goose.Redo(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, redo, status, version, create", command)
	}
}
