package main

import (
	"errors"
	"os"
)

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}

func databaseDSN() (string, error) {
	if v := os.Getenv("DB_DSN"); v != "" {
		return v, nil
	}
	return "", errors.New("missing required environment variable: DB_DSN")
}
