package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"spielapi/internal/config"
	"spielapi/internal/platform/logger"
	"spielapi/internal/spiel"
)

func main() {
	extra := flag.Int("extra", 0, "Number of generated demo spiele to insert in addition to the samples")
	flag.Parse()

	config.LoadEnvFiles()
	log, err := logger.New(os.Getenv("LOG_MODE"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("missing required environment variable: DB_DSN")
	}

	ctx := context.Background()
	repo, err := spiel.OpenPostgres(ctx, dsn, 30*time.Second)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer repo.Close()

	n, err := spiel.Seed(ctx, repo)
	if err != nil {
		log.Fatal("failed to seed samples", "error", err)
	}
	log.Info("samples inserted", "count", n)

	if *extra > 0 {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		demo := generate(rng, *extra)
		err := repo.WithTx(ctx, func(ctx context.Context, tx spiel.Repository) error {
			for i := range demo {
				if err := tx.Insert(ctx, &demo[i]); err != nil {
					return err
				}
				if (i+1)%1000 == 0 {
					log.Info("generated spiele", "done", i+1, "total", len(demo))
				}
			}
			return nil
		})
		if err != nil {
			log.Fatal("failed to insert demo spiele", "error", err)
		}
		log.Info("demo spiele inserted", "count", len(demo))
	}

	all, err := repo.Find(ctx, spiel.Query{})
	if err != nil {
		log.Fatal("failed to count spiele", "error", err)
	}
	log.Info("total spiele in database", "count", len(all))
}
