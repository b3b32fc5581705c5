package spiel

import (
	"context"
	"fmt"
	"time"
)

func ptr[T any](v T) *T { return &v }

// SeedData returns the sample Spiele loaded by the seed command.
func SeedData() []Spiel {
	return []Spiel{
		{
			ID:            "00000000-0000-0000-0000-000000000001",
			Titel:         "Alpha",
			Rating:        ptr(4),
			Art:           ArtDruckausgabe,
			Verlag:        VerlagIWI,
			Preis:         ptr(11.1),
			Rabatt:        ptr(0.011),
			Lieferbar:     true,
			Datum:         ptr(NewDate(2018, time.February, 1)),
			ISBN:          "0-0070-0644-6",
			Homepage:      "https://hska.at/",
			Schlagwoerter: []string{SchlagwortJavascript},
			Autoren:       []Autor{{Nachname: "Alpha", Vorname: "Adriana"}, {Nachname: "Alpha", Vorname: "Alfred"}},
		},
		{
			ID:            "00000000-0000-0000-0000-000000000002",
			Titel:         "Beta",
			Rating:        ptr(2),
			Art:           ArtKindle,
			Verlag:        VerlagHSKA,
			Preis:         ptr(22.2),
			Rabatt:        ptr(0.022),
			Lieferbar:     true,
			Datum:         ptr(NewDate(2018, time.February, 2)),
			ISBN:          "0-0070-9732-8",
			Homepage:      "https://hska.biz/",
			Schlagwoerter: []string{SchlagwortTypescript},
			Autoren:       []Autor{{Nachname: "Beta", Vorname: "Brunhilde"}},
		},
	}
}

// Seed inserts the sample Spiele whose titel is not taken yet and returns how
// many were inserted.
func Seed(ctx context.Context, repo Repository) (int, error) {
	inserted := 0
	err := repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		for _, s := range SeedData() {
			existing, err := tx.FindByTitel(ctx, s.Titel)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if fields := Validate(&s, false); fields != nil {
				return newValidationError(fields)
			}
			if err := tx.Insert(ctx, &s); err != nil {
				return fmt.Errorf("insert %s: %w", s.Titel, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
