package main

import (
	"fmt"
	"math/rand"
	"time"

	"spielapi/internal/spiel"

	"github.com/google/uuid"
)

var words = []string{
	"Abenteuer", "Reise", "Geheimnis", "Traum", "Insel", "Drache", "Burg", "Wald",
	"Sterne", "Zeit", "Raum", "Labyrinth", "Schatz", "Nebel", "Kristall", "Sturm",
}

var vornamen = []string{"Anna", "Bernd", "Clara", "Dirk", "Emil", "Frieda"}

// generate returns n valid demo Spiele with unique titles and isbns.
func generate(rng *rand.Rand, n int) []spiel.Spiel {
	arten := []spiel.Art{spiel.ArtKindle, spiel.ArtDruckausgabe}
	verlage := []spiel.Verlag{spiel.VerlagIWI, spiel.VerlagHSKA}
	keywords := [][]string{
		nil,
		{spiel.SchlagwortJavascript},
		{spiel.SchlagwortTypescript},
		{spiel.SchlagwortJavascript, spiel.SchlagwortTypescript},
	}

	out := make([]spiel.Spiel, 0, n)
	for i := 0; i < n; i++ {
		rating := rng.Intn(spiel.MaxRating + 1)
		datum := spiel.NewDate(2000+rng.Intn(25), time.Month(1+rng.Intn(12)), 1+rng.Intn(28))
		preis := float64(100+rng.Intn(9900)) / 100
		word := words[rng.Intn(len(words))]
		out = append(out, spiel.Spiel{
			ID:            uuid.NewString(),
			Titel:         fmt.Sprintf("%s %d", word, i+1),
			Rating:        &rating,
			Art:           arten[rng.Intn(len(arten))],
			Verlag:        verlage[rng.Intn(len(verlage))],
			Preis:         &preis,
			Lieferbar:     rng.Intn(4) > 0,
			Datum:         &datum,
			ISBN:          demoISBN(i),
			Schlagwoerter: keywords[rng.Intn(len(keywords))],
			Autoren:       []spiel.Autor{{Nachname: word, Vorname: vornamen[rng.Intn(len(vornamen))]}},
		})
	}
	return out
}

// demoISBN returns a checksum-valid ISBN-13 in the 979-10 range, unique per n.
func demoISBN(n int) string {
	body := fmt.Sprintf("97910%07d", n)
	sum := 0
	for i, c := range body {
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return fmt.Sprintf("%s-%s-%s-%d", body[:3], body[3:5], body[5:], (10-sum%10)%10)
}
