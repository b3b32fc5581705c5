package spiel

import (
	"time"
)

// MaxRating is the highest rating a Spiel can carry.
const MaxRating = 5

// Art is the edition kind of a Spiel.
type Art string

const (
	ArtKindle       Art = "KINDLE"
	ArtDruckausgabe Art = "DRUCKAUSGABE"
)

// Verlag is the publisher of a Spiel.
type Verlag string

const (
	VerlagIWI  Verlag = "IWI_VERLAG"
	VerlagHSKA Verlag = "HSKA_VERLAG"
)

// Keywords recognised by the find flags.
const (
	SchlagwortJavascript = "JAVASCRIPT"
	SchlagwortTypescript = "TYPESCRIPT"
)

// Autor is one author of a Spiel.
type Autor struct {
	Nachname string `json:"nachname"`
	Vorname  string `json:"vorname"`
}

// Spiel represents a catalog entry.
type Spiel struct {
	ID            string    `json:"id,omitempty"`
	Titel         string    `json:"titel" validate:"required,titel"`
	Rating        *int      `json:"rating,omitempty" validate:"omitempty,rating"`
	Art           Art       `json:"art,omitempty" validate:"required,oneof=KINDLE DRUCKAUSGABE"`
	Verlag        Verlag    `json:"verlag" validate:"required,oneof=IWI_VERLAG HSKA_VERLAG"`
	Preis         *float64  `json:"preis" validate:"required,gte=0"`
	Rabatt        *float64  `json:"rabatt,omitempty" validate:"omitempty,gte=0,lte=1"`
	Lieferbar     bool      `json:"lieferbar"`
	Datum         *Date     `json:"datum,omitempty"`
	ISBN          string    `json:"isbn" validate:"required,isbn_checksum"`
	Homepage      string    `json:"homepage,omitempty" validate:"omitempty,url"`
	Schlagwoerter []string  `json:"schlagwoerter,omitempty"`
	Autoren       []Autor   `json:"autoren,omitempty"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasSchlagwort reports whether the keyword list contains kw.
func (s *Spiel) HasSchlagwort(kw string) bool {
	for _, w := range s.Schlagwoerter {
		if w == kw {
			return true
		}
	}
	return false
}

// Query defines the filters for listing Spiele. The zero value lists everything.
type Query struct {
	// Titel matches as a case-insensitive substring.
	Titel string
	// Javascript and Typescript each require the matching keyword; when both
	// are set either keyword satisfies the filter.
	Javascript bool
	Typescript bool
	Art        Art
	Verlag     Verlag
	ISBN       string
}

// IsZero reports whether no filter is set.
func (q Query) IsZero() bool {
	return q == Query{}
}

// Schlagwoerter returns the keywords required by the flags, OR-combined.
func (q Query) Schlagwoerter() []string {
	var out []string
	if q.Javascript {
		out = append(out, SchlagwortJavascript)
	}
	if q.Typescript {
		out = append(out, SchlagwortTypescript)
	}
	return out
}
