// Package media stores one binary file per spiel.
package media

import (
	"context"
	"errors"
	"io"
	"time"

	"spielapi/internal/spiel"
)

var ErrNotFound = errors.New("media not found")

// Object is a stored file. Callers must close Body.
type Object struct {
	ContentType string
	Size        int64
	UpdatedAt   time.Time
	Body        io.ReadCloser
}

// Store persists files keyed by spiel id. Put replaces an existing file.
type Store interface {
	Put(ctx context.Context, id, contentType string, r io.Reader) error
	Get(ctx context.Context, id string) (*Object, error)
}

// SpielFinder is the part of the spiel service the media service needs.
type SpielFinder interface {
	FindByID(ctx context.Context, id string) (*spiel.Spiel, error)
}
