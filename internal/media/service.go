package media

import (
	"context"
	"fmt"
	"io"

	"spielapi/internal/platform/logger"
)

const defaultContentType = "application/octet-stream"

type Service struct {
	store  Store
	spiele SpielFinder
	log    *logger.Logger
}

func NewService(store Store, spiele SpielFinder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, spiele: spiele, log: log.With("component", "media")}
}

// Save stores r as the file of spiel id. It reports false when the spiel does
// not exist.
func (s *Service) Save(ctx context.Context, id, contentType string, r io.Reader) (bool, error) {
	sp, err := s.spiele.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if sp == nil {
		return false, nil
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	if err := s.store.Put(ctx, id, contentType, r); err != nil {
		return false, fmt.Errorf("store media of %s: %w", id, err)
	}
	s.log.Debug("media saved", "id", id, "content_type", contentType)
	return true, nil
}

// Find returns ErrNotFound when either the spiel or its file is missing.
func (s *Service) Find(ctx context.Context, id string) (*Object, error) {
	sp, err := s.spiele.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}
