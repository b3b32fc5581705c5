package spiel

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	"spielapi/internal/platform/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const notifyTimeout = 10 * time.Second

// Service provides the Spiel business logic: validation, uniqueness checks and
// optimistic locking on update.
type Service struct {
	repo     Repository
	notifier Notifier
	mailTo   string
	log      *logger.Logger
	tracer   trace.Tracer
	pending  sync.WaitGroup
}

// NewService creates a new Spiel service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, mailTo string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		mailTo:   mailTo,
		log:      log.With("component", "spiel.Service"),
		tracer:   otel.Tracer("spielapi/internal/spiel"),
	}
}

// FindByID returns the Spiel with the given id, or nil if there is none.
func (s *Service) FindByID(ctx context.Context, id string) (*Spiel, error) {
	ctx, span := s.tracer.Start(ctx, "spiel.FindByID", trace.WithAttributes(attribute.String("spiel.id", id)))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	sp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, "find_by_id", fmt.Errorf("find spiel %s: %w", id, err))
	}
	observe("find_by_id", nil)
	return sp, nil
}

// Find lists the Spiele matching q, sorted by titel. An empty result is an
// empty, non-nil slice.
func (s *Service) Find(ctx context.Context, q Query) ([]Spiel, error) {
	ctx, span := s.tracer.Start(ctx, "spiel.Find")
	defer span.End()

	out, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, s.fail(span, "find", fmt.Errorf("find spiele: %w", err))
	}
	if out == nil {
		out = []Spiel{}
	}
	observe("find", nil)
	return out, nil
}

// Create validates and stores a new Spiel. Any id or version on in is ignored.
// The stored entity is returned with its new id and version 0.
func (s *Service) Create(ctx context.Context, in Spiel) (*Spiel, error) {
	ctx, span := s.tracer.Start(ctx, "spiel.Create")
	defer span.End()

	in.ID = ""
	in.Version = 0
	if fields := Validate(&in, true); fields != nil {
		return nil, s.fail(span, "create", newValidationError(fields))
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		existing, err := tx.FindByTitel(ctx, in.Titel)
		if err != nil {
			return fmt.Errorf("find by titel: %w", err)
		}
		if existing != nil {
			return newTitelExistsError(in.Titel)
		}

		existing, err = tx.FindByISBN(ctx, in.ISBN)
		if err != nil {
			return fmt.Errorf("find by isbn: %w", err)
		}
		if existing != nil {
			return newIsbnExistsError(in.ISBN)
		}

		in.ID = uuid.NewString()
		return tx.Insert(ctx, &in)
	})
	if err != nil {
		return nil, s.fail(span, "create", err)
	}

	span.SetAttributes(attribute.String("spiel.id", in.ID))
	s.log.Debug("spiel created", "id", in.ID, "titel", in.Titel)
	s.notifyCreated(ctx, in.ID, in.Titel)
	observe("create", nil)
	return &in, nil
}

// Update replaces the stored Spiel in.ID with in. versionToken is the version
// the caller last read; surrounding double quotes are accepted. The isbn of an
// existing Spiel never changes.
func (s *Service) Update(ctx context.Context, in Spiel, versionToken string) (*Spiel, error) {
	ctx, span := s.tracer.Start(ctx, "spiel.Update", trace.WithAttributes(attribute.String("spiel.id", in.ID)))
	defer span.End()

	if versionToken == "" {
		return nil, s.fail(span, "update", newVersionInvalidError("version missing"))
	}
	version, err := strconv.Atoi(strings.Trim(versionToken, `"`))
	if err != nil {
		return nil, s.fail(span, "update", newVersionInvalidError("version invalid: %s", versionToken))
	}

	if fields := Validate(&in, false); fields != nil {
		return nil, s.fail(span, "update", newValidationError(fields))
	}

	owner, err := s.repo.FindByTitel(ctx, in.Titel)
	if err != nil {
		return nil, s.fail(span, "update", fmt.Errorf("find by titel: %w", err))
	}
	if owner != nil && owner.ID != in.ID {
		return nil, s.fail(span, "update", newTitelExistsError(in.Titel))
	}

	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, s.fail(span, "update", fmt.Errorf("find spiel %s: %w", in.ID, err))
	}
	if current == nil {
		return nil, s.fail(span, "update", newNotExistsError(in.ID))
	}

	if version != current.Version {
		return nil, s.fail(span, "update", newVersionInvalidError("version %d is not current", version))
	}

	in.ISBN = current.ISBN
	in.CreatedAt = current.CreatedAt
	updated, err := s.repo.ReplaceByID(ctx, &in, version)
	if err != nil {
		return nil, s.fail(span, "update", err)
	}
	if updated == nil {
		return nil, s.fail(span, "update", newVersionInvalidError("version %d of spiel %s is not current", version, in.ID))
	}

	s.log.Debug("spiel updated", "id", updated.ID, "version", updated.Version)
	observe("update", nil)
	return updated, nil
}

// Remove deletes the Spiel with the given id. A missing id is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "spiel.Remove", trace.WithAttributes(attribute.String("spiel.id", id)))
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if err := s.repo.RemoveByID(ctx, id); err != nil {
		return s.fail(span, "remove", fmt.Errorf("remove spiel %s: %w", id, err))
	}
	s.log.Debug("spiel removed", "id", id)
	observe("remove", nil)
	return nil
}

// Wait blocks until all pending notifications have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) notifyCreated(ctx context.Context, id, titel string) {
	if s.notifier == nil {
		return
	}
	subject := "Neues Spiel " + id
	body := fmt.Sprintf("Das Spiel mit dem Titel <strong>%s</strong> ist angelegt", html.EscapeString(titel))

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(nctx, s.mailTo, subject, body); err != nil {
			s.log.Warn("notification failed", "id", id, "error", err)
		}
	}()
}

func (s *Service) fail(span trace.Span, op string, err error) error {
	observe(op, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if KindOf(err) == 0 {
		s.log.Error("spiel operation failed", "operation", op, "error", err)
	} else {
		s.log.Debug("spiel operation rejected", "operation", op, "error", err)
	}
	return err
}
