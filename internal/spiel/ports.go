package spiel

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=spiel

// Repository defines the contract for Spiel storage. Lookups return nil, nil
// when nothing matches. The store enforces titel and isbn uniqueness itself and
// reports violations as ErrTitelExists or ErrIsbnExists.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Spiel, error)
	Find(ctx context.Context, q Query) ([]Spiel, error)
	FindByTitel(ctx context.Context, titel string) (*Spiel, error)
	FindByISBN(ctx context.Context, isbn string) (*Spiel, error)
	Insert(ctx context.Context, s *Spiel) error
	// ReplaceByID stores s if the stored version still equals version and bumps
	// the version by one. It returns nil, nil when no row matched.
	ReplaceByID(ctx context.Context, s *Spiel, version int) (*Spiel, error)
	RemoveByID(ctx context.Context, id string) error
	// WithTx runs fn against a view of the repository whose writes become
	// visible only if fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
	Ping(ctx context.Context) error
	Close()
}

// Notifier delivers best-effort messages.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
