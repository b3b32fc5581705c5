package spiel

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*memoryTx)(nil)
)

// MemoryRepo is an in-process Repository. Transactions hold the write lock and
// operate on a copy that replaces the live data on commit.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Spiel
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Spiel), now: time.Now}
}

func (r *MemoryRepo) FindByID(_ context.Context, id string) (*Spiel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findByID(r.items, id), nil
}

func (r *MemoryRepo) Find(_ context.Context, q Query) ([]Spiel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return find(r.items, q), nil
}

func (r *MemoryRepo) FindByTitel(_ context.Context, titel string) (*Spiel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findOne(r.items, func(s *Spiel) bool { return s.Titel == titel }), nil
}

func (r *MemoryRepo) FindByISBN(_ context.Context, isbn string) (*Spiel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findOne(r.items, func(s *Spiel) bool { return s.ISBN == isbn }), nil
}

func (r *MemoryRepo) Insert(_ context.Context, s *Spiel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return insert(r.items, s, r.now())
}

func (r *MemoryRepo) ReplaceByID(_ context.Context, s *Spiel, version int) (*Spiel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return replace(r.items, s, version, r.now())
}

func (r *MemoryRepo) RemoveByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]Spiel, len(r.items))
	for k, v := range r.items {
		staged[k] = v
	}
	tx := &memoryTx{items: staged, now: r.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.items = staged
	return nil
}

func (r *MemoryRepo) Ping(context.Context) error { return nil }

func (r *MemoryRepo) Close() {}

// memoryTx runs under the MemoryRepo write lock.
type memoryTx struct {
	items map[string]Spiel
	now   func() time.Time
}

func (t *memoryTx) FindByID(_ context.Context, id string) (*Spiel, error) {
	return findByID(t.items, id), nil
}

func (t *memoryTx) Find(_ context.Context, q Query) ([]Spiel, error) {
	return find(t.items, q), nil
}

func (t *memoryTx) FindByTitel(_ context.Context, titel string) (*Spiel, error) {
	return findOne(t.items, func(s *Spiel) bool { return s.Titel == titel }), nil
}

func (t *memoryTx) FindByISBN(_ context.Context, isbn string) (*Spiel, error) {
	return findOne(t.items, func(s *Spiel) bool { return s.ISBN == isbn }), nil
}

func (t *memoryTx) Insert(_ context.Context, s *Spiel) error {
	return insert(t.items, s, t.now())
}

func (t *memoryTx) ReplaceByID(_ context.Context, s *Spiel, version int) (*Spiel, error) {
	return replace(t.items, s, version, t.now())
}

func (t *memoryTx) RemoveByID(_ context.Context, id string) error {
	delete(t.items, id)
	return nil
}

func (t *memoryTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	return fn(ctx, t)
}

func (t *memoryTx) Ping(context.Context) error { return nil }

func (t *memoryTx) Close() {}

func findByID(items map[string]Spiel, id string) *Spiel {
	s, ok := items[id]
	if !ok {
		return nil
	}
	c := clone(s)
	return &c
}

func findOne(items map[string]Spiel, match func(*Spiel) bool) *Spiel {
	for _, s := range items {
		if match(&s) {
			c := clone(s)
			return &c
		}
	}
	return nil
}

func find(items map[string]Spiel, q Query) []Spiel {
	titel := strings.ToLower(q.Titel)
	keywords := q.Schlagwoerter()

	out := []Spiel{}
	for _, s := range items {
		if titel != "" && !strings.Contains(strings.ToLower(s.Titel), titel) {
			continue
		}
		if q.Art != "" && s.Art != q.Art {
			continue
		}
		if q.Verlag != "" && s.Verlag != q.Verlag {
			continue
		}
		if q.ISBN != "" && s.ISBN != q.ISBN {
			continue
		}
		if len(keywords) > 0 {
			matched := false
			for _, kw := range keywords {
				if s.HasSchlagwort(kw) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, clone(s))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Titel != out[j].Titel {
			return out[i].Titel < out[j].Titel
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func insert(items map[string]Spiel, s *Spiel, now time.Time) error {
	for _, existing := range items {
		if existing.Titel == s.Titel {
			return newTitelExistsError(s.Titel)
		}
		if existing.ISBN == s.ISBN {
			return newIsbnExistsError(s.ISBN)
		}
	}
	s.Version = 0
	s.CreatedAt = now
	s.UpdatedAt = now
	items[s.ID] = clone(*s)
	return nil
}

func replace(items map[string]Spiel, s *Spiel, version int, now time.Time) (*Spiel, error) {
	existing, ok := items[s.ID]
	if !ok || existing.Version != version {
		return nil, nil
	}
	for id, other := range items {
		if id != s.ID && other.Titel == s.Titel {
			return nil, newTitelExistsError(s.Titel)
		}
	}
	next := clone(*s)
	next.ISBN = existing.ISBN
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = now
	next.Version = version + 1
	items[s.ID] = next

	out := clone(next)
	return &out, nil
}

func clone(s Spiel) Spiel {
	if s.Rating != nil {
		v := *s.Rating
		s.Rating = &v
	}
	if s.Preis != nil {
		v := *s.Preis
		s.Preis = &v
	}
	if s.Rabatt != nil {
		v := *s.Rabatt
		s.Rabatt = &v
	}
	if s.Datum != nil {
		v := *s.Datum
		s.Datum = &v
	}
	if s.Schlagwoerter != nil {
		s.Schlagwoerter = append([]string(nil), s.Schlagwoerter...)
	}
	if s.Autoren != nil {
		s.Autoren = append([]Autor(nil), s.Autoren...)
	}
	return s
}
