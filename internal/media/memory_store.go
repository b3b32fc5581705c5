package media

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type memoryObject struct {
	contentType string
	data        []byte
	updatedAt   time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, id, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = memoryObject{contentType: contentType, data: data, updatedAt: time.Now()}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{
		ContentType: o.contentType,
		Size:        int64(len(o.data)),
		UpdatedAt:   o.updatedAt,
		Body:        io.NopCloser(bytes.NewReader(o.data)),
	}, nil
}
