package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/helloworld/todo-service/internal/todo"
)

var errSessionClosed = errors.New("session already closed")

// MemoryStore is an in-process Store used for development and unit tests.
// Sessions are serialized: Begin blocks until the previous session is
// committed or rolled back.
type MemoryStore struct {
	mu     sync.Mutex
	store  map[int64]todo.Todo
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[int64]todo.Todo), nextID: 1}
}

func (m *MemoryStore) Begin(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	staged := make(map[int64]todo.Todo, len(m.store))
	for id, t := range m.store {
		staged[id] = t
	}
	return &memorySession{parent: m, staged: staged, nextID: m.nextID}, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryStore) Close() error { return nil }

type memorySession struct {
	parent *MemoryStore
	staged map[int64]todo.Todo
	nextID int64
	closed bool
}

func (s *memorySession) Create(t *todo.Todo) error {
	if s.closed {
		return errSessionClosed
	}
	if t.ID == 0 {
		for {
			if _, taken := s.staged[s.nextID]; !taken {
				break
			}
			s.nextID++
		}
		t.ID = s.nextID
	}
	if _, exists := s.staged[t.ID]; exists {
		return errors.New("duplicate key value violates unique constraint \"todos_pkey\"")
	}
	s.staged[t.ID] = *t
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	return nil
}

func (s *memorySession) List() ([]*todo.Todo, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	out := make([]*todo.Todo, 0, len(s.staged))
	for _, t := range s.staged {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memorySession) Get(id int64) (*todo.Todo, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	t, ok := s.staged[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *memorySession) Save(t *todo.Todo) error {
	if s.closed {
		return errSessionClosed
	}
	if _, ok := s.staged[t.ID]; !ok {
		return ErrNotFound
	}
	s.staged[t.ID] = *t
	return nil
}

func (s *memorySession) Delete(id int64) error {
	if s.closed {
		return errSessionClosed
	}
	if _, ok := s.staged[id]; !ok {
		return ErrNotFound
	}
	delete(s.staged, id)
	return nil
}

func (s *memorySession) Commit() error {
	if s.closed {
		return errSessionClosed
	}
	s.parent.store = s.staged
	s.parent.nextID = s.nextID
	s.release()
	return nil
}

func (s *memorySession) Rollback() error {
	if s.closed {
		return nil
	}
	s.release()
	return nil
}

func (s *memorySession) release() {
	s.closed = true
	s.parent.mu.Unlock()
}
