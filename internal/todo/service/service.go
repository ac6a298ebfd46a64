package service

import (
	"context"
	"errors"

	"github.com/helloworld/todo-service/internal/todo"
	"github.com/helloworld/todo-service/internal/todo/repository"
	"github.com/helloworld/todo-service/pkg/metrics"
)

var (
	ErrNotFound   = errors.New("todo not found")
	ErrIDMismatch = errors.New("todo id in body does not match path")
)

// Service defines the todo operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error)
	List(ctx context.Context) ([]*todo.Todo, error)
	Update(ctx context.Context, id int64, bodyID *int64, u todo.Update) (*todo.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// New returns a Service running every operation in its own session on store.
func New(store repository.Store) Service {
	return &todoService{store: store}
}

type todoService struct {
	store repository.Store
}

func (s *todoService) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	created := &todo.Todo{ID: t.ID, Content: t.Content}
	err := repository.WithSession(ctx, s.store, func(sess repository.Session) error {
		return sess.Create(created)
	})
	observe("create", err)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *todoService) List(ctx context.Context) ([]*todo.Todo, error) {
	var out []*todo.Todo
	err := repository.WithSession(ctx, s.store, func(sess repository.Session) error {
		var err error
		out, err = sess.List()
		return err
	})
	observe("list", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the whitelisted fields of todo id. The path id is
// authoritative: a body id, when given, must match it. A missing row is
// reported before a mismatched body id.
func (s *todoService) Update(ctx context.Context, id int64, bodyID *int64, u todo.Update) (*todo.Todo, error) {
	var updated *todo.Todo
	err := repository.WithSession(ctx, s.store, func(sess repository.Session) error {
		existing, err := sess.Get(id)
		if err != nil {
			return err
		}
		if bodyID != nil && *bodyID != id {
			return ErrIDMismatch
		}
		u.Apply(existing)
		if err := sess.Save(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	err = translate(err)
	observe("update", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *todoService) Delete(ctx context.Context, id int64) error {
	err := repository.WithSession(ctx, s.store, func(sess repository.Session) error {
		if _, err := sess.Get(id); err != nil {
			return err
		}
		return sess.Delete(id)
	})
	err = translate(err)
	observe("delete", err)
	return err
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func observe(op string, err error) {
	outcome := "ok"
	var ce *repository.CommitError
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrIDMismatch):
		outcome = "invalid"
	case errors.As(err, &ce):
		outcome = "commit_failed"
	default:
		outcome = "error"
	}
	metrics.TodoOperations.WithLabelValues(op, outcome).Inc()
}
