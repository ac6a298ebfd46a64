package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/helloworld/todo-service/internal/todo"
)

var (
	ErrNotFound = errors.New("todo not found")
)

// Store is the long-lived storage handle created at startup. Each request
// acquires its own Session from it.
type Store interface {
	Begin(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// Session is a transactional view of the todos table scoped to one request.
// Writes become visible to other sessions only after Commit.
type Session interface {
	Create(t *todo.Todo) error
	List() ([]*todo.Todo, error)
	Get(id int64) (*todo.Todo, error)
	Save(t *todo.Todo) error
	Delete(id int64) error
	Commit() error
	Rollback() error
}

// CommitError is returned by WithSession when the work succeeded but the
// commit did not. The session has been rolled back by the time it is seen.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return e.Err.Error() }

func (e *CommitError) Unwrap() error { return e.Err }

// WithSession acquires a session, runs fn and commits. Any error from fn, a
// failed commit or a panic rolls the session back.
func WithSession(ctx context.Context, store Store, fn func(Session) error) (err error) {
	sess, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	done := false
	defer func() {
		if done {
			return
		}
		_ = sess.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(sess); err != nil {
		return err
	}
	if cerr := sess.Commit(); cerr != nil {
		return &CommitError{Err: cerr}
	}
	done = true
	return nil
}
