package service

import (
	"context"
	"errors"
	"testing"

	"github.com/helloworld/todo-service/internal/todo"
	"github.com/helloworld/todo-service/internal/todo/repository"
	"github.com/helloworld/todo-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCommitStore wraps a MemoryStore and fails every commit with err.
type failingCommitStore struct {
	*repository.MemoryStore
	err       error
	rollbacks int
}

func (f *failingCommitStore) Begin(ctx context.Context) (repository.Session, error) {
	sess, err := f.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingCommitSession{Session: sess, parent: f}, nil
}

type failingCommitSession struct {
	repository.Session
	parent *failingCommitStore
}

func (s *failingCommitSession) Commit() error {
	return s.parent.err
}

func (s *failingCommitSession) Rollback() error {
	s.parent.rollbacks++
	return s.Session.Rollback()
}

func seed(t *testing.T, svc Service, contents ...string) []*todo.Todo {
	t.Helper()
	out := make([]*todo.Todo, 0, len(contents))
	for _, c := range contents {
		created, err := svc.Create(context.Background(), &todo.Todo{Content: c})
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestCreateAssignsFreshIDs(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()

	created := seed(t, svc, "buy milk", "")
	require.Equal(t, int64(1), created[0].ID)
	require.Equal(t, int64(2), created[1].ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []*todo.Todo{{ID: 1, Content: "buy milk"}, {ID: 2, Content: ""}}, list)
}

func TestListIsIdempotent(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()
	seed(t, svc, "a", "b", "c")

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestUpdateChangesOnlyTargetRow(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()
	seed(t, svc, "a", "b")

	got, err := svc.Update(ctx, 1, nil, todo.Update{Content: "z"})
	require.NoError(t, err)
	require.Equal(t, &todo.Todo{ID: 1, Content: "z"}, got)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []*todo.Todo{{ID: 1, Content: "z"}, {ID: 2, Content: "b"}}, list)
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Update(ctx, 3, nil, todo.Update{Content: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpdateRejectsMismatchedBodyID(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()
	seed(t, svc, "a")

	other := int64(2)
	_, err := svc.Update(ctx, 1, &other, todo.Update{Content: "x"})
	require.ErrorIs(t, err, ErrIDMismatch)

	// a missing row wins over a mismatched body id
	_, err = svc.Update(ctx, 5, &other, todo.Update{Content: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	same := int64(1)
	got, err := svc.Update(ctx, 1, &same, todo.Update{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Content)
}

func TestUpdateCommitFailureRollsBack(t *testing.T) {
	mem := repository.NewMemoryStore()
	seed(t, New(mem), "a")

	cause := errors.New("connection reset by peer")
	store := &failingCommitStore{MemoryStore: mem, err: cause}
	svc := New(store)

	before := testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("update", "commit_failed"))
	_, err := svc.Update(context.Background(), 1, nil, todo.Update{Content: "lost"})
	var ce *repository.CommitError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "connection reset by peer", err.Error())
	require.Equal(t, 1, store.rollbacks)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("update", "commit_failed")))

	list, err := New(mem).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", list[0].Content)
}

func TestDelete(t *testing.T) {
	svc := New(repository.NewMemoryStore())
	ctx := context.Background()
	seed(t, svc, "a", "b")

	require.ErrorIs(t, svc.Delete(ctx, 9), ErrNotFound)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, 1))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []*todo.Todo{{ID: 2, Content: "b"}}, list)
}

func TestDeleteCommitFailureRollsBack(t *testing.T) {
	mem := repository.NewMemoryStore()
	seed(t, New(mem), "a")

	store := &failingCommitStore{MemoryStore: mem, err: errors.New("disk I/O error")}
	svc := New(store)

	before := testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("delete", "commit_failed"))
	err := svc.Delete(context.Background(), 1)
	var ce *repository.CommitError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "disk I/O error", err.Error())
	require.Equal(t, 1, store.rollbacks)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("delete", "commit_failed")))

	list, err := New(mem).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []*todo.Todo{{ID: 1, Content: "a"}}, list)
}
