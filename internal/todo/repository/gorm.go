package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/helloworld/todo-service/internal/todo"
	"gorm.io/gorm"
)

// GormStore implements Store on a relational database through GORM. Every
// session is a database transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the todos table and its content index when missing.
func (g *GormStore) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&todo.Todo{}); err != nil {
		return fmt.Errorf("migrate todos: %w", err)
	}
	return nil
}

func (g *GormStore) Begin(ctx context.Context) (Session, error) {
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormSession{tx: tx}, nil
}

func (g *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormSession struct {
	tx *gorm.DB
}

func (s *gormSession) Create(t *todo.Todo) error {
	if err := s.tx.Create(t).Error; err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (s *gormSession) List() ([]*todo.Todo, error) {
	out := []*todo.Todo{}
	if err := s.tx.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	return out, nil
}

func (s *gormSession) Get(id int64) (*todo.Todo, error) {
	var t todo.Todo
	err := s.tx.First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select todo %d: %w", id, err)
	}
	return &t, nil
}

func (s *gormSession) Save(t *todo.Todo) error {
	res := s.tx.Model(&todo.Todo{ID: t.ID}).Update("content", t.Content)
	if res.Error != nil {
		return fmt.Errorf("update todo %d: %w", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormSession) Delete(id int64) error {
	res := s.tx.Delete(&todo.Todo{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete todo %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormSession) Commit() error { return s.tx.Commit().Error }

func (s *gormSession) Rollback() error { return s.tx.Rollback().Error }
