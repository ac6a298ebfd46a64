package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/helloworld/todo-service/internal/todo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const todoSequence = "todos"

// MongoStore implements Store on a MongoDB collection. Documents carry an
// integer "id" field allocated from a counters collection, so ids keep the
// same shape as the SQL backends.
//
// Standalone servers have no multi-document transactions; a session buffers
// its writes and applies them on Commit instead. Every service operation
// performs at most one write, so this is enough for all-or-nothing behaviour.
type MongoStore struct {
	client   *mongo.Client
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	db := client.Database(database)
	col := db.Collection("todos")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "content", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("create todo indexes: %w", err)
	}
	return &MongoStore{client: client, col: col, counters: db.Collection("counters")}, nil
}

func (m *MongoStore) Begin(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &mongoSession{store: m, ctx: ctx}, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}

// nextID atomically increments and returns the todos sequence.
func (m *MongoStore) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": todoSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate todo id: %w", err)
	}
	return counter.Seq, nil
}

type mongoSession struct {
	store   *MongoStore
	ctx     context.Context
	pending []func(ctx context.Context) error
	closed  bool
}

func (s *mongoSession) Create(t *todo.Todo) error {
	if s.closed {
		return errSessionClosed
	}
	if t.ID == 0 {
		id, err := s.store.nextID(s.ctx)
		if err != nil {
			return err
		}
		t.ID = id
	}
	doc := *t
	s.pending = append(s.pending, func(ctx context.Context) error {
		_, err := s.store.col.InsertOne(ctx, doc)
		return err
	})
	return nil
}

func (s *mongoSession) List() ([]*todo.Todo, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	cur, err := s.store.col.Find(s.ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(s.ctx)
	out := []*todo.Todo{}
	for cur.Next(s.ctx) {
		var t todo.Todo
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

func (s *mongoSession) Get(id int64) (*todo.Todo, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	var t todo.Todo
	err := s.store.col.FindOne(s.ctx, bson.M{"id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *mongoSession) Save(t *todo.Todo) error {
	if s.closed {
		return errSessionClosed
	}
	id, content := t.ID, t.Content
	s.pending = append(s.pending, func(ctx context.Context) error {
		res, err := s.store.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"content": content}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	return nil
}

func (s *mongoSession) Delete(id int64) error {
	if s.closed {
		return errSessionClosed
	}
	n, err := s.store.col.CountDocuments(s.ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.pending = append(s.pending, func(ctx context.Context) error {
		res, err := s.store.col.DeleteOne(ctx, bson.M{"id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	return nil
}

func (s *mongoSession) Commit() error {
	if s.closed {
		return errSessionClosed
	}
	s.closed = true
	for _, op := range s.pending {
		if err := op(s.ctx); err != nil {
			return err
		}
	}
	s.pending = nil
	return nil
}

func (s *mongoSession) Rollback() error {
	s.closed = true
	s.pending = nil
	return nil
}
