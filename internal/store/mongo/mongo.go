// Package mongo keeps each record collection in a MongoDB collection of the
// same name. Change streams feed subscriptions when the deployment supports
// them; a standalone server falls back to local change signals.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"workshop/internal/platform/db"
	"workshop/internal/store"
)

type record struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type Store struct {
	client   *mongo.Client
	database *mongo.Database
	hub      *store.Hub
	logger   *zap.Logger

	mu           sync.RWMutex
	localSignals bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	var client *mongo.Client
	err := db.Retry(ctx, opts.ConnectTimeout, logger, "mongodb", func() error {
		candidate, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := candidate.Ping(ctx, nil); err != nil {
			_ = candidate.Disconnect(context.Background())
			return fmt.Errorf("ping: %w", err)
		}
		client = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		client:   client,
		database: client.Database(opts.Database),
		hub:      store.NewHub(),
		logger:   logger,
		cancel:   cancel,
	}

	stream, err := s.database.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		logger.Warn("mongodb change streams unavailable, using local change signals", zap.Error(err))
		s.localSignals = true
	} else {
		s.wg.Add(1)
		go s.watch(watchCtx, stream)
	}
	return s, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]store.Document, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.database.Collection(collection).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var records []record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	out := make([]store.Document, 0, len(records))
	for _, r := range records {
		out = append(out, r.document())
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var r record
	err := s.database.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return r.document(), nil
}

func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	now := time.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "data", Value: string(doc.Data)}, {Key: "updated_at", Value: now}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
	}
	_, err := s.database.Collection(collection).UpdateOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	s.publishLocal(collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.database.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	s.publishLocal(collection)
	return nil
}

func (s *Store) Subscribe(collection string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(collection)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	s.hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) publishLocal(collection string) {
	s.mu.RLock()
	local := s.localSignals
	s.mu.RUnlock()
	if local {
		s.hub.Publish(collection)
	}
}

type changeEvent struct {
	Namespace struct {
		Collection string `bson:"coll"`
	} `bson:"ns"`
}

func (s *Store) watch(ctx context.Context, stream *mongo.ChangeStream) {
	defer s.wg.Done()
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event changeEvent
		if err := stream.Decode(&event); err != nil {
			s.logger.Warn("mongodb change event decode failed", zap.Error(err))
			continue
		}
		if event.Namespace.Collection != "" {
			s.hub.Publish(event.Namespace.Collection)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("mongodb change stream ended, using local change signals", zap.Error(err))
		s.mu.Lock()
		s.localSignals = true
		s.mu.Unlock()
	}
}

func (r record) document() store.Document {
	return store.Document{ID: r.ID, Data: []byte(r.Data), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}
