// Package mongodb provides a MongoDB implementation of the record store.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// Store implements persistence.Store on a MongoDB database. Records keep
// their own string "id" field; the driver-assigned _id never leaves this
// package.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and ensures the unique indexes backing the
// store's conflict semantics.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, col := range persistence.Collections {
		indexes := []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
			},
		}

		if fields := persistence.UniqueKeys[col]; len(fields) > 0 {
			keys := bson.D{}
			for _, f := range fields {
				keys = append(keys, bson.E{Key: f, Value: 1})
			}

			indexes = append(indexes, mongo.IndexModel{
				Keys:    keys,
				Options: options.Index().SetUnique(true),
			})
		}

		if _, err := s.db.Collection(string(col)).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", col, err)
		}
	}

	return nil
}

// Insert writes one record, assigning identity and timestamps.
func (s *Store) Insert(ctx context.Context, col persistence.Collection, doc persistence.Document) (persistence.Document, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Insert", col, "", persistence.ErrUnknownCollection)
	}

	stored := stamp(doc)

	if _, err := s.db.Collection(string(col)).InsertOne(ctx, bson.M(stored)); err != nil {
		return nil, persistence.NewStoreError("Insert", col, stored.ID(), mapMongoError(err))
	}

	return stored, nil
}

// InsertMany writes a batch with ordered semantics: the first failure aborts
// the rest of the batch. Records inserted before the failure remain; callers
// needing per-record recovery fall back to Insert.
func (s *Store) InsertMany(ctx context.Context, col persistence.Collection, docs []persistence.Document) ([]string, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("InsertMany", col, "", persistence.ErrUnknownCollection)
	}

	ids := make([]string, 0, len(docs))
	payload := make([]any, 0, len(docs))

	for _, doc := range docs {
		stored := stamp(doc)
		ids = append(ids, stored.ID())
		payload = append(payload, bson.M(stored))
	}

	if _, err := s.db.Collection(string(col)).InsertMany(ctx, payload, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, persistence.NewStoreError("InsertMany", col, "", mapMongoError(err))
	}

	return ids, nil
}

// UpdateByID merges fields into the stored document. Identity and creation
// time are not patchable.
func (s *Store) UpdateByID(ctx context.Context, col persistence.Collection, id string, fields persistence.Document) (persistence.Document, error) {
	set := bson.M{}

	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}

		set[k] = v
	}

	set["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	after := options.After
	res := s.db.Collection(string(col)).FindOneAndUpdate(
		ctx,
		bson.M{"id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	)

	var raw bson.M
	if err := res.Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, persistence.NewStoreError("UpdateByID", col, id, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("UpdateByID", col, id, mapMongoError(err))
	}

	return fromBSON(raw), nil
}

// DeleteByID removes a record. Deleting a missing record is not an error.
func (s *Store) DeleteByID(ctx context.Context, col persistence.Collection, id string) error {
	if _, err := s.db.Collection(string(col)).DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return persistence.NewStoreError("DeleteByID", col, id, err)
	}

	return nil
}

// DeleteWhere removes every record matching the filter.
func (s *Store) DeleteWhere(ctx context.Context, col persistence.Collection, filter persistence.Filter) error {
	if _, err := s.db.Collection(string(col)).DeleteMany(ctx, bson.M(filter)); err != nil {
		return persistence.NewStoreError("DeleteWhere", col, "", err)
	}

	return nil
}

// GetByID reads one record.
func (s *Store) GetByID(ctx context.Context, col persistence.Collection, id string) (persistence.Document, error) {
	var raw bson.M

	err := s.db.Collection(string(col)).FindOne(ctx, bson.M{"id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, persistence.NewStoreError("GetByID", col, id, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", col, id, err)
	}

	return fromBSON(raw), nil
}

// Query returns all records matching the filter, sorted by the given order.
func (s *Store) Query(ctx context.Context, col persistence.Collection, filter persistence.Filter, order ...persistence.Order) ([]persistence.Document, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Query", col, "", persistence.ErrUnknownCollection)
	}

	opts := options.Find()

	if len(order) > 0 {
		dir := 1
		if order[0].Desc {
			dir = -1
		}

		opts.SetSort(bson.D{{Key: order[0].Field, Value: dir}})
	}

	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	cursor, err := s.db.Collection(string(col)).Find(ctx, query, opts)
	if err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	defer func() {
		_ = cursor.Close(ctx)
	}()

	docs := []persistence.Document{}

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, persistence.NewStoreError("Query", col, "", err)
		}

		docs = append(docs, fromBSON(raw))
	}

	if err := cursor.Err(); err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	return docs, nil
}

// HealthCheck pings the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func stamp(doc persistence.Document) persistence.Document {
	stored := doc.Clone()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored["id"] = uuid.New().String()
	stored["created_at"] = now
	stored["updated_at"] = now

	return stored
}

// fromBSON converts a decoded document back into the store shape, dropping
// the driver-internal _id.
func fromBSON(raw bson.M) persistence.Document {
	doc := make(persistence.Document, len(raw))

	for k, v := range raw {
		if k == "_id" {
			continue
		}

		doc[k] = v
	}

	return doc
}

func mapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return persistence.ErrConflict
	}

	return err
}
