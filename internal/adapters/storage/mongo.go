package storage

import (
	"context"
	"errors"
	"time"

	"github.com/okian/formmatch/internal/domain/template"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoDisconnectTimeout = 5 * time.Second

// MongoStore reads templates from a MongoDB collection in natural order.
// Document ids are not part of a template and are projected away.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and uses database.collection. The driver
// connects lazily; use Ping to check reachability.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" || database == "" || collection == "" {
		return nil, unavailable("open", errors.New("incomplete mongodb configuration"))
	}
	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("open", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// ListTemplates returns every document of the collection.
func (s *MongoStore) ListTemplates(ctx context.Context) ([]template.Template, error) {
	const op = "list templates"
	opts := mongooptions.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})
	cur, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var records []map[string]any
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, corrupt(op, err)
		}
		records = append(records, map[string]any(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return decodeRecords(op, records)
}

// Seed inserts records in order.
func (s *MongoStore) Seed(ctx context.Context, records []template.Record) error {
	if _, err := decodeRecords("seed", recordMaps(records)); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, 0, len(records))
	for _, rec := range records {
		docs = append(docs, bson.M(rec))
	}
	if _, err := s.collection.InsertMany(ctx, docs, mongooptions.InsertMany().SetOrdered(true)); err != nil {
		return unavailable("seed", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
