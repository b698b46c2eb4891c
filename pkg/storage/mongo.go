package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/canvasport/pkg/portable"
)

const collectionName = "bundles"

// mongoDoc is a record plus the encoded bundle.
type mongoDoc struct {
	Record `bson:",inline"`
	Data   []byte `bson:"data"`
}

// MongoStore keeps bundles in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses the bundles collection of database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, b *portable.Bundle) (Record, error) {
	rec, data, err := encode(name, b)
	if err != nil {
		return Record{}, err
	}
	if _, err := s.coll.InsertOne(ctx, mongoDoc{Record: rec, Data: data}); err != nil {
		return Record{}, fmt.Errorf("insert bundle: %w", err)
	}
	return rec, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*portable.Bundle, Record, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, Record{}, notFound(id)
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("find bundle: %w", err)
	}
	b, err := decode(id, doc.Data)
	if err != nil {
		return nil, Record{}, err
	}
	return b, doc.Record, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
