package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig is used to connect the mongo backend
type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize int
}

// MongoBackend maps each collection onto a mongo collection with _id = record id.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoBackend connects and pings mongo
func NewMongoBackend(ctx context.Context, c MongoConfig) (*MongoBackend, error) {
	if c.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	opts := options.Client().ApplyURI(c.URI)
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(c.MaxPoolSize))
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}

	return &MongoBackend{client: client, db: client.Database(c.Database)}, nil
}

func tenantFilter(tenantID, id string) bson.M {
	return bson.M{"_id": id, FieldTenantID: tenantID}
}

var withoutMongoID = bson.M{"_id": 0}

// List returns the tenant's documents
func (b *MongoBackend) List(ctx context.Context, collection, tenantID string) ([]Record, error) {
	cursor, err := b.db.Collection(collection).Find(ctx,
		bson.M{FieldTenantID: tenantID},
		options.Find().SetProjection(withoutMongoID).SetSort(bson.D{{Key: FieldCreatedAt, Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]Record, 0, len(docs))
	for _, doc := range docs {
		result = append(result, fromBSON(doc))
	}
	return result, nil
}

// Insert stores rec with its id as _id
func (b *MongoBackend) Insert(ctx context.Context, collection string, rec Record) error {
	doc := bson.M{"_id": rec.ID()}
	for k, v := range rec {
		doc[k] = v
	}
	_, err := b.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

// Patch applies the patch with $set and returns the updated document
func (b *MongoBackend) Patch(ctx context.Context, collection, tenantID, id string, patch Record) (Record, error) {
	set := bson.M{}
	for k, v := range patch {
		set[k] = v
	}
	if len(set) == 0 {
		set[FieldID] = id
	}

	var doc bson.M
	err := b.db.Collection(collection).FindOneAndUpdate(ctx,
		tenantFilter(tenantID, id),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(withoutMongoID),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(doc), nil
}

// Remove deletes the tenant's document
func (b *MongoBackend) Remove(ctx context.Context, collection, tenantID, id string) error {
	res, err := b.db.Collection(collection).DeleteOne(ctx, tenantFilter(tenantID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the client
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// fromBSON converts driver types back into JSON-shaped values. The driver
// writes json.Number as int64 or double, so numbers come back as json.Number.
func fromBSON(doc bson.M) Record {
	return Record(bsonValue(map[string]any(doc)).(map[string]any))
}

func bsonValue(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return bsonValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = bsonValue(val)
		}
		return out
	case primitive.A:
		return bsonValue([]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = bsonValue(val)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = bsonValue(e.Value)
		}
		return out
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64))
	case primitive.DateTime:
		return FormatTime(t.Time())
	default:
		return v
	}
}
