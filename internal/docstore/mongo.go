package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB database. Document keys are stored
// in _id as strings.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps an already connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get %s/%s: %w", collection, key, err)
	}
	return toDocument(collection, raw), nil
}

func (s *MongoStore) Query(ctx context.Context, q Query) ([]Document, error) {
	filter := bson.M{}
	for _, f := range q.Where {
		filter[f.Field] = f.Value
	}
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo query %s: %w", q.Collection, err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, *toDocument(q.Collection, raw))
	}
	return docs, nil
}

func (s *MongoStore) Create(ctx context.Context, collection, key string, fields Fields) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	doc := documentoMongo(key, fields)
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateKey
		}
		return "", fmt.Errorf("mongo create %s: %w", collection, err)
	}
	return key, nil
}

func (s *MongoStore) Patch(ctx context.Context, ref Ref, mask []string, fields Fields) error {
	update := actualizacionMongo(mask, fields)
	if len(update) == 0 {
		_, err := s.Get(ctx, ref.Collection, ref.Key)
		return err
	}

	res, err := s.db.Collection(ref.Collection).UpdateOne(ctx, bson.M{"_id": ref.Key}, update)
	if err != nil {
		return fmt.Errorf("mongo patch %s: %w", ref, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// documentoMongo builds the inserted document. Nil fields are left out so
// absent and null read back the same way.
func documentoMongo(key string, fields Fields) bson.M {
	doc := bson.M{"_id": key}
	for k, v := range fields {
		if v != nil {
			doc[k] = v
		}
	}
	return doc
}

// actualizacionMongo turns a field mask into $set for present values and
// $unset for the rest. An empty mask gives an empty update.
func actualizacionMongo(mask []string, fields Fields) bson.M {
	set := bson.M{}
	unset := bson.M{}
	for _, k := range mask {
		if v, ok := fields[k]; ok && v != nil {
			set[k] = v
		} else {
			unset[k] = ""
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *MongoStore) Delete(ctx context.Context, ref Ref) error {
	res, err := s.db.Collection(ref.Collection).DeleteOne(ctx, bson.M{"_id": ref.Key})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", ref, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func toDocument(collection string, raw bson.M) *Document {
	key := fmt.Sprint(raw["_id"])
	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		key = oid.Hex()
	}
	delete(raw, "_id")
	fields := make(Fields, len(raw))
	for k, v := range raw {
		fields[k] = normalizeBSON(v)
	}
	return &Document{Collection: collection, Key: key, Fields: fields}
}

// normalizeBSON turns driver-specific types into the plain values Fields carries.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeBSON(t[i])
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	case int32:
		return int64(t)
	}
	return v
}
