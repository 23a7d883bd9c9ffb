package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/symptom-checker-api/internal/domain"
)

// MongoStore implements the Store interface on a MongoDB collection. It is
// the canonical backend; historical deployments wrote several document
// shapes into the same collection, so reads round-trip documents through
// extended JSON and leave shape reconciliation to the caller.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *logrus.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg domain.MongoDBConfig, logger *logrus.Logger) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts = opts.SetTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"database":   cfg.Database,
		"collection": cfg.Collection,
	}).Info("MongoDB connection established")

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		log:        logger,
	}, nil
}

// Insert writes one complete record as a single document.
func (s *MongoStore) Insert(ctx context.Context, record *Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		s.log.WithError(err).Error("Failed to insert history record")
		return "", fmt.Errorf("inserting history record: %w", err)
	}

	s.log.WithField("record_id", record.ID).Info("History record saved")
	return record.ID, nil
}

// List returns raw documents ordered most-recent-first. Documents are
// round-tripped through Mongo extended JSON, so native datetimes surface as
// {"$date": ...} envelopes for the record normalizer to resolve.
func (s *MongoStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_created_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		s.log.WithError(err).Error("Failed to query history")
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding history document: %w", err)
		}

		doc, err := toPlainDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("converting history document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating history documents: %w", err)
	}

	if docs == nil {
		docs = []map[string]any{}
	}
	return docs, nil
}

// Count returns the total number of stored records.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting history records: %w", err)
	}
	return count, nil
}

// Delete removes the record matching the identifier. The identifier may be
// either the record-level id written going forward or, for legacy
// documents, the hex form of the store's native ObjectID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	filters := []bson.M{{"id": id}}
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		filters = append(filters, bson.M{"_id": oid})
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"$or": filters})
	if err != nil {
		s.log.WithFields(logrus.Fields{"record_id": id, "error": err}).Error("Failed to delete history record")
		return fmt.Errorf("deleting history record: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("history record %q: %w", id, domain.ErrNotFound)
	}

	s.log.WithField("record_id", id).Info("History record deleted")
	return nil
}

// Health checks connectivity to MongoDB.
func (s *MongoStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// toPlainDocument converts a bson document into a plain JSON-shaped map.
// The native ObjectID is surfaced as a flat _id hex string before the
// extended-JSON round trip so legacy documents stay deletable.
func toPlainDocument(raw bson.M) (map[string]any, error) {
	var nativeID string
	if oid, ok := raw["_id"].(bson.ObjectID); ok {
		nativeID = oid.Hex()
	}

	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if nativeID != "" {
		doc["_id"] = nativeID
	}
	return doc, nil
}
