package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/internal/config"
)

// Entry is one audit record: who did what to which entity.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Action    string             `bson:"action"`
	EntityID  string             `bson:"entity_id"`
	ActorID   string             `bson:"actor_id,omitempty"`
	Data      bson.M             `bson:"data,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

type AuditLogger struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewAuditLogger(cfg *config.MongoDBConfig) (*AuditLogger, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (a *AuditLogger) Record(ctx context.Context, entry *Entry) error {
	entry.CreatedAt = time.Now()
	_, err := a.collection.InsertOne(ctx, entry)
	return err
}

func (a *AuditLogger) Entries(ctx context.Context, entityID string, limit int64) ([]*Entry, error) {
	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*Entry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (a *AuditLogger) Ping(ctx context.Context) error {
	return a.client.Ping(ctx, nil)
}

func (a *AuditLogger) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
