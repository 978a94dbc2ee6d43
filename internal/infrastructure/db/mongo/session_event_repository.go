package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

const sessionEventsCollection = "session_events"

// SessionEventRepository implements ports.SessionEventRepository using MongoDB.
type SessionEventRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewSessionEventRepository creates a repository over the session_events
// collection. A positive retention expires documents after that long.
func NewSessionEventRepository(db *mongo.Database, retention time.Duration) *SessionEventRepository {
	return &SessionEventRepository{col: db.Collection(sessionEventsCollection), retention: retention}
}

var _ ports.SessionEventRepository = (*SessionEventRepository)(nil)

// InsertEvent persists one session transition to the audit collection.
func (r *SessionEventRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"client_id":   event.ClientID,
		"type":        string(event.Type),
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Username != "" {
		doc["username"] = event.Username
	}
	if event.Role != "" {
		doc["role"] = string(event.Role)
	}
	if event.Error != "" {
		doc["error"] = event.Error
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the lookup indexes and, with a retention, the TTL index.
func (r *SessionEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	}
	if r.retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention / time.Second)),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
