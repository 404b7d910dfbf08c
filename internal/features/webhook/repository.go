package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"crm-gateway/internal/database"
	"crm-gateway/pkg/apperror"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WebhookEventRepository interface {
	// Save inserts the event or overwrites the one with the same id
	Save(ctx context.Context, event *WebhookEvent) error
	Get(ctx context.Context, id string) (*WebhookEvent, error)
	// List returns the last limit events in insertion order
	List(ctx context.Context, limit int) ([]WebhookEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	EnsureIndexes(ctx context.Context) error
}

func NewWebhookEventRepository(db *database.MongodbDB) WebhookEventRepository {
	if db.Enabled() {
		return &WebhookEventRepositoryImpl{
			collection: db.Collection("crm_webhook_events"),
		}
	}
	return NewWebhookEventMemoryRepository()
}

type WebhookEventRepositoryImpl struct {
	collection *mongo.Collection
}

// insertedSeqField orders events by first insertion. It is set only when the
// document is created, so overwrites keep their position.
const insertedSeqField = "inserted_seq"

func (r *WebhookEventRepositoryImpl) Save(ctx context.Context, event *WebhookEvent) error {
	update, err := saveUpdate(event)
	if err != nil {
		return err
	}
	opts := options.Update().SetUpsert(true)
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": event.ID}, update, opts)
	return err
}

func saveUpdate(event *WebhookEvent) (bson.M, error) {
	raw, err := bson.Marshal(event)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{insertedSeqField: primitive.NewObjectID()},
	}
	if _, ok := fields["error"]; !ok {
		update["$unset"] = bson.M{"error": ""}
	}
	return update, nil
}

func listOptions(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: insertedSeqField, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (r *WebhookEventRepositoryImpl) Get(ctx context.Context, id string) (*WebhookEvent, error) {
	var event WebhookEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.Newf(apperror.KindNotFound, "Webhook event %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepositoryImpl) List(ctx context.Context, limit int) ([]WebhookEvent, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, listOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []WebhookEvent{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	// newest insert first from the query, insertion order for the caller
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (r *WebhookEventRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_timestamp"),
		},
		{
			Keys:    bson.D{{Key: insertedSeqField, Value: -1}},
			Options: options.Index().SetName("idx_inserted_seq"),
		},
		{
			Keys: bson.D{
				{Key: "crm_account_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_account_timestamp"),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *WebhookEventRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

type WebhookEventMemoryRepository struct {
	mu     sync.RWMutex
	order  []string
	events map[string]WebhookEvent
}

func NewWebhookEventMemoryRepository() *WebhookEventMemoryRepository {
	return &WebhookEventMemoryRepository{
		events: make(map[string]WebhookEvent),
	}
}

func (r *WebhookEventMemoryRepository) Save(ctx context.Context, event *WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; !exists {
		r.order = append(r.order, event.ID)
	}
	r.events[event.ID] = *event
	return nil
}

func (r *WebhookEventMemoryRepository) Get(ctx context.Context, id string) (*WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Webhook event %s not found", id)
	}
	return &event, nil
}

func (r *WebhookEventMemoryRepository) List(ctx context.Context, limit int) ([]WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.order
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	events := make([]WebhookEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, r.events[id])
	}
	return events, nil
}

func (r *WebhookEventMemoryRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (r *WebhookEventMemoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		if r.events[id].Timestamp.Before(cutoff) {
			delete(r.events, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed, nil
}
