package sync

import (
	"context"
	"errors"
	stdsync "sync"

	"crm-gateway/internal/database"
	"crm-gateway/pkg/apperror"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyncStatusRepository interface {
	Save(ctx context.Context, status *SyncStatus) error
	Get(ctx context.Context, accountID string) (*SyncStatus, error)
	Delete(ctx context.Context, accountID string) error
}

func NewSyncStatusRepository(db *database.MongodbDB) SyncStatusRepository {
	if db.Enabled() {
		return &SyncStatusRepositoryImpl{
			collection: db.Collection("sync_statuses"),
		}
	}
	return NewSyncStatusMemoryRepository()
}

type SyncStatusRepositoryImpl struct {
	collection *mongo.Collection
}

func (r *SyncStatusRepositoryImpl) Save(ctx context.Context, status *SyncStatus) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": status.CrmAccountID}, status, opts)
	return err
}

func (r *SyncStatusRepositoryImpl) Get(ctx context.Context, accountID string) (*SyncStatus, error) {
	var status SyncStatus
	err := r.collection.FindOne(ctx, bson.M{"_id": accountID}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.Newf(apperror.KindNotFound, "No sync status for account %s", accountID)
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *SyncStatusRepositoryImpl) Delete(ctx context.Context, accountID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": accountID})
	return err
}

type SyncStatusMemoryRepository struct {
	mu       stdsync.RWMutex
	statuses map[string]SyncStatus
}

func NewSyncStatusMemoryRepository() *SyncStatusMemoryRepository {
	return &SyncStatusMemoryRepository{
		statuses: make(map[string]SyncStatus),
	}
}

func (r *SyncStatusMemoryRepository) Save(ctx context.Context, status *SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status.CrmAccountID] = *status
	return nil
}

func (r *SyncStatusMemoryRepository) Get(ctx context.Context, accountID string) (*SyncStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[accountID]
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "No sync status for account %s", accountID)
	}
	return &status, nil
}

func (r *SyncStatusMemoryRepository) Delete(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.statuses, accountID)
	return nil
}
