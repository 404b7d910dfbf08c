package account

import (
	"context"
	"errors"
	"sync"

	"crm-gateway/internal/database"
	"crm-gateway/pkg/apperror"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AccountRepository interface {
	// Save inserts or replaces the account by id
	Save(ctx context.Context, account *CrmAccount) error
	Get(ctx context.Context, id string) (*CrmAccount, error)
	List(ctx context.Context) ([]CrmAccount, error)
	Delete(ctx context.Context, id string) error
}

// NewAccountRepository picks MongoDB when a connection is configured and the
// in-memory store otherwise
func NewAccountRepository(db *database.MongodbDB) AccountRepository {
	if db.Enabled() {
		return &AccountRepositoryImpl{
			collection: db.Collection("crm_accounts"),
		}
	}
	return NewAccountMemoryRepository()
}

type AccountRepositoryImpl struct {
	collection *mongo.Collection
}

func (r *AccountRepositoryImpl) Save(ctx context.Context, account *CrmAccount) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": account.ID}, account, opts)
	return err
}

func (r *AccountRepositoryImpl) Get(ctx context.Context, id string) (*CrmAccount, error) {
	var account CrmAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.Newf(apperror.KindNotFound, "Account %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) List(ctx context.Context) ([]CrmAccount, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	accounts := []CrmAccount{}
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepositoryImpl) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AccountMemoryRepository keeps accounts in registration order
type AccountMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]CrmAccount
	order    []string
}

func NewAccountMemoryRepository() *AccountMemoryRepository {
	return &AccountMemoryRepository{
		accounts: make(map[string]CrmAccount),
	}
}

func (r *AccountMemoryRepository) Save(ctx context.Context, account *CrmAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; !exists {
		r.order = append(r.order, account.ID)
	}
	r.accounts[account.ID] = cloneAccount(*account)
	return nil
}

func (r *AccountMemoryRepository) Get(ctx context.Context, id string) (*CrmAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Account %s not found", id)
	}
	account = cloneAccount(account)
	return &account, nil
}

func (r *AccountMemoryRepository) List(ctx context.Context) ([]CrmAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]CrmAccount, 0, len(r.order))
	for _, id := range r.order {
		accounts = append(accounts, cloneAccount(r.accounts[id]))
	}
	return accounts, nil
}

func (r *AccountMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return nil
	}
	delete(r.accounts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// cloneAccount copies the config map so callers never share it with the store
func cloneAccount(a CrmAccount) CrmAccount {
	if a.Config != nil {
		config := make(map[string]any, len(a.Config))
		for k, v := range a.Config {
			config[k] = v
		}
		a.Config = config
	}
	return a
}
