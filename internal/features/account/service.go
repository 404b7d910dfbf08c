package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"crm-gateway/internal/config"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdapterFactory builds an adapter from an account's connection settings
type AdapterFactory func(cfg connectors.AdapterConfig, logger *zap.Logger) (connectors.Adapter, error)

type AccountService interface {
	RegisterAccount(ctx context.Context, input RegisterAccountInput) (*CrmAccount, error)
	GetAccount(ctx context.Context, id string) (*CrmAccount, bool)
	GetAllAccounts(ctx context.Context) []CrmAccount
	GetActiveAccounts(ctx context.Context) []CrmAccount
	GetAdapter(id string) (connectors.Adapter, bool)
	UpdateAccount(ctx context.Context, id string, input UpdateAccountInput) (*CrmAccount, error)
	ActivateAccount(ctx context.Context, id string) bool
	DeactivateAccount(ctx context.Context, id string) bool
	DeleteAccount(ctx context.Context, id string) bool
	TestConnection(ctx context.Context, id string) bool
	LoadAccounts(ctx context.Context) error
}

// AccountServiceImpl owns the account registry and the adapter bound to each
// account. Every mutation holds mu so both registries change together.
type AccountServiceImpl struct {
	Repo           AccountRepository
	Logger         *zap.Logger
	AdapterFactory AdapterFactory
	RequestTimeout time.Duration

	mu       sync.RWMutex
	adapters map[string]connectors.Adapter
	now      func() time.Time
}

func NewAccountService(repo AccountRepository, cfg *config.Config, logger *zap.Logger) AccountService {
	return &AccountServiceImpl{
		Repo:           repo,
		Logger:         logger,
		AdapterFactory: connectors.NewAdapter,
		RequestTimeout: cfg.CrmRequestTimeout,
		adapters:       make(map[string]connectors.Adapter),
		now:            time.Now,
	}
}

func (s *AccountServiceImpl) RegisterAccount(ctx context.Context, input RegisterAccountInput) (*CrmAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	account := &CrmAccount{
		Type:        input.Type,
		DisplayName: input.DisplayName,
		APIToken:    input.APIToken,
		Domain:      input.Domain,
		Config:      input.Config,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	adapter, err := s.buildAdapter(account)
	if err != nil {
		return nil, err
	}

	account.ID = uuid.New().String()
	if err := s.Repo.Save(ctx, account); err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to store account", err)
	}
	s.adapters[account.ID] = adapter

	s.Logger.Info("CRM account registered",
		zap.String("account_id", account.ID),
		zap.String("crm_type", string(account.Type)),
	)
	return account, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id string) (*CrmAccount, bool) {
	account, err := s.Repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.Logger.Error("Failed to load account", zap.String("account_id", id), zap.Error(err))
		}
		return nil, false
	}
	return account, true
}

func (s *AccountServiceImpl) GetAllAccounts(ctx context.Context) []CrmAccount {
	accounts, err := s.Repo.List(ctx)
	if err != nil {
		s.Logger.Error("Failed to list accounts", zap.Error(err))
		return []CrmAccount{}
	}
	return accounts
}

func (s *AccountServiceImpl) GetActiveAccounts(ctx context.Context) []CrmAccount {
	active := []CrmAccount{}
	for _, account := range s.GetAllAccounts(ctx) {
		if account.IsActive {
			active = append(active, account)
		}
	}
	return active
}

func (s *AccountServiceImpl) GetAdapter(id string) (connectors.Adapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapter, ok := s.adapters[id]
	return adapter, ok
}

// UpdateAccount merges input into the stored account. When the connection
// settings change the adapter is rebuilt from the merged account; if that
// fails nothing is changed.
func (s *AccountServiceImpl) UpdateAccount(ctx context.Context, id string, input UpdateAccountInput) (*CrmAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to load account", err)
	}

	merged := cloneAccount(*current)
	rebind := false

	if input.DisplayName != nil {
		merged.DisplayName = *input.DisplayName
	}
	if input.IsActive != nil {
		merged.IsActive = *input.IsActive
	}
	if input.APIToken != nil && *input.APIToken != current.APIToken {
		merged.APIToken = *input.APIToken
		rebind = true
	}
	if input.Domain != nil && *input.Domain != current.Domain {
		merged.Domain = *input.Domain
		rebind = true
	}
	if len(input.Config) > 0 {
		if merged.Config == nil {
			merged.Config = make(map[string]any, len(input.Config))
		}
		for k, v := range input.Config {
			merged.Config[k] = v
		}
		rebind = true
	}

	if merged.IsActive && s.unavailable(id) {
		rebind = true
	}

	var adapter connectors.Adapter
	if rebind {
		adapter, err = s.buildAdapter(&merged)
		if err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = s.touch(current.UpdatedAt)
	if err := s.Repo.Save(ctx, &merged); err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to store account", err)
	}
	if adapter != nil {
		s.adapters[id] = adapter
		s.Logger.Info("CRM adapter rebound", zap.String("account_id", id))
	}

	return &merged, nil
}

func (s *AccountServiceImpl) ActivateAccount(ctx context.Context, id string) bool {
	return s.setActive(ctx, id, true)
}

func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id string) bool {
	return s.setActive(ctx, id, false)
}

func (s *AccountServiceImpl) setActive(ctx context.Context, id string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.Repo.Get(ctx, id)
	if err != nil {
		return false
	}

	// an account loaded without an adapter stays inactive until one can be built
	var adapter connectors.Adapter
	if active && s.unavailable(id) {
		adapter, err = s.buildAdapter(account)
		if err != nil {
			s.Logger.Warn("Account adapter still unavailable", zap.String("account_id", id), zap.Error(err))
			return false
		}
	}

	account.IsActive = active
	account.UpdatedAt = s.touch(account.UpdatedAt)
	if err := s.Repo.Save(ctx, account); err != nil {
		s.Logger.Error("Failed to store account", zap.String("account_id", id), zap.Error(err))
		return false
	}
	if adapter != nil {
		s.adapters[id] = adapter
		s.Logger.Info("CRM adapter rebound", zap.String("account_id", id))
	}
	return true
}

func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Repo.Get(ctx, id); err != nil {
		return false
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		s.Logger.Error("Failed to delete account", zap.String("account_id", id), zap.Error(err))
		return false
	}
	delete(s.adapters, id)

	s.Logger.Info("CRM account deleted", zap.String("account_id", id))
	return true
}

func (s *AccountServiceImpl) TestConnection(ctx context.Context, id string) bool {
	adapter, ok := s.GetAdapter(id)
	if !ok {
		return false
	}
	return adapter.TestConnection(ctx, id)
}

// LoadAccounts binds adapters for every stored account. An account whose
// adapter cannot be built is bound to a connectors.UnavailableAdapter and
// deactivated, so both registries still hold the same ids.
func (s *AccountServiceImpl) LoadAccounts(ctx context.Context) error {
	accounts, err := s.Repo.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unavailable := 0
	for i := range accounts {
		account := &accounts[i]
		adapter, err := s.buildAdapter(account)
		if err == nil {
			s.adapters[account.ID] = adapter
			continue
		}

		unavailable++
		s.adapters[account.ID] = connectors.NewUnavailableAdapter(account.Type, err)
		s.Logger.Warn("Account adapter unavailable, account deactivated",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
		if !account.IsActive {
			continue
		}
		account.IsActive = false
		account.UpdatedAt = s.touch(account.UpdatedAt)
		if err := s.Repo.Save(ctx, account); err != nil {
			s.Logger.Error("Failed to store account", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	s.Logger.Info("CRM accounts loaded",
		zap.Int("count", len(s.adapters)),
		zap.Int("unavailable", unavailable),
	)
	return nil
}

// unavailable reports whether id is bound to a stand-in adapter. Callers hold mu.
func (s *AccountServiceImpl) unavailable(id string) bool {
	_, ok := s.adapters[id].(*connectors.UnavailableAdapter)
	return ok
}

func (s *AccountServiceImpl) buildAdapter(account *CrmAccount) (connectors.Adapter, error) {
	return s.AdapterFactory(connectors.AdapterConfig{
		Type:     account.Type,
		APIToken: account.APIToken,
		Domain:   account.Domain,
		Config:   account.Config,
		Timeout:  s.RequestTimeout,
	}, s.Logger)
}

// touch returns the new updatedAt, never earlier than previous
func (s *AccountServiceImpl) touch(previous time.Time) time.Time {
	now := s.now()
	if now.Before(previous) {
		return previous
	}
	return now
}
