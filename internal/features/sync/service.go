package sync

import (
	"context"
	"errors"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

// DefaultIntervalMinutes applies when ShouldSync gets a non-positive interval
const DefaultIntervalMinutes = 5

type SyncService interface {
	SyncAccountLeads(ctx context.Context, accountID string) (*SyncStatus, error)
	SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error)
	GetSyncStatus(ctx context.Context, accountID string) (*SyncStatus, bool)
	GetLastSyncTime(ctx context.Context, accountID string) (time.Time, bool)
	ShouldSync(ctx context.Context, accountID string, intervalMinutes int) bool
	ClearSyncStatus(ctx context.Context, accountID string)
}

type SyncServiceImpl struct {
	Adapters connectors.AdapterProvider
	Repo     SyncStatusRepository
	Logger   *zap.Logger

	now func() time.Time
}

func NewSyncService(adapters connectors.AdapterProvider, repo SyncStatusRepository, logger *zap.Logger) SyncService {
	return &SyncServiceImpl{
		Adapters: adapters,
		Repo:     repo,
		Logger:   logger,
		now:      time.Now,
	}
}

// SyncAccountLeads fetches every lead of the account and records the
// outcome. A fetch error leaves the status in StatusError and is returned.
func (s *SyncServiceImpl) SyncAccountLeads(ctx context.Context, accountID string) (*SyncStatus, error) {
	adapter, ok := s.Adapters.GetAdapter(accountID)
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Adapter not found for account %s", accountID)
	}

	status, found := s.GetSyncStatus(ctx, accountID)
	if !found {
		status = &SyncStatus{CrmAccountID: accountID, Status: StatusIdle}
	}

	status.Status = StatusSyncing
	status.Error = ""
	s.save(ctx, status)

	leads, err := adapter.GetLeads(ctx, accountID, nil)
	if err != nil {
		status.Status = StatusError
		status.FailedCount = status.LeadsCount
		status.Error = err.Error()
		// the caller's context may be done, so the failure is recorded detached
		s.save(context.WithoutCancel(ctx), status)

		s.Logger.Warn("Lead sync failed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return nil, err
	}

	syncedAt := s.now()
	status.LeadsCount = len(leads)
	status.Status = StatusIdle
	status.LastSyncAt = &syncedAt
	s.save(ctx, status)

	s.Logger.Info("Lead sync completed",
		zap.String("account_id", accountID),
		zap.Int("leads", len(leads)),
	)
	return status, nil
}

func (s *SyncServiceImpl) SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	adapter, ok := s.Adapters.GetAdapter(accountID)
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Adapter not found for account %s", accountID)
	}
	return adapter.SyncLead(ctx, accountID, leadID)
}

func (s *SyncServiceImpl) GetSyncStatus(ctx context.Context, accountID string) (*SyncStatus, bool) {
	status, err := s.Repo.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.Logger.Error("Failed to load sync status", zap.String("account_id", accountID), zap.Error(err))
		}
		return nil, false
	}
	return status, true
}

func (s *SyncServiceImpl) GetLastSyncTime(ctx context.Context, accountID string) (time.Time, bool) {
	status, ok := s.GetSyncStatus(ctx, accountID)
	if !ok || status.LastSyncAt == nil {
		return time.Time{}, false
	}
	return *status.LastSyncAt, true
}

// ShouldSync reports whether the account was never synced or its last sync
// is at least intervalMinutes old
func (s *SyncServiceImpl) ShouldSync(ctx context.Context, accountID string, intervalMinutes int) bool {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}

	last, ok := s.GetLastSyncTime(ctx, accountID)
	if !ok {
		return true
	}
	return s.now().Sub(last) >= time.Duration(intervalMinutes)*time.Minute
}

func (s *SyncServiceImpl) ClearSyncStatus(ctx context.Context, accountID string) {
	if err := s.Repo.Delete(ctx, accountID); err != nil {
		s.Logger.Error("Failed to clear sync status", zap.String("account_id", accountID), zap.Error(err))
	}
}

func (s *SyncServiceImpl) save(ctx context.Context, status *SyncStatus) {
	if err := s.Repo.Save(ctx, status); err != nil {
		s.Logger.Error("Failed to store sync status",
			zap.String("account_id", status.CrmAccountID),
			zap.Error(err),
		)
	}
}
