package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/testhelpers"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestSyncService(t *testing.T) (*SyncServiceImpl, *testhelpers.AdapterRegistry, *testhelpers.MockAdapter, *fakeClock) {
	t.Helper()
	registry := testhelpers.NewAdapterRegistry()
	adapter := testhelpers.NewMockAdapter()
	adapter.Leads["pipedrive_1"] = models.Lead{ID: "pipedrive_1", ExternalID: "1", Title: "First"}
	adapter.Leads["pipedrive_2"] = models.Lead{ID: "pipedrive_2", ExternalID: "2", Title: "Second"}
	registry.Add("acc-1", adapter)

	clock := &fakeClock{current: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSyncService(registry, NewSyncStatusMemoryRepository(), zap.NewNop()).(*SyncServiceImpl)
	s.now = clock.now
	return s, registry, adapter, clock
}

func TestSyncAccountLeadsSuccess(t *testing.T) {
	s, _, _, clock := newTestSyncService(t)
	ctx := context.Background()

	status, err := s.SyncAccountLeads(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != StatusIdle {
		t.Errorf("expected idle, got %s", status.Status)
	}
	if status.LeadsCount != 2 {
		t.Errorf("expected 2 leads, got %d", status.LeadsCount)
	}
	if status.LastSyncAt == nil || !status.LastSyncAt.Equal(clock.current) {
		t.Errorf("expected lastSyncAt %v, got %v", clock.current, status.LastSyncAt)
	}

	stored, ok := s.GetSyncStatus(ctx, "acc-1")
	if !ok || stored.Status != StatusIdle || stored.LeadsCount != 2 {
		t.Errorf("stored status mismatch: %+v", stored)
	}
}

func TestSyncAccountLeadsFailure(t *testing.T) {
	s, _, adapter, _ := newTestSyncService(t)
	ctx := context.Background()

	if _, err := s.SyncAccountLeads(ctx, "acc-1"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	backendErr := errors.New("connection reset")
	adapter.GetLeadsErr = backendErr

	status, err := s.SyncAccountLeads(ctx, "acc-1")
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error to be returned, got %v", err)
	}
	if status != nil {
		t.Errorf("expected nil status on failure, got %+v", status)
	}

	stored, ok := s.GetSyncStatus(ctx, "acc-1")
	if !ok {
		t.Fatal("expected status to be recorded")
	}
	if stored.Status != StatusError {
		t.Errorf("expected error status, got %s", stored.Status)
	}
	if stored.FailedCount != 2 {
		t.Errorf("expected failedCount 2, got %d", stored.FailedCount)
	}
	if stored.Error != "connection reset" {
		t.Errorf("expected error message, got %q", stored.Error)
	}

	// a later success clears the error
	adapter.GetLeadsErr = nil
	status, err = s.SyncAccountLeads(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != StatusIdle || status.Error != "" {
		t.Errorf("expected clean idle status, got %+v", status)
	}
}

func TestSyncUnknownAccount(t *testing.T) {
	s, _, _, _ := newTestSyncService(t)
	ctx := context.Background()

	if _, err := s.SyncAccountLeads(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := s.SyncLead(ctx, "missing", "pipedrive_1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, ok := s.GetSyncStatus(ctx, "missing"); ok {
		t.Error("unknown account must have no status")
	}
}

func TestSyncLeadDelegates(t *testing.T) {
	s, _, adapter, _ := newTestSyncService(t)

	lead, err := s.SyncLead(context.Background(), "acc-1", "pipedrive_2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Title != "Second" {
		t.Errorf("expected Second, got %s", lead.Title)
	}
	if ids := adapter.SyncIDs(); len(ids) != 1 || ids[0] != "pipedrive_2" {
		t.Errorf("expected SyncLead(pipedrive_2), got %v", ids)
	}
}

func TestShouldSync(t *testing.T) {
	s, _, _, clock := newTestSyncService(t)
	ctx := context.Background()

	if !s.ShouldSync(ctx, "acc-1", 5) {
		t.Error("never-synced account should sync")
	}

	if _, err := s.SyncAccountLeads(ctx, "acc-1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if s.ShouldSync(ctx, "acc-1", 5) {
		t.Error("should not sync right after a sync")
	}

	clock.advance(4 * time.Minute)
	if s.ShouldSync(ctx, "acc-1", 5) {
		t.Error("should not sync before the interval elapses")
	}
	if !s.ShouldSync(ctx, "acc-1", 3) {
		t.Error("shorter interval should allow sync")
	}

	clock.advance(90 * time.Second)
	if !s.ShouldSync(ctx, "acc-1", 5) {
		t.Error("should sync once the interval has passed")
	}
	if !s.ShouldSync(ctx, "acc-1", 0) {
		t.Error("zero interval falls back to the default")
	}
}

func TestClearSyncStatus(t *testing.T) {
	s, _, _, _ := newTestSyncService(t)
	ctx := context.Background()

	if _, err := s.SyncAccountLeads(ctx, "acc-1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if _, ok := s.GetLastSyncTime(ctx, "acc-1"); !ok {
		t.Fatal("expected last sync time")
	}

	s.ClearSyncStatus(ctx, "acc-1")

	if _, ok := s.GetSyncStatus(ctx, "acc-1"); ok {
		t.Error("status should be cleared")
	}
	if _, ok := s.GetLastSyncTime(ctx, "acc-1"); ok {
		t.Error("last sync time should be cleared")
	}
	if !s.ShouldSync(ctx, "acc-1", 5) {
		t.Error("cleared account should sync again")
	}
}
