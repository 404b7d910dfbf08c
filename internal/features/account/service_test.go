package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/config"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

func newTestService(t *testing.T) *AccountServiceImpl {
	t.Helper()
	cfg := &config.Config{CrmRequestTimeout: 2 * time.Second}
	return NewAccountService(NewAccountMemoryRepository(), cfg, zap.NewNop()).(*AccountServiceImpl)
}

func pipedriveInput() RegisterAccountInput {
	return RegisterAccountInput{
		Type:        models.CrmTypePipedrive,
		DisplayName: "Acme",
		APIToken:    "tok",
		Domain:      "acme.pipedrive.com",
	}
}

// assertLockstep checks that the account and adapter registries hold the same ids
func assertLockstep(t *testing.T, s *AccountServiceImpl) {
	t.Helper()
	accounts := s.GetAllAccounts(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(accounts) != len(s.adapters) {
		t.Fatalf("registry size mismatch: %d accounts, %d adapters", len(accounts), len(s.adapters))
	}
	for _, account := range accounts {
		if _, ok := s.adapters[account.ID]; !ok {
			t.Fatalf("account %s has no adapter", account.ID)
		}
	}
}

func TestRegisterPipedriveAccount(t *testing.T) {
	s := newTestService(t)

	account, err := s.RegisterAccount(context.Background(), pipedriveInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID == "" {
		t.Fatal("expected generated id")
	}
	if !account.IsActive {
		t.Error("expected new account to be active")
	}

	adapter, ok := s.GetAdapter(account.ID)
	if !ok {
		t.Fatal("expected adapter to be bound")
	}
	if adapter.GetCrmType() != models.CrmTypePipedrive {
		t.Errorf("expected pipedrive adapter, got %s", adapter.GetCrmType())
	}
	assertLockstep(t, s)
}

func TestRegisterAccountErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterAccountInput
		wantErr error
		wantMsg string
	}{
		{
			name:    "pipedrive without domain",
			input:   RegisterAccountInput{Type: models.CrmTypePipedrive, DisplayName: "Acme", APIToken: "tok"},
			wantErr: apperror.ErrConfig,
			wantMsg: "Pipedrive domain is required",
		},
		{
			name:    "hubspot",
			input:   RegisterAccountInput{Type: models.CrmTypeHubSpot, DisplayName: "Hub", APIToken: "tok"},
			wantErr: apperror.ErrNotImplemented,
			wantMsg: "HubSpot adapter not yet implemented",
		},
		{
			name:    "salesforce",
			input:   RegisterAccountInput{Type: models.CrmTypeSalesforce, DisplayName: "SF", APIToken: "tok"},
			wantErr: apperror.ErrNotImplemented,
			wantMsg: "Salesforce adapter not yet implemented",
		},
		{
			name:    "unknown",
			input:   RegisterAccountInput{Type: "zoho", DisplayName: "Z", APIToken: "tok"},
			wantErr: apperror.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)

			account, err := s.RegisterAccount(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, err.Error())
			}
			if account != nil {
				t.Error("expected no account on failure")
			}
			if len(s.GetAllAccounts(context.Background())) != 0 {
				t.Error("failed registration must not store an account")
			}
			assertLockstep(t, s)
		})
	}
}

func TestRegistryLockstepAcrossOperations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, _ := s.RegisterAccount(ctx, pipedriveInput())
	second, _ := s.RegisterAccount(ctx, pipedriveInput())
	assertLockstep(t, s)

	token := "new-token"
	if _, err := s.UpdateAccount(ctx, first.ID, UpdateAccountInput{APIToken: &token}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLockstep(t, s)

	empty := ""
	if _, err := s.UpdateAccount(ctx, second.ID, UpdateAccountInput{Domain: &empty}); !errors.Is(err, apperror.ErrConfig) {
		t.Fatalf("expected config error when clearing domain, got %v", err)
	}
	assertLockstep(t, s)

	stored, _ := s.GetAccount(ctx, second.ID)
	if stored.Domain != "acme.pipedrive.com" {
		t.Errorf("rejected update must leave account untouched, got domain %q", stored.Domain)
	}

	if !s.DeleteAccount(ctx, first.ID) {
		t.Fatal("expected delete to succeed")
	}
	assertLockstep(t, s)
	if _, ok := s.GetAdapter(first.ID); ok {
		t.Error("adapter must be removed with the account")
	}

	if s.DeleteAccount(ctx, first.ID) {
		t.Error("deleting twice should report nothing removed")
	}
}

func TestConcurrentRegistrationKeepsLockstep(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			account, err := s.RegisterAccount(ctx, pipedriveInput())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			s.DeactivateAccount(ctx, account.ID)
			s.GetAdapter(account.ID)
		}()
	}
	wg.Wait()

	assertLockstep(t, s)
	if got := len(s.GetAllAccounts(ctx)); got != 20 {
		t.Errorf("expected 20 accounts, got %d", got)
	}
}

func TestDeactivateThenActivate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	account, _ := s.RegisterAccount(ctx, pipedriveInput())
	created := account.UpdatedAt

	clock = clock.Add(time.Minute)
	if !s.DeactivateAccount(ctx, account.ID) {
		t.Fatal("expected deactivate to find the account")
	}

	active := s.GetActiveAccounts(ctx)
	if len(active) != 0 {
		t.Errorf("deactivated account must not be active, got %d", len(active))
	}
	if all := s.GetAllAccounts(ctx); len(all) != 1 {
		t.Errorf("deactivated account must still be listed, got %d", len(all))
	}

	deactivated, _ := s.GetAccount(ctx, account.ID)

	// a clock going backwards must not move updatedAt back
	clock = clock.Add(-time.Hour)
	s.ActivateAccount(ctx, account.ID)

	reactivated, _ := s.GetAccount(ctx, account.ID)
	if !reactivated.IsActive {
		t.Error("expected account to be active again")
	}
	if deactivated.UpdatedAt.Before(created) || reactivated.UpdatedAt.Before(deactivated.UpdatedAt) {
		t.Errorf("updatedAt must be non-decreasing: %v, %v, %v", created, deactivated.UpdatedAt, reactivated.UpdatedAt)
	}
}

func TestActivateMissingAccountIsNoop(t *testing.T) {
	s := newTestService(t)

	if s.ActivateAccount(context.Background(), "missing") {
		t.Error("expected no-op for missing account")
	}
	if s.DeactivateAccount(context.Background(), "missing") {
		t.Error("expected no-op for missing account")
	}
}

func TestUpdateAccountNotFound(t *testing.T) {
	s := newTestService(t)
	name := "x"

	_, err := s.UpdateAccount(context.Background(), "missing", UpdateAccountInput{DisplayName: &name})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateDisplayNameKeepsAdapter(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	account, _ := s.RegisterAccount(ctx, pipedriveInput())
	before, _ := s.GetAdapter(account.ID)

	name := "Renamed"
	updated, err := s.UpdateAccount(ctx, account.ID, UpdateAccountInput{DisplayName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DisplayName != "Renamed" {
		t.Errorf("expected new display name, got %q", updated.DisplayName)
	}

	after, _ := s.GetAdapter(account.ID)
	if before != after {
		t.Error("adapter must not be rebuilt when only the display name changes")
	}
}

// TestTokenChangeRebindsAdapter checks that a new token reaches the backend
// through the rebuilt adapter.
func TestTokenChangeRebindsAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/users/me" && r.URL.Query().Get("api_token") == "new-token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": 1}})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unauthorized"})
	}))
	defer server.Close()

	s := newTestService(t)
	ctx := context.Background()

	input := pipedriveInput()
	input.APIToken = "old-token"
	input.Config = map[string]any{"baseUrl": server.URL}

	account, err := s.RegisterAccount(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := s.GetAdapter(account.ID)

	if s.TestConnection(ctx, account.ID) {
		t.Fatal("old token must not connect")
	}

	token := "new-token"
	if _, err := s.UpdateAccount(ctx, account.ID, UpdateAccountInput{APIToken: &token}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := s.GetAdapter(account.ID)
	if before == after {
		t.Error("expected a new adapter instance after token change")
	}
	if !s.TestConnection(ctx, account.ID) {
		t.Error("new token should connect through the rebound adapter")
	}
}

func TestTestConnectionWithoutAdapter(t *testing.T) {
	s := newTestService(t)
	if s.TestConnection(context.Background(), "missing") {
		t.Error("expected false without an adapter")
	}
}

func TestLoadAccounts(t *testing.T) {
	repo := NewAccountMemoryRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &CrmAccount{ID: "a1", Type: models.CrmTypePipedrive, APIToken: "tok", Domain: "acme", IsActive: true})
	_ = repo.Save(ctx, &CrmAccount{ID: "a2", Type: models.CrmTypeHubSpot, APIToken: "tok", IsActive: true})

	s := NewAccountService(repo, &config.Config{}, zap.NewNop()).(*AccountServiceImpl)
	if err := s.LoadAccounts(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertLockstep(t, s)
	if adapter, _ := s.GetAdapter("a1"); adapter.GetCrmType() != models.CrmTypePipedrive {
		t.Errorf("expected pipedrive adapter for a1, got %T", adapter)
	}

	adapter, ok := s.GetAdapter("a2")
	unavailable, isStandIn := adapter.(*connectors.UnavailableAdapter)
	if !ok || !isStandIn {
		t.Fatalf("expected a stand-in adapter for a2, got %T", adapter)
	}
	if !errors.Is(unavailable.Cause(), apperror.ErrNotImplemented) {
		t.Errorf("expected the build error as cause, got %v", unavailable.Cause())
	}

	stored, _ := repo.Get(ctx, "a2")
	if stored.IsActive {
		t.Error("accounts without a buildable adapter must be deactivated")
	}
	for _, active := range s.GetActiveAccounts(ctx) {
		if active.ID == "a2" {
			t.Error("deactivated account listed as active")
		}
	}
	if s.ActivateAccount(ctx, "a2") {
		t.Error("activation must fail while the adapter cannot be built")
	}
}

func TestLoadedAccountRecoversAfterConfigFix(t *testing.T) {
	repo := NewAccountMemoryRepository()
	ctx := context.Background()
	_ = repo.Save(ctx, &CrmAccount{ID: "a1", Type: models.CrmTypePipedrive, APIToken: "tok", IsActive: true})

	s := NewAccountService(repo, &config.Config{}, zap.NewNop()).(*AccountServiceImpl)
	if err := s.LoadAccounts(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertLockstep(t, s)

	domain := "acme.pipedrive.com"
	updated, err := s.UpdateAccount(ctx, "a1", UpdateAccountInput{Domain: &domain})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IsActive {
		t.Error("fixing the config must not reactivate the account")
	}
	if adapter, _ := s.GetAdapter("a1"); adapter.GetWebhookURL() == "" {
		t.Errorf("expected a real adapter after the fix, got %T", adapter)
	}

	if !s.ActivateAccount(ctx, "a1") {
		t.Fatal("expected activation to succeed")
	}
	assertLockstep(t, s)
}

func TestLoadAccountsReactivationRebuildsAdapter(t *testing.T) {
	repo := NewAccountMemoryRepository()
	ctx := context.Background()
	_ = repo.Save(ctx, &CrmAccount{ID: "a1", Type: models.CrmTypePipedrive, APIToken: "tok", Domain: "acme", IsActive: true})

	s := NewAccountService(repo, &config.Config{}, zap.NewNop()).(*AccountServiceImpl)
	failing := true
	s.AdapterFactory = func(cfg connectors.AdapterConfig, logger *zap.Logger) (connectors.Adapter, error) {
		if failing {
			return nil, apperror.New(apperror.KindBackend, "secret store offline")
		}
		return connectors.NewAdapter(cfg, logger)
	}
	if err := s.LoadAccounts(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := true
	if _, err := s.UpdateAccount(ctx, "a1", UpdateAccountInput{IsActive: &active}); !errors.Is(err, apperror.ErrBackend) {
		t.Fatalf("expected the build error, got %v", err)
	}

	failing = false
	if _, err := s.UpdateAccount(ctx, "a1", UpdateAccountInput{IsActive: &active}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter, _ := s.GetAdapter("a1"); adapter.GetCrmType() != models.CrmTypePipedrive || adapter.GetWebhookURL() == "" {
		t.Errorf("expected rebuilt pipedrive adapter, got %T", adapter)
	}
	assertLockstep(t, s)
}

func TestAdapterFactoryIsInjectable(t *testing.T) {
	s := newTestService(t)
	var captured connectors.AdapterConfig
	s.AdapterFactory = func(cfg connectors.AdapterConfig, logger *zap.Logger) (connectors.Adapter, error) {
		captured = cfg
		return connectors.NewAdapter(cfg, logger)
	}

	input := pipedriveInput()
	input.Config = map[string]any{"webhookSecret": "s"}
	if _, err := s.RegisterAccount(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Timeout != 2*time.Second || captured.WebhookSecret() != "s" {
		t.Errorf("unexpected adapter config %+v", captured)
	}
}

func TestMaskedAccount(t *testing.T) {
	account := CrmAccount{APIToken: "abcdef123456", Config: map[string]any{"webhookSecret": "supersecret"}}
	masked := account.Masked()

	if masked.APIToken != "****3456" {
		t.Errorf("unexpected masked token %q", masked.APIToken)
	}
	if masked.Config["webhookSecret"] != "****cret" {
		t.Errorf("unexpected masked secret %v", masked.Config["webhookSecret"])
	}
	if account.Config["webhookSecret"] != "supersecret" {
		t.Error("masking must not modify the original account")
	}
}
