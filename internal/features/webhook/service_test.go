package webhook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/testhelpers"

	"go.uber.org/zap"
)

type syncCall struct {
	AccountID string
	LeadID    string
}

type recordingSyncer struct {
	mu  sync.Mutex
	Err error

	CapturedCalls []syncCall
}

func (r *recordingSyncer) SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CapturedCalls = append(r.CapturedCalls, syncCall{AccountID: accountID, LeadID: leadID})
	if r.Err != nil {
		return nil, r.Err
	}
	return &models.Lead{ID: "pipedrive_" + leadID}, nil
}

type recordingPublisher struct {
	mu sync.Mutex

	CapturedTopics []string
	CapturedEvents []any
}

func (p *recordingPublisher) Publish(topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CapturedTopics = append(p.CapturedTopics, topic)
	p.CapturedEvents = append(p.CapturedEvents, payload)
}

type testEnv struct {
	service   *WebhookServiceImpl
	adapter   *testhelpers.MockAdapter
	syncer    *recordingSyncer
	publisher *recordingPublisher
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	registry := testhelpers.NewAdapterRegistry()
	adapter := testhelpers.NewMockAdapter()
	registry.Add("acc-1", adapter)

	env := &testEnv{
		adapter:   adapter,
		syncer:    &recordingSyncer{},
		publisher: &recordingPublisher{},
		clock:     time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	env.service = NewWebhookService(registry, env.syncer, NewWebhookEventMemoryRepository(), env.publisher, zap.NewNop()).(*WebhookServiceImpl)
	env.service.now = func() time.Time { return env.clock }
	return env
}

func TestHandleWebhookUpdatedDeal(t *testing.T) {
	env := newTestEnv(t)
	env.adapter.Parsed = &models.ParsedWebhookEvent{
		Type: models.WebhookEventLeadUpdated,
		Data: map[string]any{"id": float64(123)},
	}
	payload := map[string]any{"event": "updated.deal", "data": map[string]any{"id": float64(123)}}

	event := env.service.HandleWebhook(context.Background(), "acc-1", payload)

	if !event.Processed {
		t.Errorf("expected processed event, got error %q", event.Error)
	}
	if event.Type != models.WebhookEventLeadUpdated {
		t.Errorf("expected lead.updated, got %s", event.Type)
	}
	if event.Error != "" {
		t.Errorf("expected no error, got %q", event.Error)
	}
	if len(env.syncer.CapturedCalls) != 1 {
		t.Fatalf("expected one sync call, got %d", len(env.syncer.CapturedCalls))
	}
	if call := env.syncer.CapturedCalls[0]; call.AccountID != "acc-1" || call.LeadID != "123" {
		t.Errorf("expected SyncLead(acc-1, 123), got %+v", call)
	}
	if env.adapter.CapturedPayload["event"] != "updated.deal" {
		t.Error("adapter should receive the raw payload")
	}
	if len(env.publisher.CapturedTopics) != 1 || env.publisher.CapturedTopics[0] != TopicWebhookEvent {
		t.Errorf("expected one publish, got %v", env.publisher.CapturedTopics)
	}
}

func TestHandleWebhookUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	event := env.service.HandleWebhook(context.Background(), "nonexistent", map[string]any{})

	if event.Processed {
		t.Error("event must not be processed")
	}
	if !strings.Contains(event.Error, "Adapter not found") {
		t.Errorf("expected adapter error, got %q", event.Error)
	}
	if event.Type != models.WebhookEventCustom {
		t.Errorf("expected custom type, got %s", event.Type)
	}
	if _, ok := env.service.GetWebhookLog(context.Background(), event.ID); !ok {
		t.Error("failed events must be logged")
	}
}

func TestHandleWebhookAlwaysResolves(t *testing.T) {
	parseable := &models.ParsedWebhookEvent{
		Type: models.WebhookEventLeadCreated,
		Data: map[string]any{"id": "77"},
	}

	tests := []struct {
		name      string
		accountID string
		parsed    *models.ParsedWebhookEvent
		syncErr   error
		processed bool
		errPart   string
	}{
		{"valid parseable", "acc-1", parseable, nil, true, ""},
		{"valid unparseable", "acc-1", nil, nil, false, "Failed to parse webhook event"},
		{"valid sync failure", "acc-1", parseable, errors.New("Lead 77 not found"), false, "Lead 77 not found"},
		{"invalid parseable", "ghost", parseable, nil, false, "Adapter not found"},
		{"invalid unparseable", "ghost", nil, nil, false, "Adapter not found"},
		{"invalid sync failure", "ghost", parseable, errors.New("boom"), false, "Adapter not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.adapter.Parsed = tt.parsed
			env.syncer.Err = tt.syncErr

			event := env.service.HandleWebhook(context.Background(), tt.accountID, map[string]any{"event": "added.deal"})

			if event == nil || event.ID == "" {
				t.Fatal("expected an event with an id")
			}
			if event.Processed != tt.processed {
				t.Errorf("expected processed=%v, got %v", tt.processed, event.Processed)
			}
			if tt.errPart == "" && event.Error != "" {
				t.Errorf("expected no error, got %q", event.Error)
			}
			if tt.errPart != "" && !strings.Contains(event.Error, tt.errPart) {
				t.Errorf("expected error containing %q, got %q", tt.errPart, event.Error)
			}
			if _, ok := env.service.GetWebhookLog(context.Background(), event.ID); !ok {
				t.Error("event must be stored")
			}
		})
	}
}

func TestHandleWebhookEventTypes(t *testing.T) {
	tests := []struct {
		name      string
		eventType models.WebhookEventType
		data      map[string]any
		wantSync  bool
	}{
		{"created", models.WebhookEventLeadCreated, map[string]any{"id": float64(5)}, true},
		{"stage changed", models.WebhookEventLeadStageChanged, map[string]any{"id": float64(5)}, true},
		{"deleted", models.WebhookEventLeadDeleted, map[string]any{"id": float64(5)}, false},
		{"custom", models.WebhookEventCustom, map[string]any{"id": float64(5)}, false},
		{"updated without id", models.WebhookEventLeadUpdated, map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.adapter.Parsed = &models.ParsedWebhookEvent{Type: tt.eventType, Data: tt.data}

			event := env.service.HandleWebhook(context.Background(), "acc-1", map[string]any{})

			if !event.Processed {
				t.Errorf("expected processed, got error %q", event.Error)
			}
			if synced := len(env.syncer.CapturedCalls) > 0; synced != tt.wantSync {
				t.Errorf("expected sync=%v, got %v", tt.wantSync, synced)
			}
		})
	}
}

func TestHandleWebhookUniqueIDs(t *testing.T) {
	env := newTestEnv(t)
	env.adapter.Parsed = &models.ParsedWebhookEvent{
		Type: models.WebhookEventLeadUpdated,
		Data: map[string]any{"id": float64(1)},
	}
	payload := map[string]any{"event": "updated.deal"}

	first := env.service.HandleWebhook(context.Background(), "acc-1", payload)
	second := env.service.HandleWebhook(context.Background(), "acc-1", payload)

	if first.ID == second.ID {
		t.Errorf("expected distinct ids, both were %s", first.ID)
	}
	if logs := env.service.GetWebhookLogs(context.Background(), 10); len(logs) != 2 {
		t.Errorf("expected two logged events, got %d", len(logs))
	}
}

func TestGetWebhookLogsOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, env.service.HandleWebhook(ctx, "ghost", map[string]any{}).ID)
	}

	logs := env.service.GetWebhookLogs(ctx, 3)
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	for i, event := range logs {
		if event.ID != ids[i+2] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i+2], event.ID)
		}
	}
}

func TestClearOldLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := env.clock

	// events at start, start+1h, start+2h, start+3h
	var ids []string
	for i := 0; i < 4; i++ {
		env.clock = start.Add(time.Duration(i) * time.Hour)
		ids = append(ids, env.service.HandleWebhook(ctx, "ghost", map[string]any{}).ID)
	}

	// cutoff is start+1h: only the first event is strictly older
	env.clock = start.Add(3 * time.Hour)
	if removed := env.service.ClearOldLogs(ctx, 2); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := env.service.GetWebhookLog(ctx, ids[0]); ok {
		t.Error("oldest event should be purged")
	}
	if _, ok := env.service.GetWebhookLog(ctx, ids[1]); !ok {
		t.Error("event exactly at the cutoff must be kept")
	}

	// the newest event sits exactly at now
	if removed := env.service.ClearOldLogs(ctx, 0); removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	logs := env.service.GetWebhookLogs(ctx, 0)
	if len(logs) != 1 || logs[0].ID != ids[3] {
		t.Errorf("expected only the newest event to remain, got %+v", logs)
	}
}
