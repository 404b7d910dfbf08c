package pipedrive

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"crm-gateway/internal/common/models"
	"crm-gateway/pkg/hubsig"
)

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		wantNil  bool
		wantType models.WebhookEventType
		wantID   any
	}{
		{
			name:    "no event and no meta",
			payload: map[string]any{"foo": "bar"},
			wantNil: true,
		},
		{
			name: "v1 added deal",
			payload: map[string]any{
				"event":   "added.deal",
				"current": map[string]any{"id": float64(1), "stage_id": float64(2)},
			},
			wantType: models.WebhookEventLeadCreated,
			wantID:   float64(1),
		},
		{
			name: "v1 updated deal same stage",
			payload: map[string]any{
				"event":    "updated.deal",
				"current":  map[string]any{"id": float64(1), "stage_id": float64(2)},
				"previous": map[string]any{"id": float64(1), "stage_id": float64(2)},
			},
			wantType: models.WebhookEventLeadUpdated,
			wantID:   float64(1),
		},
		{
			name: "v1 updated deal stage change",
			payload: map[string]any{
				"event":    "updated.deal",
				"current":  map[string]any{"id": float64(1), "stage_id": float64(3)},
				"previous": map[string]any{"id": float64(1), "stage_id": float64(2)},
			},
			wantType: models.WebhookEventLeadStageChanged,
			wantID:   float64(1),
		},
		{
			name: "v1 deleted deal falls back to previous",
			payload: map[string]any{
				"event":    "deleted.deal",
				"previous": map[string]any{"id": float64(5)},
			},
			wantType: models.WebhookEventLeadDeleted,
			wantID:   float64(5),
		},
		{
			name: "v1 person event is custom",
			payload: map[string]any{
				"event":   "updated.person",
				"current": map[string]any{"id": float64(8)},
			},
			wantType: models.WebhookEventCustom,
			wantID:   float64(8),
		},
		{
			name: "v2 change deal with id from meta",
			payload: map[string]any{
				"meta": map[string]any{"action": "change", "entity": "deal", "id": "77"},
				"data": map[string]any{"title": "Deal"},
			},
			wantType: models.WebhookEventLeadUpdated,
			wantID:   "77",
		},
		{
			name: "v2 create deal with object key",
			payload: map[string]any{
				"meta":    map[string]any{"action": "create", "object": "deal", "id": float64(9)},
				"current": map[string]any{"id": float64(9)},
			},
			wantType: models.WebhookEventLeadCreated,
			wantID:   float64(9),
		},
		{
			name: "v2 delete deal",
			payload: map[string]any{
				"meta":     map[string]any{"action": "delete", "entity": "deal", "id": float64(4)},
				"previous": map[string]any{"id": float64(4)},
			},
			wantType: models.WebhookEventLeadDeleted,
			wantID:   float64(4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := ParseWebhook(tt.payload)
			if tt.wantNil {
				if event != nil {
					t.Fatalf("expected nil, got %+v", event)
				}
				return
			}
			if event == nil {
				t.Fatal("expected parsed event, got nil")
			}
			if event.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, event.Type)
			}
			if event.Data["id"] != tt.wantID {
				t.Errorf("expected id %v, got %v", tt.wantID, event.Data["id"])
			}
		})
	}
}

func TestParseWebhookDoesNotMutatePayload(t *testing.T) {
	data := map[string]any{"title": "Deal"}
	payload := map[string]any{
		"meta": map[string]any{"action": "change", "entity": "deal", "id": "1"},
		"data": data,
	}

	ParseWebhook(payload)

	if _, ok := data["id"]; ok {
		t.Error("payload data must not be modified")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"added.deal"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)
	valid := hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"no secret accepts anything", "", "garbage", true},
		{"valid hex", "secret", valid, true},
		{"valid with prefix", "secret", "sha256=" + valid, true},
		{"wrong signature", "secret", "deadbeef", false},
		{"not hex", "secret", "zz", false},
		{"empty signature", "secret", "", false},
		{"hub header format", "secret", hubsig.Header("secret", payload), true},
		{"hub header with other secret", "secret", hubsig.Header("other", payload), false},
		{"surrounding whitespace", "secret", " " + valid + " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, tt.signature, payload); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
