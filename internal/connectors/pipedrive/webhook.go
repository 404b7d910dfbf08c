package pipedrive

import (
	"crypto/hmac"
	"encoding/hex"
	"strings"

	"crm-gateway/internal/common/models"
	"crm-gateway/pkg/hubsig"
)

// WebhookPath is where Pipedrive is configured to deliver webhooks
const WebhookPath = "/api/webhooks/crm/pipedrive"

// VerifySignature checks an HMAC-SHA256 hex signature, with or without a
// "sha256=" prefix. An empty secret accepts every payload.
func VerifySignature(secret, signature string, payload []byte) bool {
	if secret == "" {
		return true
	}

	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}

	return hmac.Equal(got, hubsig.Sign(secret, payload))
}

// ParseWebhook classifies a v1 ("event": "updated.deal") or v2
// ("meta": {"action": "change", "entity": "deal"}) payload. It returns nil
// when the payload carries neither shape.
func ParseWebhook(payload map[string]any) *models.ParsedWebhookEvent {
	meta, hasMeta := payload["meta"].(map[string]any)
	event, hasEvent := payload["event"].(string)
	if !hasEvent && !hasMeta {
		return nil
	}

	var action, object string
	if hasEvent && event != "" {
		action, object, _ = strings.Cut(event, ".")
	} else if hasMeta {
		action = stringValue(meta["action"])
		object = stringValue(meta["object"])
		if object == "" {
			object = stringValue(meta["entity"])
		}
	}

	current, _ := payload["current"].(map[string]any)
	previous, _ := payload["previous"].(map[string]any)

	data := current
	if data == nil {
		data, _ = payload["data"].(map[string]any)
	}
	if data == nil {
		data = previous
	}

	// copy so the caller's payload is never mutated
	eventData := make(map[string]any, len(data)+1)
	for k, v := range data {
		eventData[k] = v
	}
	if _, ok := eventData["id"]; !ok && hasMeta {
		if id, ok := meta["id"]; ok && id != nil {
			eventData["id"] = id
		}
	}

	return &models.ParsedWebhookEvent{
		Type: classify(action, object, current, previous),
		Data: eventData,
	}
}

func classify(action, object string, current, previous map[string]any) models.WebhookEventType {
	if object != "deal" {
		return models.WebhookEventCustom
	}

	switch action {
	case "added", "create":
		return models.WebhookEventLeadCreated
	case "updated", "change":
		if current != nil && previous != nil {
			if prev, ok := previous["stage_id"]; ok && idString(prev) != idString(current["stage_id"]) {
				return models.WebhookEventLeadStageChanged
			}
		}
		return models.WebhookEventLeadUpdated
	case "deleted", "delete":
		return models.WebhookEventLeadDeleted
	default:
		return models.WebhookEventCustom
	}
}
