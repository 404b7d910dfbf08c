package webhook

import (
	"time"

	"crm-gateway/internal/common/models"
)

// WebhookEvent records one inbound CRM webhook and what became of it
type WebhookEvent struct {
	ID           string                  `json:"id" bson:"_id"`
	Type         models.WebhookEventType `json:"type" bson:"type"`
	CrmAccountID string                  `json:"crmAccountId" bson:"crm_account_id"`
	Data         map[string]any          `json:"data" bson:"data"`
	Timestamp    time.Time               `json:"timestamp" bson:"timestamp"`
	Processed    bool                    `json:"processed" bson:"processed"`
	Error        string                  `json:"error,omitempty" bson:"error,omitempty"`
}

// WebhookResponse is the acknowledgement sent back to the CRM
type WebhookResponse struct {
	EventID   string                  `json:"eventId"`
	Processed bool                    `json:"processed"`
	Type      models.WebhookEventType `json:"type"`
	Error     string                  `json:"error,omitempty"`
}

func (e *WebhookEvent) Response() WebhookResponse {
	return WebhookResponse{
		EventID:   e.ID,
		Processed: e.Processed,
		Type:      e.Type,
		Error:     e.Error,
	}
}
