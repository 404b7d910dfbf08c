package connectors

import (
	"context"
	"time"

	"crm-gateway/internal/common/models"
)

// Adapter is the contract every CRM backend implements.
//
// Reads that return only a slice never fail: backend errors are logged and an
// empty result is returned. Mutations return an error so callers can tell
// "nothing to show" apart from "the change did not happen".
type Adapter interface {
	// GetCrmType returns the backend this adapter talks to
	GetCrmType() models.CrmType

	// GetLeads lists leads. Backend failures yield an empty list and a nil
	// error; a non-nil error means ctx was done before the call completed.
	GetLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error)

	// GetLead fetches one lead, failing with apperror.ErrNotFound when the
	// backend has no such record
	GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error)

	CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error)
	UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error)
	MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error)
	DeleteLead(ctx context.Context, accountID, leadID string) error

	GetPipelines(ctx context.Context, accountID string) []models.Pipeline
	GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error)
	GetStages(ctx context.Context, accountID, pipelineID string) []models.Stage
	GetFields(ctx context.Context, accountID string, objectType models.FieldObjectType) []models.FieldDefinition

	// SyncLead re-fetches a lead from the backend
	SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error)

	// GetWebhookURL returns the inbound path webhooks are expected on
	GetWebhookURL() string

	// VerifyWebhook checks a webhook signature against the raw payload
	VerifyWebhook(signature string, payload []byte) bool

	// ParseWebhookEvent classifies a raw payload; nil means not parseable
	ParseWebhookEvent(payload map[string]any) *models.ParsedWebhookEvent

	// TestConnection reports whether the backend is reachable with the
	// configured credentials
	TestConnection(ctx context.Context, accountID string) bool
}

// AdapterProvider resolves the adapter bound to an account
type AdapterProvider interface {
	GetAdapter(id string) (Adapter, bool)
}

// AdapterConfig carries everything a factory needs to build an adapter
type AdapterConfig struct {
	Type     models.CrmType
	APIToken string
	Domain   string
	Config   map[string]any
	Timeout  time.Duration
}

// WebhookSecret returns the optional signing secret from the free-form config
func (c AdapterConfig) WebhookSecret() string {
	if c.Config == nil {
		return ""
	}
	secret, _ := c.Config["webhookSecret"].(string)
	return secret
}

// BaseURL returns an optional API base URL override from the free-form config
func (c AdapterConfig) BaseURL() string {
	if c.Config == nil {
		return ""
	}
	baseURL, _ := c.Config["baseUrl"].(string)
	return baseURL
}
