package connectors

import (
	"context"

	"crm-gateway/internal/common/models"
)

var _ Adapter = (*UnavailableAdapter)(nil)

// UnavailableAdapter is bound to a stored account whose adapter could not be
// built. Reads come back empty and everything else fails with the build error.
type UnavailableAdapter struct {
	crmType models.CrmType
	cause   error
}

func NewUnavailableAdapter(crmType models.CrmType, cause error) *UnavailableAdapter {
	return &UnavailableAdapter{crmType: crmType, cause: cause}
}

// Cause returns the error the real adapter failed with
func (a *UnavailableAdapter) Cause() error {
	return a.cause
}

func (a *UnavailableAdapter) GetCrmType() models.CrmType {
	return a.crmType
}

func (a *UnavailableAdapter) GetLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []models.Lead{}, nil
}

func (a *UnavailableAdapter) GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) DeleteLead(ctx context.Context, accountID, leadID string) error {
	return a.cause
}

func (a *UnavailableAdapter) GetPipelines(ctx context.Context, accountID string) []models.Pipeline {
	return []models.Pipeline{}
}

func (a *UnavailableAdapter) GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) GetStages(ctx context.Context, accountID, pipelineID string) []models.Stage {
	return []models.Stage{}
}

func (a *UnavailableAdapter) GetFields(ctx context.Context, accountID string, objectType models.FieldObjectType) []models.FieldDefinition {
	return []models.FieldDefinition{}
}

func (a *UnavailableAdapter) SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	return nil, a.cause
}

func (a *UnavailableAdapter) GetWebhookURL() string {
	return ""
}

// VerifyWebhook rejects everything so no webhook is accepted for the account
func (a *UnavailableAdapter) VerifyWebhook(signature string, payload []byte) bool {
	return false
}

func (a *UnavailableAdapter) ParseWebhookEvent(payload map[string]any) *models.ParsedWebhookEvent {
	return nil
}

func (a *UnavailableAdapter) TestConnection(ctx context.Context, accountID string) bool {
	return false
}
