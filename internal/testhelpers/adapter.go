package testhelpers

import (
	"context"
	"sync"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"
)

// MockAdapter is an in-memory CRM adapter. Leads are keyed by lead id; set
// the Err fields to make the matching operation fail.
type MockAdapter struct {
	mu sync.Mutex

	CrmType   models.CrmType
	Leads     map[string]models.Lead
	Pipelines []models.Pipeline
	Fields    []models.FieldDefinition
	Connected bool
	Parsed    *models.ParsedWebhookEvent
	Secret    string

	GetLeadsErr error
	SyncLeadErr error
	MutationErr error

	GetLeadsCalls   int
	CapturedSyncIDs []string
	CapturedPayload map[string]any
}

var _ connectors.Adapter = (*MockAdapter)(nil)

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		CrmType:   models.CrmTypePipedrive,
		Leads:     map[string]models.Lead{},
		Connected: true,
	}
}

func (m *MockAdapter) GetCrmType() models.CrmType {
	return m.CrmType
}

func (m *MockAdapter) GetLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetLeadsCalls++
	if m.GetLeadsErr != nil {
		return nil, m.GetLeadsErr
	}
	leads := make([]models.Lead, 0, len(m.Leads))
	for _, lead := range m.Leads {
		if filter != nil && filter.StageID != "" && lead.StageID != filter.StageID {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func (m *MockAdapter) GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.Leads[leadID]
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Lead %s not found", leadID)
	}
	return &lead, nil
}

func (m *MockAdapter) CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MutationErr != nil {
		return nil, m.MutationErr
	}
	id := "mock_" + input.Title
	lead := models.Lead{
		ID:           id,
		ExternalID:   input.Title,
		CrmAccountID: accountID,
		Title:        input.Title,
		Email:        input.Email,
		Phone:        input.Phone,
		CompanyName:  input.CompanyName,
		PipelineID:   input.PipelineID,
		StageID:      input.StageID,
		CustomFields: input.CustomFields,
		Source:       input.Source,
		SourceID:     input.SourceID,
		CrmType:      m.CrmType,
	}
	m.Leads[id] = lead
	return &lead, nil
}

func (m *MockAdapter) UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MutationErr != nil {
		return nil, m.MutationErr
	}
	lead, ok := m.Leads[leadID]
	if !ok {
		return nil, apperror.Newf(apperror.KindBackend, "Lead %s not found", leadID)
	}
	if input.Title != nil {
		lead.Title = *input.Title
	}
	if input.Email != nil {
		lead.Email = *input.Email
	}
	if input.StageID != nil {
		lead.StageID = *input.StageID
	}
	m.Leads[leadID] = lead
	return &lead, nil
}

func (m *MockAdapter) MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error) {
	stageID := input.StageID
	return m.UpdateLead(ctx, accountID, leadID, models.UpdateLeadInput{StageID: &stageID})
}

func (m *MockAdapter) DeleteLead(ctx context.Context, accountID, leadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MutationErr != nil {
		return m.MutationErr
	}
	delete(m.Leads, leadID)
	return nil
}

func (m *MockAdapter) GetPipelines(ctx context.Context, accountID string) []models.Pipeline {
	if m.Pipelines == nil {
		return []models.Pipeline{}
	}
	return m.Pipelines
}

func (m *MockAdapter) GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error) {
	for _, pipeline := range m.Pipelines {
		if pipeline.ID == pipelineID {
			p := pipeline
			return &p, nil
		}
	}
	return nil, apperror.Newf(apperror.KindNotFound, "Pipeline %s not found", pipelineID)
}

func (m *MockAdapter) GetStages(ctx context.Context, accountID, pipelineID string) []models.Stage {
	for _, pipeline := range m.Pipelines {
		if pipeline.ID == pipelineID {
			return pipeline.Stages
		}
	}
	return []models.Stage{}
}

func (m *MockAdapter) GetFields(ctx context.Context, accountID string, objectType models.FieldObjectType) []models.FieldDefinition {
	if m.Fields == nil {
		return []models.FieldDefinition{}
	}
	return m.Fields
}

func (m *MockAdapter) SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	m.mu.Lock()
	m.CapturedSyncIDs = append(m.CapturedSyncIDs, leadID)
	err := m.SyncLeadErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.GetLead(ctx, accountID, leadID)
}

func (m *MockAdapter) GetWebhookURL() string {
	return "/api/webhooks/crm/mock"
}

func (m *MockAdapter) VerifyWebhook(signature string, payload []byte) bool {
	return m.Secret == "" || signature == m.Secret
}

func (m *MockAdapter) ParseWebhookEvent(payload map[string]any) *models.ParsedWebhookEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CapturedPayload = payload
	return m.Parsed
}

func (m *MockAdapter) TestConnection(ctx context.Context, accountID string) bool {
	return m.Connected
}

// SyncIDs returns a copy of the lead ids passed to SyncLead
func (m *MockAdapter) SyncIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CapturedSyncIDs...)
}
