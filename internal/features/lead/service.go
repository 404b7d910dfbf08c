package lead

import (
	"context"
	"io"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

// LeadService routes lead and pipeline operations to the account's adapter
type LeadService interface {
	ListLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error)
	GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error)
	CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error)
	UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error)
	MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error)
	DeleteLead(ctx context.Context, accountID, leadID string) error

	ListPipelines(ctx context.Context, accountID string) ([]models.Pipeline, error)
	GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error)
	ListStages(ctx context.Context, accountID, pipelineID string) ([]models.Stage, error)
	ListFields(ctx context.Context, accountID string, objectType models.FieldObjectType) ([]models.FieldDefinition, error)

	ExportLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]byte, string, error)
	ImportLeads(ctx context.Context, accountID string, file io.Reader, defaults ImportDefaults) (*ImportResult, error)
}

type LeadServiceImpl struct {
	Adapters connectors.AdapterProvider
	Logger   *zap.Logger
}

func NewLeadService(adapters connectors.AdapterProvider, logger *zap.Logger) LeadService {
	return &LeadServiceImpl{
		Adapters: adapters,
		Logger:   logger,
	}
}

func (s *LeadServiceImpl) adapter(accountID string) (connectors.Adapter, error) {
	adapter, ok := s.Adapters.GetAdapter(accountID)
	if !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Adapter not found for account %s", accountID)
	}
	return adapter, nil
}

func (s *LeadServiceImpl) ListLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.GetLeads(ctx, accountID, filter)
}

func (s *LeadServiceImpl) GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.GetLead(ctx, accountID, leadID)
}

func (s *LeadServiceImpl) CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}

	lead, err := adapter.CreateLead(ctx, accountID, input)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Lead created",
		zap.String("account_id", accountID),
		zap.String("lead_id", lead.ID),
	)
	return lead, nil
}

func (s *LeadServiceImpl) UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.UpdateLead(ctx, accountID, leadID, input)
}

func (s *LeadServiceImpl) MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.MoveLead(ctx, accountID, leadID, input)
}

func (s *LeadServiceImpl) DeleteLead(ctx context.Context, accountID, leadID string) error {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return err
	}

	if err := adapter.DeleteLead(ctx, accountID, leadID); err != nil {
		return err
	}
	s.Logger.Info("Lead deleted",
		zap.String("account_id", accountID),
		zap.String("lead_id", leadID),
	)
	return nil
}

func (s *LeadServiceImpl) ListPipelines(ctx context.Context, accountID string) ([]models.Pipeline, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.GetPipelines(ctx, accountID), nil
}

func (s *LeadServiceImpl) GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.GetPipeline(ctx, accountID, pipelineID)
}

func (s *LeadServiceImpl) ListStages(ctx context.Context, accountID, pipelineID string) ([]models.Stage, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	return adapter.GetStages(ctx, accountID, pipelineID), nil
}

func (s *LeadServiceImpl) ListFields(ctx context.Context, accountID string, objectType models.FieldObjectType) ([]models.FieldDefinition, error) {
	adapter, err := s.adapter(accountID)
	if err != nil {
		return nil, err
	}
	if objectType == "" {
		objectType = models.FieldObjectLead
	}
	return adapter.GetFields(ctx, accountID, objectType), nil
}
