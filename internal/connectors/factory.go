package connectors

import (
	"strings"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/connectors/pipedrive"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

var _ Adapter = (*pipedrive.Adapter)(nil)

// NewAdapter builds the adapter for cfg.Type
func NewAdapter(cfg AdapterConfig, logger *zap.Logger) (Adapter, error) {
	switch cfg.Type {
	case models.CrmTypePipedrive:
		if strings.TrimSpace(cfg.Domain) == "" {
			return nil, apperror.New(apperror.KindConfig, "Pipedrive domain is required")
		}
		return pipedrive.NewAdapter(pipedrive.Config{
			APIToken:      cfg.APIToken,
			Domain:        cfg.Domain,
			BaseURL:       cfg.BaseURL(),
			WebhookSecret: cfg.WebhookSecret(),
			Timeout:       cfg.Timeout,
		}, logger), nil
	case models.CrmTypeHubSpot:
		return nil, apperror.New(apperror.KindNotImplemented, "HubSpot adapter not yet implemented")
	case models.CrmTypeSalesforce:
		return nil, apperror.New(apperror.KindNotImplemented, "Salesforce adapter not yet implemented")
	default:
		return nil, apperror.Newf(apperror.KindUnsupportedType, "Unsupported CRM type: %s", cfg.Type)
	}
}

// SupportedTypes lists every CRM type the factory recognizes, implemented or not
func SupportedTypes() []models.CrmType {
	return []models.CrmType{models.CrmTypePipedrive, models.CrmTypeHubSpot, models.CrmTypeSalesforce}
}
