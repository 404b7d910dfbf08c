package models

import "time"

// Lead is the backend independent view of a CRM deal. ExternalID together with
// CrmAccountID identifies the backend object; ID is only for presentation.
type Lead struct {
	ID           string         `json:"id"`
	ExternalID   string         `json:"externalId"`
	CrmAccountID string         `json:"crmAccountId"`
	Title        string         `json:"title"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	CompanyName  string         `json:"companyName,omitempty"`
	PipelineID   string         `json:"pipelineId"`
	StageID      string         `json:"stageId"`
	StageName    string         `json:"stageName,omitempty"`
	CustomFields map[string]any `json:"customFields"`
	Source       LeadSource     `json:"source,omitempty"`
	SourceID     string         `json:"sourceId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	SyncedAt     *time.Time     `json:"syncedAt,omitempty"`
	SyncError    string         `json:"syncError,omitempty"`
	CrmType      CrmType        `json:"crmType"`
}

type Pipeline struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Order    int     `json:"order"`
	IsActive bool    `json:"isActive"`
	Stages   []Stage `json:"stages"`
}

// Stage order is a rank, not a list position.
type Stage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PipelineID string `json:"pipelineId"`
	Order      int    `json:"order"`
}

type FieldDefinition struct {
	ID           string         `json:"id"`
	Key          string         `json:"key"`
	Name         string         `json:"name"`
	Type         FieldType      `json:"type"`
	Required     bool           `json:"required"`
	IsCustom     bool           `json:"isCustom"`
	Options      []SelectOption `json:"options,omitempty"`
	CrmFieldType string         `json:"crmFieldType"`
}

// LeadFilter narrows a lead listing. Zero values mean "not set".
type LeadFilter struct {
	PipelineID string `json:"pipelineId,omitempty" query:"pipelineId"`
	StageID    string `json:"stageId,omitempty" query:"stageId"`
	Search     string `json:"search,omitempty" query:"search"`
	Limit      int    `json:"limit,omitempty" query:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `json:"offset,omitempty" query:"offset" validate:"omitempty,min=0"`
	SortBy     string `json:"sortBy,omitempty" query:"sortBy"`
	SortOrder  string `json:"sortOrder,omitempty" query:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

type CreateLeadInput struct {
	Title        string         `json:"title" validate:"required"`
	PipelineID   string         `json:"pipelineId" validate:"required"`
	StageID      string         `json:"stageId" validate:"required"`
	Email        string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string         `json:"phone,omitempty"`
	CompanyName  string         `json:"companyName,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
	Source       LeadSource     `json:"source,omitempty" validate:"omitempty,oneof=meta whatsapp manual api"`
	SourceID     string         `json:"sourceId,omitempty"`
}

// UpdateLeadInput is a partial update; nil fields are left untouched.
type UpdateLeadInput struct {
	Title        *string        `json:"title,omitempty" validate:"omitempty,min=1"`
	PipelineID   *string        `json:"pipelineId,omitempty"`
	StageID      *string        `json:"stageId,omitempty"`
	Email        *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string        `json:"phone,omitempty"`
	CompanyName  *string        `json:"companyName,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

type MoveLeadInput struct {
	StageID string `json:"stageId" validate:"required"`
}

// WebhookEventType is the canonical classification of a CRM webhook
type WebhookEventType string

const (
	WebhookEventLeadCreated      WebhookEventType = "lead.created"
	WebhookEventLeadUpdated      WebhookEventType = "lead.updated"
	WebhookEventLeadDeleted      WebhookEventType = "lead.deleted"
	WebhookEventLeadStageChanged WebhookEventType = "lead.stage_changed"
	WebhookEventCustom           WebhookEventType = "custom"
)

// ParsedWebhookEvent is what an adapter derives from a raw webhook payload
type ParsedWebhookEvent struct {
	Type WebhookEventType `json:"type"`
	Data map[string]any   `json:"data"`
}
