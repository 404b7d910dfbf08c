package models

import (
	"time"
)

// CrmType identifies the backend an account talks to
type CrmType string

const (
	CrmTypePipedrive  CrmType = "pipedrive"
	CrmTypeHubSpot    CrmType = "hubspot"
	CrmTypeSalesforce CrmType = "salesforce"
)

// Field Definitions
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeCurrency FieldType = "currency"
)

// FieldObjectType is the canonical object a field definition belongs to
type FieldObjectType string

const (
	FieldObjectLead    FieldObjectType = "lead"
	FieldObjectContact FieldObjectType = "contact"
)

type SelectOption struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

// LeadSource records where a lead entered the system
type LeadSource string

const (
	LeadSourceMeta     LeadSource = "meta"
	LeadSourceWhatsApp LeadSource = "whatsapp"
	LeadSourceManual   LeadSource = "manual"
	LeadSourceAPI      LeadSource = "api"
)

type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	AccountID    string    `bson:"account_id,omitempty" json:"account_id,omitempty"`
	AppID        string    `bson:"app_id" json:"app_id"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
