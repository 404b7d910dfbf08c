package account

import (
	"time"

	"crm-gateway/internal/common/models"
)

// CrmAccount binds one tenant to one CRM backend
type CrmAccount struct {
	ID          string         `json:"id" bson:"_id"`
	Type        models.CrmType `json:"type" bson:"type"`
	DisplayName string         `json:"displayName" bson:"display_name"`
	APIToken    string         `json:"apiToken" bson:"api_token"`
	Domain      string         `json:"domain,omitempty" bson:"domain,omitempty"`
	Config      map[string]any `json:"config,omitempty" bson:"config,omitempty"`
	IsActive    bool           `json:"isActive" bson:"is_active"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Masked returns a copy safe to send to clients
func (a CrmAccount) Masked() CrmAccount {
	a.APIToken = MaskToken(a.APIToken)
	if secret, ok := a.Config["webhookSecret"].(string); ok && secret != "" {
		config := make(map[string]any, len(a.Config))
		for k, v := range a.Config {
			config[k] = v
		}
		config["webhookSecret"] = MaskToken(secret)
		a.Config = config
	}
	return a
}

// MaskToken keeps the last four characters of a secret
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

type RegisterAccountInput struct {
	Type        models.CrmType `json:"type" validate:"required"`
	DisplayName string         `json:"displayName" validate:"required"`
	APIToken    string         `json:"apiToken" validate:"required"`
	Domain      string         `json:"domain,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// UpdateAccountInput is a partial update; nil fields are left untouched.
// Config keys are merged into the stored config.
type UpdateAccountInput struct {
	DisplayName *string        `json:"displayName,omitempty" validate:"omitempty,min=1"`
	APIToken    *string        `json:"apiToken,omitempty" validate:"omitempty,min=1"`
	Domain      *string        `json:"domain,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	IsActive    *bool          `json:"isActive,omitempty"`
}
