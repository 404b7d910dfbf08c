package pipedrive

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"crm-gateway/internal/common/models"
)

// LeadIDPrefix is prepended to deal ids to build presentational lead ids
const LeadIDPrefix = "pipedrive_"

const timeLayout = "2006-01-02 15:04:05"

// Custom field keys are 40 hex chars, optionally followed by a subfield
// suffix such as "_currency" or "_until".
var customFieldKey = regexp.MustCompile(`^[0-9a-f]{40}(_[a-z_]+)?$`)

// ExternalID strips the presentational prefix so both "123" and
// "pipedrive_123" address the same deal.
func ExternalID(leadID string) string {
	return strings.TrimPrefix(leadID, LeadIDPrefix)
}

// IsCustomFieldKey reports whether key is a Pipedrive custom field hash
func IsCustomFieldKey(key string) bool {
	return customFieldKey.MatchString(key)
}

// MapDealToLead converts a deal object into a canonical lead. stageNames
// resolves stage ids to names and may be nil.
func MapDealToLead(deal map[string]any, accountID string, stageNames map[string]string) models.Lead {
	externalID := idString(deal["id"])

	lead := models.Lead{
		ID:           LeadIDPrefix + externalID,
		ExternalID:   externalID,
		CrmAccountID: accountID,
		Title:        stringValue(deal["title"]),
		PipelineID:   idString(deal["pipeline_id"]),
		StageID:      idString(deal["stage_id"]),
		CustomFields: map[string]any{},
		CreatedAt:    parseTime(deal["add_time"]),
		UpdatedAt:    parseTime(deal["update_time"]),
		CrmType:      models.CrmTypePipedrive,
	}

	if person, ok := deal["person_id"].(map[string]any); ok {
		lead.Email = primaryValue(person["email"])
		lead.Phone = primaryValue(person["phone"])
	}

	if org, ok := deal["org_id"].(map[string]any); ok {
		lead.CompanyName = stringValue(org["name"])
	}
	if lead.CompanyName == "" {
		lead.CompanyName = stringValue(deal["org_name"])
	}

	if stageNames != nil {
		lead.StageName = stageNames[lead.StageID]
	}

	for key, value := range deal {
		if IsCustomFieldKey(key) {
			lead.CustomFields[key] = value
		}
	}

	return lead
}

// MapFieldType maps a Pipedrive field_type onto the canonical field type
func MapFieldType(pdType, key string) models.FieldType {
	if key == "email" {
		return models.FieldTypeEmail
	}

	switch pdType {
	case "varchar", "varchar_auto", "time", "address", "user", "org", "people":
		return models.FieldTypeText
	case "text":
		return models.FieldTypeTextArea
	case "double", "int":
		return models.FieldTypeNumber
	case "monetary":
		return models.FieldTypeCurrency
	case "date", "daterange":
		return models.FieldTypeDate
	case "enum":
		return models.FieldTypeSelect
	case "set":
		return models.FieldTypeCheckbox
	case "phone":
		return models.FieldTypePhone
	default:
		return models.FieldTypeText
	}
}

func MapFieldDefinition(field map[string]any) models.FieldDefinition {
	key := stringValue(field["key"])
	pdType := stringValue(field["field_type"])

	def := models.FieldDefinition{
		ID:           idString(field["id"]),
		Key:          key,
		Name:         stringValue(field["name"]),
		Type:         MapFieldType(pdType, key),
		Required:     boolValue(field["mandatory_flag"]),
		IsCustom:     IsCustomFieldKey(key),
		CrmFieldType: pdType,
	}

	if options, ok := field["options"].([]any); ok {
		for _, raw := range options {
			option, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			def.Options = append(def.Options, models.SelectOption{
				ID:    idString(option["id"]),
				Label: stringValue(option["label"]),
			})
		}
	}

	return def
}

func MapPipeline(pipeline map[string]any) models.Pipeline {
	return models.Pipeline{
		ID:       idString(pipeline["id"]),
		Name:     stringValue(pipeline["name"]),
		Order:    intValue(pipeline["order_nr"]),
		IsActive: boolValue(pipeline["active"]),
		Stages:   []models.Stage{},
	}
}

func MapStage(stage map[string]any) models.Stage {
	return models.Stage{
		ID:         idString(stage["id"]),
		Name:       stringValue(stage["name"]),
		PipelineID: idString(stage["pipeline_id"]),
		Order:      intValue(stage["order_nr"]),
	}
}

// BuildDealPayload renders a create input as a deal request body
func BuildDealPayload(input models.CreateLeadInput, personID, orgID string) map[string]any {
	payload := map[string]any{
		"title":       input.Title,
		"pipeline_id": backendID(input.PipelineID),
		"stage_id":    backendID(input.StageID),
	}
	if personID != "" {
		payload["person_id"] = backendID(personID)
	}
	if orgID != "" {
		payload["org_id"] = backendID(orgID)
	}
	for key, value := range input.CustomFields {
		payload[key] = value
	}
	return payload
}

// BuildDealUpdatePayload renders the deal-level part of a partial update
func BuildDealUpdatePayload(input models.UpdateLeadInput) map[string]any {
	payload := map[string]any{}
	if input.Title != nil {
		payload["title"] = *input.Title
	}
	if input.PipelineID != nil {
		payload["pipeline_id"] = backendID(*input.PipelineID)
	}
	if input.StageID != nil {
		payload["stage_id"] = backendID(*input.StageID)
	}
	for key, value := range input.CustomFields {
		payload[key] = value
	}
	return payload
}

// BuildPersonPayload renders contact data for a person request
func BuildPersonPayload(name, email, phone, orgID string) map[string]any {
	payload := map[string]any{}
	if name != "" {
		payload["name"] = name
	}
	if email != "" {
		payload["email"] = []map[string]any{{"value": email, "primary": true}}
	}
	if phone != "" {
		payload["phone"] = []map[string]any{{"value": phone, "primary": true}}
	}
	if orgID != "" {
		payload["org_id"] = backendID(orgID)
	}
	return payload
}

// idString renders numeric or string ids. Linked objects such as person_id
// arrive either as a bare id or as {"value": id, ...}.
func idString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case map[string]any:
		return idString(val["value"])
	default:
		return ""
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func intValue(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		n, _ := strconv.Atoi(val)
		return n
	default:
		return 0
	}
}

// boolValue accepts Pipedrive's mix of booleans and 0/1 flags
func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val == "1" || val == "true"
	default:
		return false
	}
}

// primaryValue picks the primary entry of a [{value, primary}] list, falling
// back to the first entry.
func primaryValue(v any) string {
	entries, ok := v.([]any)
	if !ok || len(entries) == 0 {
		return stringValue(v)
	}

	first := ""
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		value := stringValue(entry["value"])
		if boolValue(entry["primary"]) && value != "" {
			return value
		}
		if first == "" {
			first = value
		}
	}
	return first
}

func parseTime(v any) time.Time {
	s := stringValue(v)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(timeLayout, s, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// backendID sends numeric ids as numbers, which Pipedrive expects
func backendID(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
