package pipedrive

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/pkg/apperror"

	"go.uber.org/zap"
)

// Adapter implements the CRM adapter contract on top of the Pipedrive API.
// Reads that return slices swallow backend failures after logging them.
type Adapter struct {
	client        *Client
	webhookSecret string
	logger        *zap.Logger
	pageSize      int
	now           func() time.Time
}

const (
	// DefaultPageSize is the largest page the deals listing serves
	DefaultPageSize = 500
	maxSearchPages  = 20
)

func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("crm_type", string(models.CrmTypePipedrive)))

	return &Adapter{
		client:        NewClient(cfg, logger),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
		pageSize:      DefaultPageSize,
		now:           time.Now,
	}
}

func (a *Adapter) GetCrmType() models.CrmType {
	return models.CrmTypePipedrive
}

func (a *Adapter) GetLeads(ctx context.Context, accountID string, filter *models.LeadFilter) ([]models.Lead, error) {
	params := url.Values{}
	pipelineID := ""
	search := ""
	limit, offset := 0, 0

	if filter != nil {
		if filter.StageID != "" {
			params.Set("stage_id", filter.StageID)
		} else {
			pipelineID = filter.PipelineID
		}
		if filter.SortBy != "" {
			order := "ASC"
			if strings.EqualFold(filter.SortOrder, "desc") {
				order = "DESC"
			}
			params.Set("sort", filter.SortBy+" "+order)
		}
		search = strings.ToLower(strings.TrimSpace(filter.Search))
		limit, offset = filter.Limit, filter.Offset
	}

	var deals []map[string]any
	var err error
	if search == "" {
		// the backend pages the listing itself
		if limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		if offset > 0 {
			params.Set("start", strconv.Itoa(offset))
		}
		deals, _, err = a.fetchDealPage(ctx, accountID, pipelineID, params)
	} else {
		deals, err = a.scanDeals(ctx, accountID, pipelineID, params)
	}
	if err != nil {
		return nil, err
	}

	stageNames := a.stageNames(ctx, "")
	syncedAt := a.now()

	leads := make([]models.Lead, 0, len(deals))
	for _, deal := range deals {
		lead := MapDealToLead(deal, accountID, stageNames)
		if search != "" && !matchesSearch(lead, search) {
			continue
		}
		lead.SyncedAt = &syncedAt
		leads = append(leads, lead)
	}

	if search != "" {
		leads = pageLeads(leads, offset, limit)
	}
	return leads, nil
}

// scanDeals walks the listing page by page so a search sees every deal, not
// only the requested page. It stops after maxSearchPages pages.
func (a *Adapter) scanDeals(ctx context.Context, accountID, pipelineID string, params url.Values) ([]map[string]any, error) {
	var all []map[string]any
	start := 0
	for page := 0; page < maxSearchPages; page++ {
		params.Set("limit", strconv.Itoa(a.pageSize))
		params.Set("start", strconv.Itoa(start))

		deals, next, err := a.fetchDealPage(ctx, accountID, pipelineID, params)
		if err != nil {
			return nil, err
		}
		all = append(all, deals...)
		if next == nil || !next.MoreItems {
			return all, nil
		}
		start = next.NextStart
	}

	a.logger.Warn("Lead search stopped before the end of the listing",
		zap.String("account_id", accountID),
		zap.Int("pages", maxSearchPages),
	)
	return all, nil
}

// fetchDealPage returns one page of deals. Backend failures give an empty
// page; only a done context is an error.
func (a *Adapter) fetchDealPage(ctx context.Context, accountID, pipelineID string, params url.Values) ([]map[string]any, *Pagination, error) {
	var res Result
	if pipelineID != "" {
		res = a.client.GetPipelineDeals(ctx, pipelineID, params)
	} else {
		res = a.client.GetDeals(ctx, params)
	}

	if !res.Success {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		a.logger.Warn("Failed to fetch leads",
			zap.String("account_id", accountID),
			zap.String("error", res.Error),
		)
		return []map[string]any{}, nil, nil
	}

	var deals []map[string]any
	if res.HasData() {
		if err := res.Decode(&deals); err != nil {
			a.logger.Warn("Failed to decode leads",
				zap.String("account_id", accountID),
				zap.Error(err),
			)
			return []map[string]any{}, nil, nil
		}
	}
	return deals, res.Pagination(), nil
}

func pageLeads(leads []models.Lead, offset, limit int) []models.Lead {
	if offset >= len(leads) {
		return []models.Lead{}
	}
	leads = leads[offset:]
	if limit > 0 && limit < len(leads) {
		leads = leads[:limit]
	}
	return leads
}

func (a *Adapter) GetLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	deal, err := a.fetchDeal(ctx, ExternalID(leadID))
	if err != nil {
		return nil, err
	}
	return a.toLead(ctx, deal, accountID), nil
}

func (a *Adapter) CreateLead(ctx context.Context, accountID string, input models.CreateLeadInput) (*models.Lead, error) {
	orgID := ""
	if input.CompanyName != "" {
		res := a.client.CreateOrganization(ctx, map[string]any{"name": input.CompanyName})
		created, err := decodeObject(res)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindBackend, "Failed to create organization", err)
		}
		orgID = idString(created["id"])
	}

	personID := ""
	if input.Email != "" || input.Phone != "" {
		name := input.CompanyName
		if name == "" {
			name = input.Title
		}
		res := a.client.CreatePerson(ctx, BuildPersonPayload(name, input.Email, input.Phone, orgID))
		created, err := decodeObject(res)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindBackend, "Failed to create person", err)
		}
		personID = idString(created["id"])
	}

	res := a.client.CreateDeal(ctx, BuildDealPayload(input, personID, orgID))
	deal, err := decodeObject(res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to create lead", err)
	}

	lead := a.toLead(ctx, deal, accountID)
	if lead.Email == "" {
		lead.Email = input.Email
	}
	if lead.Phone == "" {
		lead.Phone = input.Phone
	}
	if lead.CompanyName == "" {
		lead.CompanyName = input.CompanyName
	}
	lead.Source = input.Source
	lead.SourceID = input.SourceID

	a.logger.Info("Lead created",
		zap.String("account_id", accountID),
		zap.String("lead_id", lead.ID),
	)
	return lead, nil
}

func (a *Adapter) UpdateLead(ctx context.Context, accountID, leadID string, input models.UpdateLeadInput) (*models.Lead, error) {
	externalID := ExternalID(leadID)
	body := BuildDealUpdatePayload(input)

	if input.Email != nil || input.Phone != nil || input.CompanyName != nil {
		current, err := a.fetchDeal(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if err := a.updateContact(ctx, current, input, body); err != nil {
			return nil, err
		}
	}

	var res Result
	if len(body) > 0 {
		res = a.client.UpdateDeal(ctx, externalID, body)
	} else {
		res = a.client.GetDeal(ctx, externalID)
	}

	deal, err := decodeObject(res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to update lead", err)
	}
	return a.toLead(ctx, deal, accountID), nil
}

// updateContact writes contact changes to the linked person and
// organization, creating them when the deal has none. New links are added to
// body.
func (a *Adapter) updateContact(ctx context.Context, deal map[string]any, input models.UpdateLeadInput, body map[string]any) error {
	orgID := idString(deal["org_id"])
	if input.CompanyName != nil && *input.CompanyName != "" {
		var res Result
		if orgID != "" {
			res = a.client.UpdateOrganization(ctx, orgID, map[string]any{"name": *input.CompanyName})
		} else {
			res = a.client.CreateOrganization(ctx, map[string]any{"name": *input.CompanyName})
		}
		org, err := decodeObject(res)
		if err != nil {
			return apperror.Wrap(apperror.KindBackend, "Failed to update organization", err)
		}
		if orgID == "" {
			orgID = idString(org["id"])
			body["org_id"] = backendID(orgID)
		}
	}

	email, phone := "", ""
	if input.Email != nil {
		email = *input.Email
	}
	if input.Phone != nil {
		phone = *input.Phone
	}
	if email == "" && phone == "" {
		return nil
	}

	personID := idString(deal["person_id"])
	if personID != "" {
		res := a.client.UpdatePerson(ctx, personID, BuildPersonPayload("", email, phone, ""))
		if !res.Success {
			return apperror.Wrap(apperror.KindBackend, "Failed to update person", res.Err())
		}
		return nil
	}

	name := stringValue(deal["title"])
	if input.Title != nil {
		name = *input.Title
	}
	res := a.client.CreatePerson(ctx, BuildPersonPayload(name, email, phone, orgID))
	person, err := decodeObject(res)
	if err != nil {
		return apperror.Wrap(apperror.KindBackend, "Failed to create person", err)
	}
	body["person_id"] = backendID(idString(person["id"]))
	return nil
}

func (a *Adapter) MoveLead(ctx context.Context, accountID, leadID string, input models.MoveLeadInput) (*models.Lead, error) {
	res := a.client.UpdateDeal(ctx, ExternalID(leadID), map[string]any{"stage_id": backendID(input.StageID)})
	deal, err := decodeObject(res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to move lead", err)
	}

	a.logger.Info("Lead moved",
		zap.String("account_id", accountID),
		zap.String("lead_id", leadID),
		zap.String("stage_id", input.StageID),
	)
	return a.toLead(ctx, deal, accountID), nil
}

func (a *Adapter) DeleteLead(ctx context.Context, accountID, leadID string) error {
	res := a.client.DeleteDeal(ctx, ExternalID(leadID))
	if !res.Success {
		return apperror.Wrap(apperror.KindBackend, "Failed to delete lead", res.Err())
	}

	a.logger.Info("Lead deleted",
		zap.String("account_id", accountID),
		zap.String("lead_id", leadID),
	)
	return nil
}

func (a *Adapter) GetPipelines(ctx context.Context, accountID string) []models.Pipeline {
	res := a.client.GetPipelines(ctx)
	if !res.Success {
		a.logger.Warn("Failed to fetch pipelines",
			zap.String("account_id", accountID),
			zap.String("error", res.Error),
		)
		return []models.Pipeline{}
	}

	var raw []map[string]any
	if res.HasData() {
		if err := res.Decode(&raw); err != nil {
			a.logger.Warn("Failed to decode pipelines", zap.String("account_id", accountID), zap.Error(err))
			return []models.Pipeline{}
		}
	}

	byPipeline := map[string][]models.Stage{}
	for _, stage := range a.GetStages(ctx, accountID, "") {
		byPipeline[stage.PipelineID] = append(byPipeline[stage.PipelineID], stage)
	}

	pipelines := make([]models.Pipeline, 0, len(raw))
	for _, item := range raw {
		pipeline := MapPipeline(item)
		if stages, ok := byPipeline[pipeline.ID]; ok {
			pipeline.Stages = stages
		}
		pipelines = append(pipelines, pipeline)
	}
	return pipelines
}

func (a *Adapter) GetPipeline(ctx context.Context, accountID, pipelineID string) (*models.Pipeline, error) {
	res := a.client.GetPipeline(ctx, pipelineID)
	if isNotFound(res) {
		return nil, apperror.Newf(apperror.KindNotFound, "Pipeline %s not found", pipelineID)
	}
	raw, err := decodeObject(res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to fetch pipeline", err)
	}

	pipeline := MapPipeline(raw)
	pipeline.Stages = a.GetStages(ctx, accountID, pipeline.ID)
	return &pipeline, nil
}

// GetStages lists the stages of one pipeline, or of all pipelines when
// pipelineID is empty, ordered by rank.
func (a *Adapter) GetStages(ctx context.Context, accountID, pipelineID string) []models.Stage {
	res := a.client.GetStages(ctx, pipelineID)
	if !res.Success {
		a.logger.Warn("Failed to fetch stages",
			zap.String("account_id", accountID),
			zap.String("pipeline_id", pipelineID),
			zap.String("error", res.Error),
		)
		return []models.Stage{}
	}

	var raw []map[string]any
	if res.HasData() {
		if err := res.Decode(&raw); err != nil {
			a.logger.Warn("Failed to decode stages", zap.String("account_id", accountID), zap.Error(err))
			return []models.Stage{}
		}
	}

	stages := make([]models.Stage, 0, len(raw))
	for _, item := range raw {
		stages = append(stages, MapStage(item))
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Order < stages[j].Order
	})
	return stages
}

func (a *Adapter) GetFields(ctx context.Context, accountID string, objectType models.FieldObjectType) []models.FieldDefinition {
	var object string
	switch objectType {
	case models.FieldObjectLead:
		object = "deal"
	case models.FieldObjectContact:
		object = "person"
	default:
		return []models.FieldDefinition{}
	}

	res := a.client.GetFields(ctx, object)
	if !res.Success {
		a.logger.Warn("Failed to fetch fields",
			zap.String("account_id", accountID),
			zap.String("object_type", string(objectType)),
			zap.String("error", res.Error),
		)
		return []models.FieldDefinition{}
	}

	var raw []map[string]any
	if res.HasData() {
		if err := res.Decode(&raw); err != nil {
			a.logger.Warn("Failed to decode fields", zap.String("account_id", accountID), zap.Error(err))
			return []models.FieldDefinition{}
		}
	}

	fields := make([]models.FieldDefinition, 0, len(raw))
	for _, item := range raw {
		fields = append(fields, MapFieldDefinition(item))
	}
	return fields
}

func (a *Adapter) SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	return a.GetLead(ctx, accountID, leadID)
}

func (a *Adapter) GetWebhookURL() string {
	return WebhookPath
}

func (a *Adapter) VerifyWebhook(signature string, payload []byte) bool {
	return VerifySignature(a.webhookSecret, signature, payload)
}

func (a *Adapter) ParseWebhookEvent(payload map[string]any) *models.ParsedWebhookEvent {
	return ParseWebhook(payload)
}

func (a *Adapter) TestConnection(ctx context.Context, accountID string) bool {
	res := a.client.GetCurrentUser(ctx)
	if !res.Success {
		a.logger.Warn("Connection test failed",
			zap.String("account_id", accountID),
			zap.String("error", res.Error),
		)
		return false
	}
	return true
}

func (a *Adapter) fetchDeal(ctx context.Context, externalID string) (map[string]any, error) {
	res := a.client.GetDeal(ctx, externalID)
	if isNotFound(res) {
		return nil, apperror.Newf(apperror.KindNotFound, "Lead %s not found", externalID)
	}
	deal, err := decodeObject(res)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBackend, "Failed to fetch lead", err)
	}
	return deal, nil
}

// toLead maps a single deal and resolves its stage name with one extra call
func (a *Adapter) toLead(ctx context.Context, deal map[string]any, accountID string) *models.Lead {
	lead := MapDealToLead(deal, accountID, nil)
	if lead.StageID != "" {
		if stage, err := decodeObject(a.client.GetStage(ctx, lead.StageID)); err == nil {
			lead.StageName = stringValue(stage["name"])
		}
	}
	syncedAt := a.now()
	lead.SyncedAt = &syncedAt
	return &lead
}

func (a *Adapter) stageNames(ctx context.Context, pipelineID string) map[string]string {
	names := map[string]string{}
	res := a.client.GetStages(ctx, pipelineID)
	var raw []map[string]any
	if err := res.Decode(&raw); err != nil || !res.Success {
		return names
	}
	for _, item := range raw {
		stage := MapStage(item)
		names[stage.ID] = stage.Name
	}
	return names
}

func isNotFound(res Result) bool {
	if res.StatusCode == http.StatusNotFound {
		return true
	}
	return res.Success && !res.HasData()
}

func decodeObject(res Result) (map[string]any, error) {
	if !res.Success {
		return nil, res.Err()
	}
	var obj map[string]any
	if err := res.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func matchesSearch(lead models.Lead, term string) bool {
	for _, value := range []string{lead.Title, lead.Email, lead.Phone, lead.CompanyName} {
		if strings.Contains(strings.ToLower(value), term) {
			return true
		}
	}
	return false
}
