package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"crm-gateway/internal/common/models"
	"crm-gateway/internal/connectors"
	"crm-gateway/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLogLimit = 100
	// TopicWebhookEvent is the live stream topic for handled CRM webhooks
	TopicWebhookEvent = "crm.webhook"
)

type LeadSyncer interface {
	SyncLead(ctx context.Context, accountID, leadID string) (*models.Lead, error)
}

// EventPublisher pushes handled events to live subscribers
type EventPublisher interface {
	Publish(topic string, payload any)
}

type WebhookService interface {
	HandleWebhook(ctx context.Context, accountID string, payload map[string]any) *WebhookEvent
	VerifySignature(accountID, signature string, body []byte) bool
	GetWebhookLog(ctx context.Context, id string) (*WebhookEvent, bool)
	GetWebhookLogs(ctx context.Context, limit int) []WebhookEvent
	ClearOldLogs(ctx context.Context, hoursOld int) int
}

type WebhookServiceImpl struct {
	Adapters  connectors.AdapterProvider
	Syncer    LeadSyncer
	Repo      WebhookEventRepository
	Publisher EventPublisher
	Logger    *zap.Logger

	now func() time.Time
}

func NewWebhookService(adapters connectors.AdapterProvider, syncer LeadSyncer, repo WebhookEventRepository, publisher EventPublisher, logger *zap.Logger) WebhookService {
	return &WebhookServiceImpl{
		Adapters:  adapters,
		Syncer:    syncer,
		Repo:      repo,
		Publisher: publisher,
		Logger:    logger,
		now:       time.Now,
	}
}

// HandleWebhook turns a raw CRM payload into a stored event and re-syncs the
// lead it refers to. Failures are recorded on the event, never returned.
func (s *WebhookServiceImpl) HandleWebhook(ctx context.Context, accountID string, payload map[string]any) *WebhookEvent {
	event := &WebhookEvent{
		ID:           uuid.New().String(),
		Type:         models.WebhookEventCustom,
		CrmAccountID: accountID,
		Data:         payload,
		Timestamp:    s.now(),
	}

	adapter, ok := s.Adapters.GetAdapter(accountID)
	if !ok {
		event.Error = fmt.Sprintf("Adapter not found for account %s", accountID)
		s.store(ctx, event)
		return event
	}

	parsed := adapter.ParseWebhookEvent(payload)
	if parsed == nil {
		event.Error = "Failed to parse webhook event"
		s.store(ctx, event)
		return event
	}

	event.Type = parsed.Type
	event.Data = parsed.Data

	if err := s.process(ctx, event); err != nil {
		event.Error = err.Error()
		s.Logger.Warn("Webhook processing failed",
			zap.String("account_id", accountID),
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	} else {
		event.Processed = true
	}

	s.store(ctx, event)
	if s.Publisher != nil {
		s.Publisher.Publish(TopicWebhookEvent, event)
	}
	return event
}

func (s *WebhookServiceImpl) process(ctx context.Context, event *WebhookEvent) error {
	switch event.Type {
	case models.WebhookEventLeadCreated, models.WebhookEventLeadUpdated, models.WebhookEventLeadStageChanged:
		leadID := stringID(event.Data["id"])
		if leadID == "" {
			return nil
		}
		_, err := s.Syncer.SyncLead(ctx, event.CrmAccountID, leadID)
		return err
	case models.WebhookEventLeadDeleted:
		return nil
	default:
		s.Logger.Info("Unrecognized webhook event",
			zap.String("account_id", event.CrmAccountID),
			zap.String("type", string(event.Type)),
		)
		return nil
	}
}

// VerifySignature checks body against the account adapter's webhook secret.
// Unknown accounts pass so the event is still logged with its lookup error.
func (s *WebhookServiceImpl) VerifySignature(accountID, signature string, body []byte) bool {
	adapter, ok := s.Adapters.GetAdapter(accountID)
	if !ok {
		return true
	}
	return adapter.VerifyWebhook(signature, body)
}

func (s *WebhookServiceImpl) GetWebhookLog(ctx context.Context, id string) (*WebhookEvent, bool) {
	event, err := s.Repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.Logger.Error("Failed to load webhook event", zap.String("event_id", id), zap.Error(err))
		}
		return nil, false
	}
	return event, true
}

func (s *WebhookServiceImpl) GetWebhookLogs(ctx context.Context, limit int) []WebhookEvent {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	events, err := s.Repo.List(ctx, limit)
	if err != nil {
		s.Logger.Error("Failed to list webhook events", zap.Error(err))
		return []WebhookEvent{}
	}
	return events
}

// ClearOldLogs removes events strictly older than hoursOld hours and returns
// how many were removed
func (s *WebhookServiceImpl) ClearOldLogs(ctx context.Context, hoursOld int) int {
	cutoff := s.now().Add(-time.Duration(hoursOld) * time.Hour)
	removed, err := s.Repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.Logger.Error("Failed to purge webhook events", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.Logger.Info("Purged webhook events", zap.Int("removed", removed), zap.Int("hours_old", hoursOld))
	}
	return removed
}

func (s *WebhookServiceImpl) store(ctx context.Context, event *WebhookEvent) {
	if err := s.Repo.Save(context.WithoutCancel(ctx), event); err != nil {
		s.Logger.Error("Failed to store webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func stringID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}
