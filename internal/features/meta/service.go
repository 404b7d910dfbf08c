package meta

import (
	"context"
	"encoding/json"
	"time"

	"crm-gateway/internal/config"
	"crm-gateway/pkg/apperror"
	"crm-gateway/pkg/hubsig"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TopicLeadEvent = "meta.lead"

type EventPublisher interface {
	Publish(topic string, payload any)
}

type MetaService interface {
	VerifySubscription(mode, token string) bool
	VerifySignature(header string, body []byte) bool
	HandleWebhook(ctx context.Context, body []byte) ([]LeadEvent, error)
	ListLeadEvents(ctx context.Context, limit int) []LeadEvent
}

type MetaServiceImpl struct {
	Repo        LeadEventRepository
	Publisher   EventPublisher
	Logger      *zap.Logger
	AppSecret   string
	VerifyToken string

	now func() time.Time
}

func NewMetaService(repo LeadEventRepository, publisher EventPublisher, cfg *config.Config, logger *zap.Logger) MetaService {
	return &MetaServiceImpl{
		Repo:        repo,
		Publisher:   publisher,
		Logger:      logger,
		AppSecret:   cfg.MetaAppSecret,
		VerifyToken: cfg.MetaVerifyToken,
		now:         time.Now,
	}
}

func (s *MetaServiceImpl) VerifySubscription(mode, token string) bool {
	return hubsig.Challenge(mode, token, s.VerifyToken)
}

// VerifySignature passes every request when no app secret is configured
func (s *MetaServiceImpl) VerifySignature(header string, body []byte) bool {
	if s.AppSecret == "" {
		return true
	}
	return hubsig.Verify(s.AppSecret, header, body)
}

// HandleWebhook stores every leadgen change of a page payload. Payloads for
// other objects are acknowledged and ignored.
func (s *MetaServiceImpl) HandleWebhook(ctx context.Context, body []byte) ([]LeadEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid Meta webhook payload", err)
	}

	events := []LeadEvent{}
	if payload.Object != "page" {
		s.Logger.Info("Ignoring Meta webhook", zap.String("object", payload.Object))
		return events, nil
	}

	for _, e := range payload.Entry {
		for _, ch := range e.Changes {
			if ch.Field != "leadgen" {
				continue
			}

			event := LeadEvent{
				ID:         uuid.New().String(),
				LeadgenID:  string(ch.Value.LeadgenID),
				FormID:     string(ch.Value.FormID),
				PageID:     string(ch.Value.PageID),
				AdID:       string(ch.Value.AdID),
				AdgroupID:  string(ch.Value.AdgroupID),
				ReceivedAt: s.now(),
			}
			if event.PageID == "" {
				event.PageID = string(e.ID)
			}
			if ch.Value.CreatedTime > 0 {
				created := time.Unix(ch.Value.CreatedTime, 0).UTC()
				event.CreatedTime = &created
			}

			if err := s.Repo.Save(ctx, &event); err != nil {
				s.Logger.Error("Failed to store Meta lead event", zap.String("leadgen_id", event.LeadgenID), zap.Error(err))
				continue
			}
			if s.Publisher != nil {
				s.Publisher.Publish(TopicLeadEvent, event)
			}
			events = append(events, event)
		}
	}

	s.Logger.Info("Meta lead events received", zap.Int("count", len(events)))
	return events, nil
}

func (s *MetaServiceImpl) ListLeadEvents(ctx context.Context, limit int) []LeadEvent {
	events, err := s.Repo.List(ctx, limit)
	if err != nil {
		s.Logger.Error("Failed to list Meta lead events", zap.Error(err))
		return []LeadEvent{}
	}
	return events
}
