package whatsapp

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"crm-gateway/internal/config"
	"crm-gateway/pkg/apperror"
	"crm-gateway/pkg/hubsig"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TopicMessage = "whatsapp.message"

type EventPublisher interface {
	Publish(topic string, payload any)
}

// CloudResult summarizes one Cloud API webhook delivery
type CloudResult struct {
	Messages int `json:"messages"`
	Statuses int `json:"statuses"`
}

type WhatsAppService interface {
	VerifySubscription(mode, token string) bool
	VerifySignature(header string, body []byte) bool
	HandleCloudWebhook(ctx context.Context, body []byte) (*CloudResult, error)
	// HandleSessionWebhook stores message events of the session API. A nil
	// message means the event was not a message.
	HandleSessionWebhook(ctx context.Context, body []byte) (*Message, error)
	ListMessages(ctx context.Context, filter MessageFilter) []Message
}

type WhatsAppServiceImpl struct {
	Repo        MessageRepository
	Publisher   EventPublisher
	Logger      *zap.Logger
	AppSecret   string
	VerifyToken string

	now func() time.Time
}

func NewWhatsAppService(repo MessageRepository, publisher EventPublisher, cfg *config.Config, logger *zap.Logger) WhatsAppService {
	return &WhatsAppServiceImpl{
		Repo:        repo,
		Publisher:   publisher,
		Logger:      logger,
		AppSecret:   cfg.WhatsAppAppSecret,
		VerifyToken: cfg.WhatsAppVerifyToken,
		now:         time.Now,
	}
}

func (s *WhatsAppServiceImpl) VerifySubscription(mode, token string) bool {
	return hubsig.Challenge(mode, token, s.VerifyToken)
}

func (s *WhatsAppServiceImpl) VerifySignature(header string, body []byte) bool {
	if s.AppSecret == "" {
		return true
	}
	return hubsig.Verify(s.AppSecret, header, body)
}

func (s *WhatsAppServiceImpl) HandleCloudWebhook(ctx context.Context, body []byte) (*CloudResult, error) {
	var payload cloudPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid WhatsApp webhook payload", err)
	}

	result := &CloudResult{}
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				s.Logger.Debug("Unhandled WhatsApp webhook field", zap.String("field", change.Field))
				continue
			}
			value := change.Value

			names := make(map[string]string, len(value.Contacts))
			for _, contact := range value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range value.Messages {
				message := &Message{
					ID:            uuid.New().String(),
					Channel:       ChannelOfficial,
					ExternalID:    msg.ID,
					PhoneNumberID: value.Metadata.PhoneNumberID,
					From:          msg.From,
					To:            value.Metadata.DisplayPhoneNumber,
					ContactName:   names[msg.From],
					Type:          msg.Type,
					Text:          cloudText(msg),
					Timestamp:     unixString(msg.Timestamp),
					ReceivedAt:    s.now(),
				}
				if s.store(ctx, message) {
					result.Messages++
				}
			}

			for _, status := range value.Statuses {
				found, err := s.Repo.UpdateStatus(ctx, status.ID, status.Status)
				if err != nil {
					s.Logger.Error("Failed to update WhatsApp message status", zap.String("message_id", status.ID), zap.Error(err))
					continue
				}
				if found {
					result.Statuses++
				}
			}
		}
	}

	return result, nil
}

func (s *WhatsAppServiceImpl) HandleSessionWebhook(ctx context.Context, body []byte) (*Message, error) {
	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid WhatsApp session payload", err)
	}

	if payload.Event != "message" && payload.Event != "message.any" {
		s.Logger.Debug("Ignoring WhatsApp session event", zap.String("event", payload.Event))
		return nil, nil
	}

	data := payload.Data
	msgType := data.Type
	if msgType == "" {
		msgType = "text"
	}

	message := &Message{
		ID:          uuid.New().String(),
		Channel:     ChannelUnofficial,
		ExternalID:  data.ID,
		Session:     payload.Session,
		From:        data.From,
		To:          data.To,
		ContactName: data.PushName,
		Type:        msgType,
		Text:        data.Body,
		FromMe:      data.FromMe,
		Timestamp:   unixTime(data.Timestamp),
		ReceivedAt:  s.now(),
	}
	if !s.store(ctx, message) {
		return nil, apperror.New(apperror.KindBackend, "failed to store message")
	}
	return message, nil
}

func (s *WhatsAppServiceImpl) ListMessages(ctx context.Context, filter MessageFilter) []Message {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	messages, err := s.Repo.List(ctx, filter)
	if err != nil {
		s.Logger.Error("Failed to list WhatsApp messages", zap.Error(err))
		return []Message{}
	}
	return messages
}

func (s *WhatsAppServiceImpl) store(ctx context.Context, message *Message) bool {
	if err := s.Repo.Save(ctx, message); err != nil {
		s.Logger.Error("Failed to store WhatsApp message",
			zap.String("channel", string(message.Channel)),
			zap.String("message_id", message.ExternalID),
			zap.Error(err),
		)
		return false
	}

	s.Logger.Info("WhatsApp message received",
		zap.String("channel", string(message.Channel)),
		zap.String("from", message.From),
		zap.String("type", message.Type),
	)
	if s.Publisher != nil {
		s.Publisher.Publish(TopicMessage, message)
	}
	return true
}

func cloudText(msg cloudMessage) string {
	switch {
	case msg.Text != nil:
		return msg.Text.Body
	case msg.Button != nil:
		return msg.Button.Text
	case msg.Image != nil:
		return msg.Image.Caption
	case msg.Video != nil:
		return msg.Video.Caption
	case msg.Document != nil:
		return msg.Document.Caption
	default:
		return ""
	}
}

func unixString(ts string) time.Time {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return unixTime(n)
}

// unixTime accepts seconds or milliseconds
func unixTime(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
