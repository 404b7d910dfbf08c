package whatsapp

import (
	"context"
	"sync"
)

type MessageRepository interface {
	Save(ctx context.Context, message *Message) error
	// UpdateStatus sets the delivery status of the message with the given
	// channel id and reports whether it was found
	UpdateStatus(ctx context.Context, externalID, status string) (bool, error)
	// List returns the newest matching messages, oldest first
	List(ctx context.Context, filter MessageFilter) ([]Message, error)
}

type MessageMemoryRepository struct {
	mu       sync.RWMutex
	messages []Message
	byExtID  map[string]int
}

func NewMessageRepository() MessageRepository {
	return &MessageMemoryRepository{
		byExtID: make(map[string]int),
	}
}

func (r *MessageMemoryRepository) Save(ctx context.Context, message *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byExtID[message.ExternalID]; ok && message.ExternalID != "" {
		r.messages[idx] = *message
		return nil
	}
	r.messages = append(r.messages, *message)
	if message.ExternalID != "" {
		r.byExtID[message.ExternalID] = len(r.messages) - 1
	}
	return nil
}

func (r *MessageMemoryRepository) UpdateStatus(ctx context.Context, externalID, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byExtID[externalID]
	if !ok {
		return false, nil
	}
	r.messages[idx].Status = status
	return true, nil
}

func (r *MessageMemoryRepository) List(ctx context.Context, filter MessageFilter) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []Message{}
	for _, m := range r.messages {
		if filter.Channel != "" && m.Channel != filter.Channel {
			continue
		}
		if filter.Contact != "" && m.From != filter.Contact && m.To != filter.Contact {
			continue
		}
		matched = append(matched, m)
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[len(matched)-filter.Limit:]
	}
	return matched, nil
}
