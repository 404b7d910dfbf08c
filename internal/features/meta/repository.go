package meta

import (
	"context"
	"sync"
)

type LeadEventRepository interface {
	Save(ctx context.Context, event *LeadEvent) error
	// List returns the last limit events, oldest first
	List(ctx context.Context, limit int) ([]LeadEvent, error)
}

type LeadEventMemoryRepository struct {
	mu     sync.RWMutex
	events []LeadEvent
}

func NewLeadEventRepository() LeadEventRepository {
	return &LeadEventMemoryRepository{}
}

func (r *LeadEventMemoryRepository) Save(ctx context.Context, event *LeadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *LeadEventMemoryRepository) List(ctx context.Context, limit int) ([]LeadEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return append([]LeadEvent{}, events...), nil
}
