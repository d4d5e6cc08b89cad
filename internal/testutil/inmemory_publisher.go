package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/types"
)

// InMemoryEventPublisher records published domain events for assertions.
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.DomainEvent
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]*types.DomainEvent, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event *types.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}

// Events returns all published events in order.
func (p *InMemoryEventPublisher) Events() []*types.DomainEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.DomainEvent{}, p.events...)
}

// EventNames returns the names of all published events in order.
func (p *InMemoryEventPublisher) EventNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.EventName)
	}
	return names
}

// LastEvent returns the most recently published event, nil when none.
func (p *InMemoryEventPublisher) LastEvent() *types.DomainEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// Reset drops all recorded events.
func (p *InMemoryEventPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}
