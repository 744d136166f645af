// internal/events/bus.go
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"motion-service/internal/model"
)

// AllEvents subscribes to every event type
const AllEvents model.EventType = "*"

// Publisher accepts channel events
type Publisher interface {
	Publish(event model.ChannelEvent)
}

// Bus fans channel events out to subscribers. Slow subscribers miss events
// rather than block publishers.
type Bus struct {
	subscribers map[model.EventType][]chan model.ChannelEvent
	events      chan model.ChannelEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewBus creates a new event bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subscribers: make(map[model.EventType][]chan model.ChannelEvent),
		events:      make(chan model.ChannelEvent, 1000),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Run distributes events until ctx is done
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.events:
			b.distribute(event)
		}
	}
}

// Publish queues an event for distribution
func (b *Bus) Publish(event model.ChannelEvent) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
			zap.Int("channel", event.Channel),
		)
	}
}

// Subscribe subscribes to events of a specific type, or AllEvents
func (b *Bus) Subscribe(eventType model.EventType) <-chan model.ChannelEvent {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subscriber := make(chan model.ChannelEvent, 100)
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
	return subscriber
}

// Unsubscribe removes and closes a subscription
func (b *Bus) Unsubscribe(sub <-chan model.ChannelEvent) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for eventType, subscribers := range b.subscribers {
		for i, s := range subscribers {
			if s == sub {
				b.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)
				close(s)
				return
			}
		}
	}
}

func (b *Bus) distribute(event model.ChannelEvent) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for _, eventType := range []model.EventType{event.EventType, AllEvents} {
		for _, subscriber := range b.subscribers[eventType] {
			select {
			case subscriber <- event:
			default:
				// subscriber is slow, skip
			}
		}
	}
}
