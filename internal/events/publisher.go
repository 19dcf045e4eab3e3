// Package events publishes user lifecycle events to the message queue.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/types"
)

// UserEventsChannel is the queue/topic user lifecycle events are published to.
const UserEventsChannel = "user-events"

// Publisher emits user lifecycle events. Publishing is best-effort: failures
// are logged and never fail the originating request. A nil Publisher or one
// constructed without a queue discards events.
type Publisher struct {
	queue *mq.MQ
}

// NewPublisher constructs a Publisher over the given queue, which may be nil
// when no broker is configured.
func NewPublisher(queue *mq.MQ) *Publisher {
	return &Publisher{queue: queue}
}

// UserCreated emits a user.created event.
func (p *Publisher) UserCreated(ctx context.Context, user types.User) {
	p.publish(ctx, types.UserEventCreated, user)
}

// UserUpdated emits a user.updated event.
func (p *Publisher) UserUpdated(ctx context.Context, user types.User) {
	p.publish(ctx, types.UserEventUpdated, user)
}

// UserDeleted emits a user.deleted event.
func (p *Publisher) UserDeleted(ctx context.Context, user types.User) {
	p.publish(ctx, types.UserEventDeleted, user)
}

func (p *Publisher) publish(ctx context.Context, eventType string, user types.User) {
	if p == nil || p.queue == nil {
		return
	}

	event := types.UserEvent{
		Type:     eventType,
		UserID:   user.ID,
		Username: user.Username,
		At:       time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal %s for user %d: %v", eventType, user.ID, err)
		return
	}

	attrs := map[string]string{"type": eventType}
	if _, err := p.queue.Publish(ctx, UserEventsChannel, data, attrs); err != nil {
		log.Printf("events: publish %s for user %d: %v", eventType, user.ID, err)
	}
}
