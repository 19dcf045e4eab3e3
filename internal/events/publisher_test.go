package events_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureBackend records every published message.
type captureBackend struct {
	mu       sync.Mutex
	messages []mq.Message
	channels []string
}

func (b *captureBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	b.messages = append(b.messages, mq.Message{Data: data, Attributes: attrs})
	return "msg-1", nil
}

func (b *captureBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	return nil
}

func (b *captureBackend) Close() error { return nil }

func TestPublisherEmitsLifecycleEvents(t *testing.T) {
	backend := &captureBackend{}
	publisher := events.NewPublisher(mq.New(backend))

	user := types.User{ID: 7, Username: "alice"}
	publisher.UserCreated(context.Background(), user)
	publisher.UserUpdated(context.Background(), user)
	publisher.UserDeleted(context.Background(), user)

	require.Len(t, backend.messages, 3)
	for _, channel := range backend.channels {
		assert.Equal(t, events.UserEventsChannel, channel)
	}

	wantTypes := []string{types.UserEventCreated, types.UserEventUpdated, types.UserEventDeleted}
	for i, msg := range backend.messages {
		var event types.UserEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, wantTypes[i], event.Type)
		assert.Equal(t, int64(7), event.UserID)
		assert.Equal(t, "alice", event.Username)
		assert.False(t, event.At.IsZero())
		assert.Equal(t, wantTypes[i], msg.Attributes["type"])
	}
}

func TestPublisherWithoutQueueIsNoop(t *testing.T) {
	publisher := events.NewPublisher(nil)
	// Must not panic.
	publisher.UserCreated(context.Background(), types.User{ID: 1, Username: "alice"})
}
