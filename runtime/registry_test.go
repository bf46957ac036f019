package runtime

import (
	"app-chat/domain/chat"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(_ context.Context, _ chat.Message) error {
	return nil
}

func TestRegistry_Subscribe_One_Collection_One_Subscriber(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	subscriberID := uuid.NewString()
	sink := Sink{name: "alice"}

	// Given nobody listens
	req.Empty(registry.Subscriptions)
	req.Empty(registry.CollectionMembers)

	// When a subscriber listens to a collection
	registry.Subscribe(subscriberID, "messages", sink)

	// Then
	req.Len(registry.Subscriptions, 1)
	req.Equal(sink, registry.Subscriptions[subscriberID])
	req.Contains(registry.CollectionMembers["messages"], subscriberID)
	req.Equal([]any{sink}, toAny(registry.GetSinksForCollection("messages")))
}

func TestRegistry_Subscribe_One_Collection_Multiple_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink1 := Sink{name: "alice"}
	sink2 := Sink{name: "bob"}

	registry.Subscribe(uuid.NewString(), "messages", sink1)
	registry.Subscribe(uuid.NewString(), "messages", sink2)

	req.Len(registry.Subscriptions, 2)
	req.Len(registry.CollectionMembers["messages"], 2)
	req.Len(registry.GetSinksForCollection("messages"), 2)
	req.Nil(registry.GetSinksForCollection("other"))
}

func TestRegistry_UnSubscribe_Last_Subscriber_Drops_Collection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	subscriberID := uuid.NewString()

	// Given a subscriber listens to a collection
	registry.Subscribe(subscriberID, "messages", Sink{})

	// When it leaves twice
	registry.Unsubscribe(subscriberID, "messages")
	registry.Unsubscribe(subscriberID, "messages")

	// Then nobody is left and the collection is gone
	req.Empty(registry.Subscriptions)
	req.Empty(registry.CollectionMembers)
	req.Nil(registry.GetSinksForCollection("messages"))
}

func toAny[T any](values []T) []any {
	res := make([]any, len(values))
	for i, v := range values {
		res[i] = v
	}
	return res
}
