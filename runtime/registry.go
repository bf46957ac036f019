package runtime

import (
	"app-chat/contract"
	"sync"
)

type Set map[string]struct{}

// Registry maps collections to the sinks of the subscribers listening to
// their inserts.
type Registry struct {
	mu                sync.RWMutex
	Subscriptions     map[string]contract.EventSink // map subscriber -> Sink
	CollectionMembers map[string]Set                // map collection to subscribers
}

func NewRegistry() *Registry {
	return &Registry{
		Subscriptions:     make(map[string]contract.EventSink),
		CollectionMembers: make(map[string]Set),
	}
}

// GetSinksForCollection resolves the subscribers of a collection into their
// sinks. Returns nil if nobody listens to the collection.
func (r *Registry) GetSinksForCollection(collection string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.CollectionMembers[collection]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for subscriberID := range members {
		if sink, exists := r.Subscriptions[subscriberID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a subscriber's sink on a collection, replacing any
// previous sink under the same id.
func (r *Registry) Subscribe(subscriberID string, collection string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Subscriptions[subscriberID] = sink

	if _, ok := r.CollectionMembers[collection]; !ok {
		r.CollectionMembers[collection] = make(Set)
	}
	r.CollectionMembers[collection][subscriberID] = struct{}{}
}

// Unsubscribe removes a subscriber and drops the collection entry when it
// was the last one. Unknown ids are ignored.
func (r *Registry) Unsubscribe(subscriberID string, collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Subscriptions, subscriberID)

	if members, ok := r.CollectionMembers[collection]; ok {
		delete(members, subscriberID)

		if len(members) == 0 {
			delete(r.CollectionMembers, collection)
		}
	}
}
