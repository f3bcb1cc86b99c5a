package fanout

import (
	"sync"

	"github.com/rs/zerolog"

	"chatnslate/internal/domain"
	"chatnslate/internal/translation"
)

// Broker routes change events to the subscriptions watching each
// conversation. Services call Publish after a successful mutation; the
// websocket layer calls Subscribe once per open conversation view.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}

	messages     domain.MessageRepository
	profiles     domain.ProfileRepository
	translations *translation.CacheManager
	log          zerolog.Logger
}

func NewBroker(
	messages domain.MessageRepository,
	profiles domain.ProfileRepository,
	translations *translation.CacheManager,
	log zerolog.Logger,
) *Broker {
	return &Broker{
		subs:         make(map[string]map[*Subscription]struct{}),
		messages:     messages,
		profiles:     profiles,
		translations: translations,
		log:          log,
	}
}

// Subscribe attaches a new subscription for viewer to the conversation and
// starts its delivery loop. The caller owns the subscription and must Close
// it when the viewer navigates away.
func (b *Broker) Subscribe(conversationID string, viewer *domain.Profile) *Subscription {
	sub := newSubscription(b, conversationID, viewer)

	b.mu.Lock()
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[*Subscription]struct{})
	}
	b.subs[conversationID][sub] = struct{}{}
	b.mu.Unlock()

	sub.start()
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if set, ok := b.subs[sub.conversationID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.conversationID)
		}
	}
	b.mu.Unlock()
}

// Publish fans the event out to every subscription on its conversation.
// Delivery is best-effort: a subscription whose buffer is full misses the
// event and is flagged timed out rather than blocking the publisher.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	set := b.subs[ev.ConversationID]
	targets := make([]*Subscription, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.offer(ev)
	}
}
