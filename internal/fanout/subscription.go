package fanout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chatnslate/internal/domain"
)

// State tracks where a subscription is in its lifecycle.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
	StateError
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateError:
		return "error"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Delivery is the enriched, client-facing form of a change event.
type Delivery struct {
	Type           EventType       `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Message        *domain.Message `json:"message,omitempty"`
	Sender         *domain.Profile `json:"sender,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
}

// Subscription is a per-(conversation, viewer) event consumer. It owns its
// own state, de-duplicates insert events by message ID, and enriches each
// foreign message with the viewer's preferred-language translation before
// handing it to the display layer.
type Subscription struct {
	broker         *Broker
	conversationID string
	viewer         *domain.Profile

	state atomic.Int32

	in  chan Event
	out chan Delivery

	seenMu sync.Mutex
	seen   map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}

	enrichTimeout time.Duration
}

const subscriptionBuffer = 64

func newSubscription(b *Broker, conversationID string, viewer *domain.Profile) *Subscription {
	s := &Subscription{
		broker:         b,
		conversationID: conversationID,
		viewer:         viewer,
		in:             make(chan Event, subscriptionBuffer),
		out:            make(chan Delivery, subscriptionBuffer),
		seen:           make(map[string]struct{}),
		done:           make(chan struct{}),
		enrichTimeout:  15 * time.Second,
	}
	s.state.Store(int32(StateSubscribing))
	return s
}

// Events is the channel the display layer consumes. It is closed when the
// subscription closes.
func (s *Subscription) Events() <-chan Delivery { return s.out }

// State reports the current lifecycle state.
func (s *Subscription) State() State { return State(s.state.Load()) }

// ConversationID identifies the watched conversation.
func (s *Subscription) ConversationID() string { return s.conversationID }

func (s *Subscription) start() {
	s.state.Store(int32(StateSubscribed))
	go s.run()
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateUnsubscribed))
		s.broker.unsubscribe(s)
		close(s.done)
	})
}

// offer hands an event to the subscription without blocking the publisher.
func (s *Subscription) offer(ev Event) {
	select {
	case s.in <- ev:
	case <-s.done:
	default:
		// Buffer full: the viewer's consumer has stalled. Flag it and drop;
		// the client reconciles by refetching on resubscribe.
		s.state.Store(int32(StateTimedOut))
		s.broker.log.Warn().
			Str("conversation_id", s.conversationID).
			Str("viewer_id", s.viewer.ID).
			Msg("subscription buffer full, dropping event")
	}
}

func (s *Subscription) run() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.in:
			d, ok := s.process(ev)
			if !ok {
				continue
			}
			select {
			case s.out <- d:
			case <-s.done:
				return
			}
		}
	}
}

func (s *Subscription) process(ev Event) (Delivery, bool) {
	switch ev.Type {
	case MessageInserted:
		return s.processInsert(ev)
	case MessageDeleted:
		return Delivery{
			Type:           MessageDeleted,
			ConversationID: ev.ConversationID,
			MessageID:      ev.MessageID,
		}, true
	case ConversationDeleted:
		return Delivery{
			Type:           ConversationDeleted,
			ConversationID: ev.ConversationID,
		}, true
	default:
		return Delivery{}, false
	}
}

// processInsert fetches the full row, resolves the sender profile, and runs
// auto-translation for foreign messages. Duplicate insert events for the
// same message ID collapse to a single delivery.
func (s *Subscription) processInsert(ev Event) (Delivery, bool) {
	s.seenMu.Lock()
	if _, dup := s.seen[ev.MessageID]; dup {
		s.seenMu.Unlock()
		return Delivery{}, false
	}
	s.seen[ev.MessageID] = struct{}{}
	s.seenMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.enrichTimeout)
	defer cancel()

	msg, err := s.broker.messages.GetByID(ctx, ev.MessageID)
	if err != nil {
		s.state.Store(int32(StateError))
		s.broker.log.Warn().Err(err).
			Str("message_id", ev.MessageID).
			Msg("fanout: fetch inserted message")
		return Delivery{}, false
	}

	var sender *domain.Profile
	if p, err := s.broker.profiles.GetByID(ctx, msg.SenderID); err == nil {
		sender = p.PublicView()
	}

	if msg.SenderID != s.viewer.ID && s.viewer.PreferredLanguage != "" {
		s.broker.translations.EnsureTranslation(ctx, msg, s.viewer.PreferredLanguage)
	}

	if s.State() != StateUnsubscribed {
		s.state.Store(int32(StateSubscribed))
	}
	return Delivery{
		Type:           MessageInserted,
		ConversationID: ev.ConversationID,
		Message:        msg,
		Sender:         sender,
	}, true
}
