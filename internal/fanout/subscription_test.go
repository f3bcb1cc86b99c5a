package fanout_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"chatnslate/internal/domain"
	"chatnslate/internal/fanout"
	"chatnslate/internal/language"
	"chatnslate/internal/translation"
)

// stubMessages serves a fixed message set keyed by ID.
type stubMessages struct {
	byID map[string]*domain.Message
}

func (s *stubMessages) Create(context.Context, *domain.Message) error { return nil }

func (s *stubMessages) GetByID(_ context.Context, id string) (*domain.Message, error) {
	if m, ok := s.byID[id]; ok {
		cp := *m
		cp.TranslatedTexts = map[language.Code]string{}
		for k, v := range m.TranslatedTexts {
			cp.TranslatedTexts[k] = v
		}
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubMessages) ListForConversation(context.Context, string, int) ([]*domain.Message, error) {
	return nil, nil
}

func (s *stubMessages) FindForeignSender(context.Context, string, string) (string, error) {
	return "", nil
}

func (s *stubMessages) SaveTranslation(context.Context, string, language.Code, string) error {
	return nil
}

func (s *stubMessages) Delete(context.Context, string) error               { return nil }
func (s *stubMessages) DeleteForConversation(context.Context, string) error { return nil }

// stubProfiles serves a fixed profile set keyed by ID.
type stubProfiles struct {
	byID map[string]*domain.Profile
}

func (s *stubProfiles) Create(context.Context, *domain.Profile) error { return nil }

func (s *stubProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubProfiles) GetByUsername(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProfiles) GetByEmail(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProfiles) Search(context.Context, string, string, int) ([]*domain.Profile, error) {
	return nil, nil
}

func (s *stubProfiles) Update(context.Context, *domain.Profile) error { return nil }

func (s *stubProfiles) SetOnlineStatus(context.Context, string, bool) error { return nil }

type fixedProvider struct{ result string }

func (p fixedProvider) Detect(context.Context, string) (language.Code, error) {
	return language.Default, nil
}

func (p fixedProvider) Translate(context.Context, string, language.Code, language.Code) (string, error) {
	return p.result, nil
}

func newTestBroker(msgs *stubMessages, profs *stubProfiles, provider translation.Provider) *fanout.Broker {
	translations := translation.NewCacheManager(provider, nil, nil, 0, zerolog.Nop())
	return fanout.NewBroker(msgs, profs, translations, zerolog.Nop())
}

func waitDelivery(t *testing.T, sub *fanout.Subscription) fanout.Delivery {
	t.Helper()
	select {
	case d := <-sub.Events():
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery arrived")
		return fanout.Delivery{}
	}
}

func TestSubscriptionDeliversEnrichedInsert(t *testing.T) {
	msgs := &stubMessages{byID: map[string]*domain.Message{
		"msg-1": {
			ID:               "msg-1",
			ConversationID:   "conv-1",
			SenderID:         "bob",
			OriginalText:     "hello",
			OriginalLanguage: "en",
		},
	}}
	profs := &stubProfiles{byID: map[string]*domain.Profile{
		"bob": {ID: "bob", Username: "bob", DisplayName: "Bob", IsActive: true},
	}}
	broker := newTestBroker(msgs, profs, fixedProvider{result: "hola"})

	viewer := &domain.Profile{ID: "alice", PreferredLanguage: "es"}
	sub := broker.Subscribe("conv-1", viewer)
	defer sub.Close()

	broker.Publish(fanout.Event{Type: fanout.MessageInserted, ConversationID: "conv-1", MessageID: "msg-1", SenderID: "bob"})

	d := waitDelivery(t, sub)
	assert.Equal(t, fanout.MessageInserted, d.Type)
	assert.Equal(t, "msg-1", d.Message.ID)
	assert.Equal(t, "hola", d.Message.TranslatedTexts["es"])
	assert.Equal(t, "Bob", d.Sender.DisplayName)
	assert.Empty(t, d.Sender.HashedPassword)
}

func TestSubscriptionDeduplicatesInserts(t *testing.T) {
	msgs := &stubMessages{byID: map[string]*domain.Message{
		"msg-1": {ID: "msg-1", ConversationID: "conv-1", SenderID: "alice", OriginalText: "hi", OriginalLanguage: "en"},
		"msg-2": {ID: "msg-2", ConversationID: "conv-1", SenderID: "alice", OriginalText: "again", OriginalLanguage: "en"},
	}}
	profs := &stubProfiles{byID: map[string]*domain.Profile{
		"alice": {ID: "alice", Username: "alice", IsActive: true},
	}}
	broker := newTestBroker(msgs, profs, fixedProvider{result: "x"})

	sub := broker.Subscribe("conv-1", &domain.Profile{ID: "alice"})
	defer sub.Close()

	ev := fanout.Event{Type: fanout.MessageInserted, ConversationID: "conv-1", MessageID: "msg-1", SenderID: "alice"}
	broker.Publish(ev)
	broker.Publish(ev)
	broker.Publish(ev)
	broker.Publish(fanout.Event{Type: fanout.MessageInserted, ConversationID: "conv-1", MessageID: "msg-2", SenderID: "alice"})

	first := waitDelivery(t, sub)
	assert.Equal(t, "msg-1", first.Message.ID)
	// The duplicates collapse; the next delivery is the second message.
	second := waitDelivery(t, sub)
	assert.Equal(t, "msg-2", second.Message.ID)
}

func TestSubscriptionPassesThroughRemovals(t *testing.T) {
	broker := newTestBroker(&stubMessages{}, &stubProfiles{}, fixedProvider{})

	sub := broker.Subscribe("conv-1", &domain.Profile{ID: "alice"})
	defer sub.Close()

	broker.Publish(fanout.Event{Type: fanout.MessageDeleted, ConversationID: "conv-1", MessageID: "msg-9"})
	d := waitDelivery(t, sub)
	assert.Equal(t, fanout.MessageDeleted, d.Type)
	assert.Equal(t, "msg-9", d.MessageID)
	assert.Nil(t, d.Message)

	broker.Publish(fanout.Event{Type: fanout.ConversationDeleted, ConversationID: "conv-1"})
	d = waitDelivery(t, sub)
	assert.Equal(t, fanout.ConversationDeleted, d.Type)
}

func TestClosedSubscriptionReceivesNothing(t *testing.T) {
	broker := newTestBroker(&stubMessages{}, &stubProfiles{}, fixedProvider{})

	sub := broker.Subscribe("conv-1", &domain.Profile{ID: "alice"})
	sub.Close()
	assert.Equal(t, fanout.StateUnsubscribed, sub.State())

	broker.Publish(fanout.Event{Type: fanout.MessageDeleted, ConversationID: "conv-1", MessageID: "msg-1"})

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}
}

func TestSubscriptionFlagsStalledConsumer(t *testing.T) {
	byID := make(map[string]*domain.Message)
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("msg-%d", i)
		byID[id] = &domain.Message{ID: id, ConversationID: "conv-1", SenderID: "alice", OriginalText: "x", OriginalLanguage: "en"}
	}
	broker := newTestBroker(&stubMessages{byID: byID}, &stubProfiles{byID: map[string]*domain.Profile{
		"alice": {ID: "alice", IsActive: true},
	}}, fixedProvider{})

	// Subscribe but never consume: both buffers fill, further events drop.
	sub := broker.Subscribe("conv-1", &domain.Profile{ID: "alice"})
	defer sub.Close()

	for i := 0; i < 200; i++ {
		broker.Publish(fanout.Event{
			Type:           fanout.MessageInserted,
			ConversationID: "conv-1",
			MessageID:      fmt.Sprintf("msg-%d", i),
			SenderID:       "alice",
		})
	}

	assert.Eventually(t, func() bool {
		return sub.State() == fanout.StateTimedOut
	}, 2*time.Second, 10*time.Millisecond)
}
