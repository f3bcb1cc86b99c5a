package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
	"chatnslate/internal/service"
)

type stubConversationRepo struct {
	conv *domain.Conversation
}

func (s *stubConversationRepo) Create(context.Context, *domain.Conversation, []string) error {
	return nil
}

func (s *stubConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	if s.conv != nil && s.conv.ID == id {
		return s.conv, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubConversationRepo) ListForUser(context.Context, string) ([]*domain.Conversation, error) {
	return nil, nil
}

func (s *stubConversationRepo) FindDirect(context.Context, string, string) (*domain.Conversation, error) {
	return nil, nil
}

func (s *stubConversationRepo) Touch(context.Context, string) error  { return nil }
func (s *stubConversationRepo) Delete(context.Context, string) error { return nil }

type stubParticipantRepo struct {
	profiles []*domain.Profile
}

func (s *stubParticipantRepo) ListParticipants(context.Context, string) ([]*domain.Profile, error) {
	return s.profiles, nil
}

func (s *stubParticipantRepo) ListParticipantIDs(context.Context, string) ([]string, error) {
	ids := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		ids[i] = p.ID
	}
	return ids, nil
}

func (s *stubParticipantRepo) IsParticipant(_ context.Context, _ string, userID string) (bool, error) {
	for _, p := range s.profiles {
		if p.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubParticipantRepo) DeleteForConversation(context.Context, string) error { return nil }

type stubMessageRepo struct{}

func (stubMessageRepo) Create(context.Context, *domain.Message) error { return nil }
func (stubMessageRepo) GetByID(context.Context, string) (*domain.Message, error) {
	return nil, domain.ErrNotFound
}
func (stubMessageRepo) ListForConversation(context.Context, string, int) ([]*domain.Message, error) {
	return nil, nil
}
func (stubMessageRepo) FindForeignSender(context.Context, string, string) (string, error) {
	return "", nil
}
func (stubMessageRepo) SaveTranslation(context.Context, string, language.Code, string) error {
	return nil
}
func (stubMessageRepo) Delete(context.Context, string) error                { return nil }
func (stubMessageRepo) DeleteForConversation(context.Context, string) error { return nil }

type stubProfileRepo struct {
	byID map[string]*domain.Profile
}

func (s *stubProfileRepo) Create(context.Context, *domain.Profile) error { return nil }

func (s *stubProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubProfileRepo) GetByUsername(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProfileRepo) GetByEmail(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProfileRepo) Search(context.Context, string, string, int) ([]*domain.Profile, error) {
	return nil, nil
}

func (s *stubProfileRepo) Update(context.Context, *domain.Profile) error       { return nil }
func (s *stubProfileRepo) SetOnlineStatus(context.Context, string, bool) error { return nil }

func TestHandleGetParticipant(t *testing.T) {
	alice := &domain.Profile{ID: "alice", Username: "alice", DisplayName: "Alice", IsActive: true}
	bob := &domain.Profile{ID: "bob", Username: "bob", DisplayName: "Bob", IsActive: true}

	newRouter := func(convs *stubConversationRepo, parts *stubParticipantRepo, viewer *domain.Profile) http.Handler {
		profiles := &stubProfileRepo{byID: map[string]*domain.Profile{"alice": alice, "bob": bob}}
		svc := service.NewConversationService(convs, parts, stubMessageRepo{}, profiles, nil, zerolog.Nop())
		r := chi.NewRouter()
		r.Get("/conversations/{conversationID}/participants", func(w http.ResponseWriter, req *http.Request) {
			handleGetParticipant(svc, parts)(w, req.WithContext(WithUser(req.Context(), viewer)))
		})
		return r
	}

	t.Run("ReturnsCounterpartShape", func(t *testing.T) {
		convs := &stubConversationRepo{conv: &domain.Conversation{ID: "conv-1", CreatedBy: "alice"}}
		parts := &stubParticipantRepo{profiles: []*domain.Profile{alice, bob}}
		router := newRouter(convs, parts, alice)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/conversations/conv-1/participants", nil))

		require.Equal(t, 200, rec.Code)
		var resp struct {
			Participant *domain.Profile `json:"participant"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Participant)
		assert.Equal(t, "bob", resp.Participant.ID)
	})

	t.Run("NonParticipantForbidden", func(t *testing.T) {
		convs := &stubConversationRepo{conv: &domain.Conversation{ID: "conv-1", CreatedBy: "alice"}}
		parts := &stubParticipantRepo{profiles: []*domain.Profile{alice}}
		mallory := &domain.Profile{ID: "mallory", Username: "mallory", IsActive: true}
		router := newRouter(convs, parts, mallory)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/conversations/conv-1/participants", nil))

		assert.Equal(t, 403, rec.Code)
	})

	t.Run("FallsBackToResolverWhenRowsMissing", func(t *testing.T) {
		convs := &stubConversationRepo{conv: &domain.Conversation{ID: "conv-1", CreatedBy: "bob"}}
		parts := &stubParticipantRepo{profiles: []*domain.Profile{alice}}
		router := newRouter(convs, parts, alice)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/conversations/conv-1/participants", nil))

		require.Equal(t, 200, rec.Code)
		var resp struct {
			Participant *domain.Profile `json:"participant"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Participant)
		assert.Equal(t, "bob", resp.Participant.ID)
	})
}
