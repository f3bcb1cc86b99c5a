package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chatnslate/internal/domain"
	"chatnslate/internal/service"
)

func newConversationService(
	convs *MockConversationRepo,
	parts *MockParticipantRepo,
	msgs *MockMessageRepo,
	profiles *MockProfileRepo,
) *service.ConversationService {
	return service.NewConversationService(convs, parts, msgs, profiles, nil, zerolog.Nop())
}

func TestStartDirect(t *testing.T) {
	bob := &domain.Profile{ID: "bob", Username: "bob", IsActive: true}

	t.Run("ReturnsExisting", func(t *testing.T) {
		convs := new(MockConversationRepo)
		profiles := new(MockProfileRepo)
		svc := newConversationService(convs, new(MockParticipantRepo), new(MockMessageRepo), profiles)

		existing := &domain.Conversation{ID: "conv-1", CreatedBy: "alice"}
		profiles.On("GetByID", mock.Anything, "bob").Return(bob, nil)
		convs.On("FindDirect", mock.Anything, "alice", "bob").Return(existing, nil)

		conv, err := svc.StartDirect(context.Background(), "alice", "bob")
		assert.NoError(t, err)
		assert.Equal(t, "conv-1", conv.ID)
		convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CreatesWhenMissing", func(t *testing.T) {
		convs := new(MockConversationRepo)
		profiles := new(MockProfileRepo)
		svc := newConversationService(convs, new(MockParticipantRepo), new(MockMessageRepo), profiles)

		profiles.On("GetByID", mock.Anything, "bob").Return(bob, nil)
		convs.On("FindDirect", mock.Anything, "alice", "bob").Return(nil, nil)
		convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
			return c.CreatedBy == "alice"
		}), []string{"alice", "bob"}).Return(nil)

		conv, err := svc.StartDirect(context.Background(), "alice", "bob")
		assert.NoError(t, err)
		assert.Equal(t, "alice", conv.CreatedBy)
		convs.AssertExpectations(t)
	})

	t.Run("LostCreateRaceReturnsWinner", func(t *testing.T) {
		convs := new(MockConversationRepo)
		profiles := new(MockProfileRepo)
		svc := newConversationService(convs, new(MockParticipantRepo), new(MockMessageRepo), profiles)

		winner := &domain.Conversation{ID: "conv-1", CreatedBy: "bob"}
		profiles.On("GetByID", mock.Anything, "bob").Return(bob, nil)
		convs.On("FindDirect", mock.Anything, "alice", "bob").Return(nil, nil).Once()
		convs.On("Create", mock.Anything, mock.Anything, []string{"alice", "bob"}).
			Return(domain.ErrConflict)
		convs.On("FindDirect", mock.Anything, "alice", "bob").Return(winner, nil).Once()

		conv, err := svc.StartDirect(context.Background(), "alice", "bob")
		assert.NoError(t, err)
		assert.Equal(t, "conv-1", conv.ID)
		convs.AssertExpectations(t)
	})

	t.Run("RejectsSelf", func(t *testing.T) {
		svc := newConversationService(new(MockConversationRepo), new(MockParticipantRepo), new(MockMessageRepo), new(MockProfileRepo))

		_, err := svc.StartDirect(context.Background(), "alice", "alice")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownOtherUser", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		svc := newConversationService(new(MockConversationRepo), new(MockParticipantRepo), new(MockMessageRepo), profiles)

		profiles.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

		_, err := svc.StartDirect(context.Background(), "alice", "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteConversation(t *testing.T) {
	conv := &domain.Conversation{ID: "conv-1", CreatedBy: "alice"}

	t.Run("CascadesMessagesThenParticipantsThenConversation", func(t *testing.T) {
		convs := new(MockConversationRepo)
		parts := new(MockParticipantRepo)
		msgs := new(MockMessageRepo)
		svc := newConversationService(convs, parts, msgs, new(MockProfileRepo))

		var order []string
		convs.On("GetByID", mock.Anything, "conv-1").Return(conv, nil)
		parts.On("IsParticipant", mock.Anything, "conv-1", "alice").Return(true, nil)
		msgs.On("DeleteForConversation", mock.Anything, "conv-1").Run(func(mock.Arguments) {
			order = append(order, "messages")
		}).Return(nil)
		parts.On("DeleteForConversation", mock.Anything, "conv-1").Run(func(mock.Arguments) {
			order = append(order, "participants")
		}).Return(nil)
		convs.On("Delete", mock.Anything, "conv-1").Run(func(mock.Arguments) {
			order = append(order, "conversation")
		}).Return(nil)

		err := svc.Delete(context.Background(), "conv-1", "alice")
		assert.NoError(t, err)
		assert.Equal(t, []string{"messages", "participants", "conversation"}, order)
	})

	t.Run("NonParticipantForbidden", func(t *testing.T) {
		convs := new(MockConversationRepo)
		parts := new(MockParticipantRepo)
		msgs := new(MockMessageRepo)
		svc := newConversationService(convs, parts, msgs, new(MockProfileRepo))

		convs.On("GetByID", mock.Anything, "conv-1").Return(conv, nil)
		parts.On("IsParticipant", mock.Anything, "conv-1", "mallory").Return(false, nil)

		err := svc.Delete(context.Background(), "conv-1", "mallory")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		msgs.AssertNotCalled(t, "DeleteForConversation", mock.Anything, mock.Anything)
	})
}
