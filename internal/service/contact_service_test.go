package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chatnslate/internal/domain"
	"chatnslate/internal/service"
)

func TestAddContact(t *testing.T) {
	bob := &domain.Profile{ID: "bob", Username: "bob", IsActive: true}

	t.Run("Success", func(t *testing.T) {
		contacts := new(MockContactRepo)
		profiles := new(MockProfileRepo)
		svc := service.NewContactService(contacts, profiles)

		profiles.On("GetByID", mock.Anything, "bob").Return(bob, nil)
		contacts.On("Exists", mock.Anything, "alice", "bob").Return(false, nil)
		contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Contact) bool {
			return c.UserID == "alice" && c.ContactUserID == "bob"
		})).Return(nil)

		err := svc.Add(context.Background(), "alice", "bob")
		assert.NoError(t, err)
		contacts.AssertExpectations(t)
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		contacts := new(MockContactRepo)
		profiles := new(MockProfileRepo)
		svc := service.NewContactService(contacts, profiles)

		profiles.On("GetByID", mock.Anything, "bob").Return(bob, nil)
		contacts.On("Exists", mock.Anything, "alice", "bob").Return(true, nil)

		err := svc.Add(context.Background(), "alice", "bob")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("SelfContact", func(t *testing.T) {
		svc := service.NewContactService(new(MockContactRepo), new(MockProfileRepo))

		err := svc.Add(context.Background(), "alice", "alice")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
