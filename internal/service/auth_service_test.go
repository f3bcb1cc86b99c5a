package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
	"chatnslate/internal/security"
	"chatnslate/internal/service"
)

func TestRegister(t *testing.T) {
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		mockRepo.On("GetByUsername", mock.Anything, "newuser").Return(nil, domain.ErrNotFound)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
			return p.Username == "newuser" &&
				p.DisplayName == "newuser" &&
				p.PreferredLanguage == language.Code("es") &&
				p.IsActive
		})).Return(nil)

		profile, err := svc.Register(context.Background(), service.RegisterInput{
			Username:          "newuser",
			Password:          "Password1!",
			PreferredLanguage: "es",
		})
		assert.NoError(t, err)
		assert.NotNil(t, profile)
		assert.Equal(t, "newuser", profile.Username)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		existing := &domain.Profile{Username: "existing"}
		mockRepo.On("GetByUsername", mock.Anything, "existing").Return(existing, nil)

		profile, err := svc.Register(context.Background(), service.RegisterInput{
			Username: "existing",
			Password: "Password1!",
		})
		assert.Error(t, err)
		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UnknownLanguageFallsBackToEnglish", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		mockRepo.On("GetByUsername", mock.Anything, "polyglot").Return(nil, domain.ErrNotFound)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
			return p.PreferredLanguage == language.Default
		})).Return(nil)

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Username:          "polyglot",
			Password:          "Password1!",
			PreferredLanguage: "tlh",
		})
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingPassword", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		_, err := svc.Register(context.Background(), service.RegisterInput{Username: "nopass"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4)

	hashed, err := hasher.Hash("Password1!")
	assert.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		profile := &domain.Profile{
			ID:             "user-1",
			Username:       "alice",
			HashedPassword: hashed,
			IsActive:       true,
		}
		mockRepo.On("GetByUsername", mock.Anything, "alice").Return(profile, nil)
		mockRepo.On("SetOnlineStatus", mock.Anything, "user-1", true).Return(nil)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Username: "alice",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)

		// Token subject must round-trip to the user ID.
		sub, err := tokenSvc.Parse(resp.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", sub)
		mockRepo.AssertExpectations(t)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		profile := &domain.Profile{ID: "user-1", Username: "alice", HashedPassword: hashed, IsActive: true}
		mockRepo.On("GetByUsername", mock.Anything, "alice").Return(profile, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Username: "alice",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		mockRepo := new(MockProfileRepo)
		svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

		profile := &domain.Profile{ID: "user-2", Username: "bob", HashedPassword: hashed, IsActive: false}
		mockRepo.On("GetByUsername", mock.Anything, "bob").Return(profile, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Username: "bob",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
