package service

import (
	"context"
	"fmt"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
	"chatnslate/internal/security"
)

// AuthService handles registration, login, and logout.
type AuthService struct {
	profiles domain.ProfileRepository
	tokens   *security.TokenService
	hash     *security.PasswordHasher
}

func NewAuthService(profiles domain.ProfileRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		profiles: profiles,
		tokens:   tokens,
		hash:     hash,
	}
}

type RegisterInput struct {
	Username          string
	Email             *string
	Password          string
	DisplayName       string
	PreferredLanguage string
}

type LoginInput struct {
	Username string
	Password string
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        *domain.Profile `json:"user"`
}

// Register creates the user together with their chat profile. The preferred
// language defaults to English and the display name to the username.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Profile, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	if existing, err := s.profiles.GetByUsername(ctx, in.Username); err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, domain.ErrConflict
	}
	if in.Email != nil && *in.Email != "" {
		if existing, err := s.profiles.GetByEmail(ctx, *in.Email); err != nil && err != domain.ErrNotFound {
			return nil, fmt.Errorf("check email: %w", err)
		} else if existing != nil {
			return nil, domain.ErrConflict
		}
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}

	profile := &domain.Profile{
		Username:          in.Username,
		Email:             in.Email,
		HashedPassword:    hashed,
		DisplayName:       displayName,
		PreferredLanguage: language.Normalize(in.PreferredLanguage),
		IsActive:          true,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	profile, err := s.profiles.GetByUsername(ctx, in.Username)
	if err != nil || profile == nil {
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}
	if !profile.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", domain.ErrUnauthorized)
	}
	if err := s.hash.Verify(in.Password, profile.HashedPassword); err != nil {
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}

	if err := s.profiles.SetOnlineStatus(ctx, profile.ID, true); err != nil {
		return nil, fmt.Errorf("set online: %w", err)
	}

	token, err := s.tokens.CreateForUser(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        profile,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.profiles.SetOnlineStatus(ctx, userID, false)
}
