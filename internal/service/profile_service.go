package service

import (
	"context"
	"fmt"

	"chatnslate/internal/domain"
	"chatnslate/internal/language"
)

// ProfileService provides profile lookup, search, and settings updates.
type ProfileService struct {
	profiles domain.ProfileRepository
}

func NewProfileService(profiles domain.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// Search finds profiles by display-name substring, excluding the caller.
func (s *ProfileService) Search(ctx context.Context, query, callerID string, limit int) ([]*domain.Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	profiles, err := s.profiles.Search(ctx, query, callerID, limit)
	if err != nil {
		return nil, err
	}
	for i, p := range profiles {
		profiles[i] = p.PublicView()
	}
	return profiles, nil
}

// SettingsInput is the mutable slice of a profile. Nil fields are left
// untouched.
type SettingsInput struct {
	DisplayName       *string
	PreferredLanguage *string
	AvatarURL         *string
}

// UpdateSettings applies the owner's settings changes. Preferred language
// must be one of the supported codes.
func (s *ProfileService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		if *in.DisplayName == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", domain.ErrInvalidInput)
		}
		profile.DisplayName = *in.DisplayName
	}
	if in.PreferredLanguage != nil {
		code := language.Code(*in.PreferredLanguage)
		if !language.IsSupported(code) {
			return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, code)
		}
		profile.PreferredLanguage = code
	}
	if in.AvatarURL != nil {
		profile.AvatarURL = in.AvatarURL
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) SetOnlineStatus(ctx context.Context, id string, online bool) error {
	return s.profiles.SetOnlineStatus(ctx, id, online)
}
