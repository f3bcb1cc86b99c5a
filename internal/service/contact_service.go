package service

import (
	"context"
	"errors"
	"fmt"

	"chatnslate/internal/domain"
)

// ContactService manages the directed address book.
type ContactService struct {
	contacts domain.ContactRepository
	profiles domain.ProfileRepository
}

func NewContactService(contacts domain.ContactRepository, profiles domain.ProfileRepository) *ContactService {
	return &ContactService{contacts: contacts, profiles: profiles}
}

// Add creates a contact edge from user to contactUserID. Adding an existing
// contact or yourself is rejected.
func (s *ContactService) Add(ctx context.Context, userID, contactUserID string) error {
	if userID == contactUserID {
		return fmt.Errorf("%w: cannot add yourself as a contact", domain.ErrInvalidInput)
	}
	if _, err := s.profiles.GetByID(ctx, contactUserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("resolve contact profile: %w", err)
	}
	exists, err := s.contacts.Exists(ctx, userID, contactUserID)
	if err != nil {
		return fmt.Errorf("check contact: %w", err)
	}
	if exists {
		return domain.ErrConflict
	}
	return s.contacts.Create(ctx, &domain.Contact{
		UserID:        userID,
		ContactUserID: contactUserID,
	})
}

// List returns the profiles of the user's contacts.
func (s *ContactService) List(ctx context.Context, userID string) ([]*domain.Profile, error) {
	profiles, err := s.contacts.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i, p := range profiles {
		profiles[i] = p.PublicView()
	}
	return profiles, nil
}
