// internal/service/organization.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/analytics"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/repository"
)

type OrganizationService struct {
	repo      repository.OrganizationRepositoryIface
	analytics analytics.Service
	validate  *validator.Validate
}

func NewOrganizationService(
	repo repository.OrganizationRepositoryIface,
	analyticsService analytics.Service,
) *OrganizationService {
	return &OrganizationService{
		repo:      repo,
		analytics: analyticsService,
		validate:  validator.New(),
	}
}

type CreateOrganizationInput struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// Create makes a new organization with the creating profile as sole admin.
func (s *OrganizationService) Create(ctx context.Context, profile *model.Profile, input CreateOrganizationInput) (*model.Organization, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	org := &model.Organization{Name: input.Name}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}

	membership := &model.Membership{
		ProfileID:      profile.ID,
		OrganizationID: org.ID,
		Role:           model.RoleAdmin,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	s.trackEvent(ctx, profile.ID.String(), analytics.EventOrganizationCreated, map[string]string{
		"organization_id": org.ID.String(),
	})

	return org, nil
}

// List returns the organizations the profile belongs to, most recently
// updated first.
func (s *OrganizationService) List(ctx context.Context, profile *model.Profile) ([]model.Organization, error) {
	return s.repo.FindByProfile(ctx, profile.ID)
}

// RequireRole loads the organization after checking that the profile holds
// at least minRole in it. A missing membership and an insufficient role are
// indistinguishable to the caller.
func (s *OrganizationService) RequireRole(ctx context.Context, profile *model.Profile, orgID uuid.UUID, minRole model.Role) (*model.Organization, error) {
	membership, err := s.repo.FindMembership(ctx, orgID, profile.ID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrInsufficientRole
		}
		return nil, err
	}

	if !membership.Role.AtLeast(minRole) {
		return nil, domain.ErrInsufficientRole
	}

	return s.repo.FindByID(ctx, orgID)
}

type UpdateOrganizationInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	ResetAPIKey  *bool   `json:"resetApiKey"`
	DeleteAPIKey *bool   `json:"deleteApiKey"`
}

// Update applies a partial update. Resetting the API key mints a fresh
// random key; deleting it revokes API access.
func (s *OrganizationService) Update(ctx context.Context, profile *model.Profile, org *model.Organization, input UpdateOrganizationInput) (*model.Organization, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	if input.Name != nil {
		org.Name = *input.Name
	}

	if input.DeleteAPIKey != nil && *input.DeleteAPIKey {
		org.APIKey = nil
	} else if input.ResetAPIKey != nil && *input.ResetAPIKey {
		key := uuid.NewString()
		org.APIKey = &key
	}

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}

	s.trackEvent(ctx, profile.ID.String(), analytics.EventOrganizationUpdated, map[string]string{
		"organization_id": org.ID.String(),
	})

	return org, nil
}

// Delete removes the organization; memberships and invitations cascade.
func (s *OrganizationService) Delete(ctx context.Context, profile *model.Profile, org *model.Organization) error {
	if err := s.repo.Delete(ctx, org.ID); err != nil {
		return err
	}

	s.trackEvent(ctx, profile.ID.String(), analytics.EventOrganizationDeleted, map[string]string{
		"organization_id": org.ID.String(),
	})

	return nil
}

// FindByAPIKey resolves an organization from its API key.
func (s *OrganizationService) FindByAPIKey(ctx context.Context, apiKey string) (*model.Organization, error) {
	org, err := s.repo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return nil, domain.ErrInvalidAPIKey
		}
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) trackEvent(ctx context.Context, distinctID string, event analytics.Event, params map[string]string) {
	if err := s.analytics.Track(ctx, distinctID, event, params); err != nil {
		slog.WarnContext(ctx, "failed to track event", "error", err, "event", event)
	}
}
