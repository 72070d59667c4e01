// internal/repository/organization.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/model"
	"gorm.io/gorm"
)

type OrganizationRepositoryIface interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*model.Organization, error)
	FindByProfile(ctx context.Context, profileID uuid.UUID) ([]model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateMembership(ctx context.Context, membership *model.Membership) error
	UpdateMembership(ctx context.Context, membership *model.Membership) error
	DeleteMembership(ctx context.Context, id uuid.UUID) error
	FindMembership(ctx context.Context, orgID, profileID uuid.UUID) (*model.Membership, error)
	FindMembershipByEmail(ctx context.Context, orgID uuid.UUID, email string) (*model.Membership, error)
	FindMemberships(ctx context.Context, orgID uuid.UUID) ([]model.Membership, error)
	CountAdmins(ctx context.Context, orgID uuid.UUID) (int64, error)
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByAPIKey(ctx context.Context, apiKey string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization by api key: %w", err)
	}
	return &org, nil
}

// FindByProfile returns the organizations a profile belongs to, most
// recently updated first.
func (r *OrganizationRepository) FindByProfile(ctx context.Context, profileID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON organizations.id = memberships.organization_id").
		Where("memberships.profile_id = ?", profileID).
		Order("organizations.updated_at DESC").
		Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("finding profile organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateAPIKey
		}
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

// Delete removes the organization together with its memberships and
// invitations in one transaction.
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("deleting memberships: %w", err)
		}

		if err := tx.Where("organization_id = ?", id).Delete(&model.Invite{}).Error; err != nil {
			return fmt.Errorf("deleting invitations: %w", err)
		}

		if err := tx.Delete(&model.Organization{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting organization: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func (r *OrganizationRepository) CreateMembership(ctx context.Context, membership *model.Membership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return fmt.Errorf("creating membership: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) UpdateMembership(ctx context.Context, membership *model.Membership) error {
	if err := r.db.WithContext(ctx).Save(membership).Error; err != nil {
		return fmt.Errorf("updating membership: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Membership{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindMembership(ctx context.Context, orgID, profileID uuid.UUID) (*model.Membership, error) {
	var membership model.Membership
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND profile_id = ?", orgID, profileID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return &membership, nil
}

// FindMembershipByEmail resolves a membership through the member's profile
// email, preloading the profile for callers that need it.
func (r *OrganizationRepository) FindMembershipByEmail(ctx context.Context, orgID uuid.UUID, email string) (*model.Membership, error) {
	var membership model.Membership
	if err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = memberships.profile_id").
		Where("memberships.organization_id = ? AND profiles.email = ?", orgID, email).
		Preload("Profile").
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding membership by email: %w", err)
	}
	return &membership, nil
}

func (r *OrganizationRepository) FindMemberships(ctx context.Context, orgID uuid.UUID) ([]model.Membership, error) {
	var memberships []model.Membership
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Preload("Profile").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("finding memberships: %w", err)
	}
	return memberships, nil
}

func (r *OrganizationRepository) CountAdmins(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("organization_id = ? AND role = ?", orgID, model.RoleAdmin).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}
