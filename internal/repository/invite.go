// internal/repository/invite.go
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

type InviteRepositoryIface interface {
	Create(ctx context.Context, invite *model.Invite) error
	Update(ctx context.Context, invite *model.Invite) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByEmailAndOrganization(ctx context.Context, email string, orgID uuid.UUID) (*model.Invite, error)
	FindAllByEmail(ctx context.Context, email string) ([]model.Invite, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Invite, error)
}

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		return fmt.Errorf("creating invitation: %w", err)
	}
	return nil
}

func (r *InviteRepository) Update(ctx context.Context, invite *model.Invite) error {
	if err := r.db.WithContext(ctx).Save(invite).Error; err != nil {
		return fmt.Errorf("updating invitation: %w", err)
	}
	return nil
}

func (r *InviteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Invite{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

func (r *InviteRepository) FindByEmailAndOrganization(ctx context.Context, email string, orgID uuid.UUID) (*model.Invite, error) {
	var invite model.Invite
	if err := r.db.WithContext(ctx).
		Where("email = ? AND organization_id = ?", email, orgID).
		First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding invitation: %w", err)
	}
	return &invite, nil
}

// FindAllByEmail returns every pending invitation for an email address
// across all organizations. Used when a new profile consumes its invites.
func (r *InviteRepository) FindAllByEmail(ctx context.Context, email string) ([]model.Invite, error) {
	var invites []model.Invite
	if err := r.db.WithContext(ctx).Where("email = ?", email).Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("finding invitations by email: %w", err)
	}
	return invites, nil
}

func (r *InviteRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Invite, error) {
	var invites []model.Invite
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("finding organization invitations: %w", err)
	}
	return invites, nil
}
