// internal/service/membership.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/meridianhq/meridian/internal/analytics"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/email"
	"github.com/meridianhq/meridian/internal/email/mailer"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/repository"
)

type MemberStatus string

const (
	MemberStatusJoined  MemberStatus = "joined"
	MemberStatusInvited MemberStatus = "invited"
)

// Member is one row of an organization's member list: a resolved membership
// or a pending invitation.
type Member struct {
	Email  string       `json:"email"`
	Role   model.Role   `json:"role"`
	Status MemberStatus `json:"status"`
}

// MembershipService decides membership and invitation state transitions
// within an organization. Per email the states move NONE -> INVITED ->
// JOINED; a joined member never falls back to invited, role changes happen
// in place.
type MembershipService struct {
	orgRepo     repository.OrganizationRepositoryIface
	profileRepo repository.ProfileRepositoryIface
	inviteRepo  repository.InviteRepositoryIface
	analytics   analytics.Service
	sender      email.Sender
	validate    *validator.Validate
}

func NewMembershipService(
	orgRepo repository.OrganizationRepositoryIface,
	profileRepo repository.ProfileRepositoryIface,
	inviteRepo repository.InviteRepositoryIface,
	analyticsService analytics.Service,
	sender email.Sender,
) *MembershipService {
	return &MembershipService{
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		inviteRepo:  inviteRepo,
		analytics:   analyticsService,
		sender:      sender,
		validate:    validator.New(),
	}
}

type GrantRoleInput struct {
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role" validate:"required"`
}

// GrantRole assigns a role to an email address within an organization. The
// requester must already hold admin; callers enforce that through
// OrganizationService.RequireRole. Evaluation order is fixed: existing
// membership, then profile without membership, then existing invitation,
// then a new invitation. Reordering would create duplicate invitations for
// already-registered users.
func (s *MembershipService) GrantRole(ctx context.Context, org *model.Organization, requester *model.Profile, input GrantRoleInput) (*Member, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	membership, err := s.orgRepo.FindMembershipByEmail(ctx, org.ID, input.Email)
	if err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	if membership != nil {
		if membership.Role != input.Role {
			// Keep the organization reachable: the only admin cannot be
			// demoted in place.
			if membership.Role == model.RoleAdmin {
				admins, err := s.orgRepo.CountAdmins(ctx, org.ID)
				if err != nil {
					return nil, err
				}
				if admins == 1 {
					return nil, domain.ErrLastAdmin
				}
			}

			membership.Role = input.Role
			if err := s.orgRepo.UpdateMembership(ctx, membership); err != nil {
				return nil, err
			}

			s.trackEvent(ctx, requester.ID.String(), analytics.EventMemberUpdated, map[string]string{
				"organization_id": org.ID.String(),
				"member_email":    input.Email,
				"member_role":     string(input.Role),
			})
		}

		return &Member{Email: input.Email, Role: input.Role, Status: MemberStatusJoined}, nil
	}

	profileToAdd, err := s.profileRepo.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	if profileToAdd != nil {
		newMembership := &model.Membership{
			ProfileID:      profileToAdd.ID,
			OrganizationID: org.ID,
			Role:           input.Role,
		}
		if err := s.orgRepo.CreateMembership(ctx, newMembership); err != nil {
			return nil, err
		}

		s.trackEvent(ctx, requester.ID.String(), analytics.EventMemberAdded, map[string]string{
			"organization_id": org.ID.String(),
			"member_email":    profileToAdd.Email,
			"member_role":     string(input.Role),
		})

		firstName := ""
		if profileToAdd.Name != nil {
			firstName = firstWord(*profileToAdd.Name)
		}
		err := mailer.SendMemberAddedEmail(s.sender, input.Email, mailer.MemberAddedTemplateData{
			FirstName:        firstName,
			OrganizationName: org.Name,
			Role:             string(input.Role),
			AddedBy:          requester.DisplayName(),
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to send member-added email", "error", err, "email", input.Email)
		}

		return &Member{Email: input.Email, Role: input.Role, Status: MemberStatusJoined}, nil
	}

	invite, err := s.inviteRepo.FindByEmailAndOrganization(ctx, input.Email, org.ID)
	if err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	if invite != nil {
		if invite.Role != input.Role {
			invite.Role = input.Role
			if err := s.inviteRepo.Update(ctx, invite); err != nil {
				return nil, err
			}
		}

		return &Member{Email: input.Email, Role: input.Role, Status: MemberStatusInvited}, nil
	}

	invite = &model.Invite{
		Email:          input.Email,
		Role:           input.Role,
		OrganizationID: org.ID,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	s.trackEvent(ctx, requester.ID.String(), analytics.EventInviteCreated, map[string]string{
		"organization_id": org.ID.String(),
		"member_email":    input.Email,
		"member_role":     string(input.Role),
	})

	err = mailer.SendMemberInvitedEmail(s.sender, input.Email, mailer.MemberInvitedTemplateData{
		OrganizationName: org.Name,
		Role:             string(input.Role),
		InvitedBy:        requester.DisplayName(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to send invitation email", "error", err, "email", input.Email)
	}

	return &Member{Email: input.Email, Role: input.Role, Status: MemberStatusInvited}, nil
}

// RevokeRole removes a membership or a pending invitation for the given
// email. Admins cannot remove themselves so an organization never loses its
// last reachable admin by accident.
func (s *MembershipService) RevokeRole(ctx context.Context, org *model.Organization, requester *model.Profile, memberEmail string) error {
	membership, err := s.orgRepo.FindMembershipByEmail(ctx, org.ID, memberEmail)
	if err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
		return err
	}

	if membership != nil {
		if strings.EqualFold(requester.Email, membership.Profile.Email) {
			return domain.ErrCannotRemoveSelf
		}

		if err := s.orgRepo.DeleteMembership(ctx, membership.ID); err != nil {
			return err
		}

		s.trackEvent(ctx, requester.ID.String(), analytics.EventMemberRemoved, map[string]string{
			"organization_id": org.ID.String(),
			"member_email":    membership.Profile.Email,
		})

		return nil
	}

	invite, err := s.inviteRepo.FindByEmailAndOrganization(ctx, memberEmail, org.ID)
	if err != nil {
		return err
	}

	if err := s.inviteRepo.Delete(ctx, invite.ID); err != nil {
		return err
	}

	s.trackEvent(ctx, requester.ID.String(), analytics.EventInviteRemoved, map[string]string{
		"organization_id":  org.ID.String(),
		"invitation_email": invite.Email,
	})

	return nil
}

// ListMembers returns resolved memberships followed by pending invitations.
func (s *MembershipService) ListMembers(ctx context.Context, org *model.Organization) ([]Member, error) {
	memberships, err := s.orgRepo.FindMemberships(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	invites, err := s.inviteRepo.FindByOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(memberships)+len(invites))
	for _, m := range memberships {
		members = append(members, Member{
			Email:  m.Profile.Email,
			Role:   m.Role,
			Status: MemberStatusJoined,
		})
	}
	for _, inv := range invites {
		members = append(members, Member{
			Email:  inv.Email,
			Role:   inv.Role,
			Status: MemberStatusInvited,
		})
	}

	return members, nil
}

func (s *MembershipService) trackEvent(ctx context.Context, distinctID string, event analytics.Event, params map[string]string) {
	if err := s.analytics.Track(ctx, distinctID, event, params); err != nil {
		slog.WarnContext(ctx, "failed to track event", "error", err, "event", event)
	}
}
