// internal/service/profile.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meridianhq/meridian/internal/analytics"
	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/email"
	"github.com/meridianhq/meridian/internal/email/mailer"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/repository"
)

// lastSeenThrottle limits how often a profile's last-seen timestamp is
// persisted.
const lastSeenThrottle = 60 * time.Second

var onboardingLists = []string{"onboarding", "product_updates"}

type ProfileService struct {
	repo       repository.ProfileRepositoryIface
	orgRepo    repository.OrganizationRepositoryIface
	inviteRepo repository.InviteRepositoryIface
	analytics  analytics.Service
	sender     email.Sender
	config     *config.Config
}

func NewProfileService(
	repo repository.ProfileRepositoryIface,
	orgRepo repository.OrganizationRepositoryIface,
	inviteRepo repository.InviteRepositoryIface,
	analyticsService analytics.Service,
	sender email.Sender,
	config *config.Config,
) *ProfileService {
	return &ProfileService{
		repo:       repo,
		orgRepo:    orgRepo,
		inviteRepo: inviteRepo,
		analytics:  analyticsService,
		sender:     sender,
		config:     config,
	}
}

// Resolve maps a verified identity to a profile, creating one on first
// sight. A brand-new profile consumes any pending invitations for its email
// address; with none pending it gets a default organization as sole admin.
func (s *ProfileService) Resolve(ctx context.Context, ident *auth.Identity) (*model.Profile, error) {
	if ident == nil || ident.UserID == "" {
		return nil, fmt.Errorf("%w: missing identity subject", domain.ErrInvalidInput)
	}

	existing, err := s.repo.FindByIdentityUserID(ctx, ident.UserID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	if existing != nil {
		if ident.Email != "" && !strings.EqualFold(ident.Email, existing.Email) {
			// Changing the email address of a profile is not supported.
			return nil, domain.ErrEmailMismatch
		}
		return s.sync(ctx, existing, ident)
	}

	if ident.Email == "" {
		return nil, domain.ErrMissingEmail
	}

	profile := &model.Profile{
		IdentityUserID: ident.UserID,
		Email:          ident.Email,
	}
	if ident.Name != "" {
		profile.Name = &ident.Name
	}
	if ident.Picture != "" {
		profile.AvatarURL = &ident.Picture
	}
	now := time.Now()
	profile.LastSeenAt = &now

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, err
	}

	invites, err := s.inviteRepo.FindAllByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	if len(invites) == 0 {
		if err := s.createDefaultOrganization(ctx, profile, ident.Name); err != nil {
			return nil, err
		}
	} else if err := s.consumeInvites(ctx, profile, invites); err != nil {
		return nil, err
	}

	s.trackEvent(ctx, profile.ID.String(), analytics.EventProfileCreated, map[string]string{
		"email": profile.Email,
		"name":  ident.Name,
	})
	s.identifyProfile(ctx, profile, true, false)

	return profile, nil
}

// Current returns the profile for an already-registered identity, syncing
// name, avatar and last-seen along the way.
func (s *ProfileService) Current(ctx context.Context, ident *auth.Identity) (*model.Profile, error) {
	if ident == nil || ident.UserID == "" {
		return nil, fmt.Errorf("%w: missing identity subject", domain.ErrInvalidInput)
	}

	profile, err := s.repo.FindByIdentityUserID(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}

	return s.sync(ctx, profile, ident)
}

// sync reconciles mutable identity claims into the profile and touches
// last-seen at most once per throttle window.
func (s *ProfileService) sync(ctx context.Context, profile *model.Profile, ident *auth.Identity) (*model.Profile, error) {
	changed := false

	if ident.Name != "" && (profile.Name == nil || *profile.Name != ident.Name) {
		profile.Name = &ident.Name
		changed = true
	}
	if ident.Picture != "" && (profile.AvatarURL == nil || *profile.AvatarURL != ident.Picture) {
		profile.AvatarURL = &ident.Picture
		changed = true
	}

	now := time.Now()
	refreshed := false
	if profile.LastSeenAt == nil || now.Sub(*profile.LastSeenAt) > lastSeenThrottle {
		profile.LastSeenAt = &now
		refreshed = true
	}

	if changed || refreshed {
		if err := s.repo.Update(ctx, profile); err != nil {
			return nil, err
		}
	}

	if changed {
		s.identifyProfile(ctx, profile, false, false)
	} else if refreshed {
		s.identifyProfile(ctx, profile, false, true)
	}

	return profile, nil
}

type NewsletterInput struct {
	IsSubscribedToNewsletter *bool `json:"isSubscribedToNewsletter"`
}

// SetNewsletterSubscription flips the subscribed-since timestamp and
// refreshes the mailing-list contact.
func (s *ProfileService) SetNewsletterSubscription(ctx context.Context, profile *model.Profile, subscribed bool) (*model.Profile, error) {
	if subscribed == profile.SubscribedToNewsletter() {
		return profile, nil
	}

	if subscribed {
		now := time.Now()
		profile.SubscribedToNewsletterAt = &now
	} else {
		profile.SubscribedToNewsletterAt = nil
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.identifyProfile(ctx, profile, false, false)

	return profile, nil
}

// Delete removes the profile. Any organization whose only admin is this
// profile is deleted along with it so no organization is left unreachable.
func (s *ProfileService) Delete(ctx context.Context, profile *model.Profile) error {
	orgs, err := s.orgRepo.FindByProfile(ctx, profile.ID)
	if err != nil {
		return err
	}

	for _, org := range orgs {
		membership, err := s.orgRepo.FindMembership(ctx, org.ID, profile.ID)
		if err != nil {
			if errors.Is(err, domain.ErrMemberNotFound) {
				continue
			}
			return err
		}

		if membership.Role != model.RoleAdmin {
			continue
		}

		admins, err := s.orgRepo.CountAdmins(ctx, org.ID)
		if err != nil {
			return err
		}

		if admins == 1 {
			if err := s.orgRepo.Delete(ctx, org.ID); err != nil {
				return err
			}
		}
	}

	if err := s.unidentifyProfile(ctx, profile); err != nil {
		slog.WarnContext(ctx, "failed to unidentify profile", "error", err, "profileID", profile.ID)
	}

	if err := s.repo.Delete(ctx, profile.ID); err != nil {
		return err
	}

	s.trackEvent(ctx, profile.ID.String(), analytics.EventProfileDeleted, nil)

	return nil
}

func (s *ProfileService) createDefaultOrganization(ctx context.Context, profile *model.Profile, name string) error {
	organizationName := "Default Organization"
	if name != "" {
		organizationName = fmt.Sprintf("%s's Organization", name)
	}

	org := &model.Organization{Name: organizationName}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return err
	}

	membership := &model.Membership{
		ProfileID:      profile.ID,
		OrganizationID: org.ID,
		Role:           model.RoleAdmin,
	}

	return s.orgRepo.CreateMembership(ctx, membership)
}

// consumeInvites turns every pending invitation for the profile's email into
// a membership. The writes run in one transaction so a failure halfway
// through leaves neither stray memberships nor half-consumed invitations.
func (s *ProfileService) consumeInvites(ctx context.Context, profile *model.Profile, invites []model.Invite) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	for _, invite := range invites {
		membership := &model.Membership{
			ProfileID:      profile.ID,
			OrganizationID: invite.OrganizationID,
			Role:           invite.Role,
		}
		if err := tx.CreateMembership(membership); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.DeleteInvite(invite.ID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("consuming invitations: %w", err)
	}
	return nil
}

// identifyProfile pushes person properties to the analytics sink and, unless
// contactRefreshOnly is set, keeps the email contact in sync. New profiles
// additionally get a welcome email. Failures never fail the request.
func (s *ProfileService) identifyProfile(ctx context.Context, profile *model.Profile, isNew, contactRefreshOnly bool) {
	props := map[string]string{
		"$email":   profile.Email,
		"$created": profile.CreatedAt.Format(time.RFC3339),
	}
	if profile.Name != nil {
		props["$name"] = *profile.Name
	}
	if profile.AvatarURL != nil {
		props["$avatar"] = *profile.AvatarURL
	}

	if err := s.analytics.Identify(ctx, profile.ID.String(), props); err != nil {
		slog.WarnContext(ctx, "failed to identify profile", "error", err, "profileID", profile.ID)
	}

	if contactRefreshOnly {
		return
	}

	contact := email.Contact{
		Email:  profile.Email,
		UserID: profile.ID.String(),
	}
	if profile.Name != nil {
		contact.Name = *profile.Name
	}
	if profile.AvatarURL != nil {
		contact.AvatarURL = *profile.AvatarURL
	}
	if isNew {
		contact.Lists = onboardingLists
	}
	if profile.SubscribedToNewsletter() {
		contact.Lists = append(contact.Lists, "newsletter")
	}

	if err := s.sender.SyncContact(contact); err != nil {
		slog.WarnContext(ctx, "failed to sync contact", "error", err, "profileID", profile.ID)
	}

	if isNew {
		firstName := ""
		if profile.Name != nil {
			firstName = firstWord(*profile.Name)
		}
		err := mailer.SendWelcomeEmail(s.sender, profile.Email, mailer.WelcomeTemplateData{
			FirstName: firstName,
			AppName:   s.config.AppName,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to send welcome email", "error", err, "profileID", profile.ID)
		}
	}
}

func (s *ProfileService) unidentifyProfile(ctx context.Context, profile *model.Profile) error {
	return s.analytics.Unidentify(ctx, profile.ID.String())
}

func (s *ProfileService) trackEvent(ctx context.Context, distinctID string, event analytics.Event, params map[string]string) {
	if err := s.analytics.Track(ctx, distinctID, event, params); err != nil {
		slog.WarnContext(ctx, "failed to track event", "error", err, "event", event)
	}
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
