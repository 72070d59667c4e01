package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/analytics"
	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/email"
	"github.com/meridianhq/meridian/internal/mocks"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newProfileService(
	repo *mocks.MockProfileRepositoryIface,
	orgRepo *mocks.MockOrganizationRepositoryIface,
	inviteRepo *mocks.MockInviteRepositoryIface,
	recorder *email.Recorder,
) *service.ProfileService {
	return service.NewProfileService(
		repo,
		orgRepo,
		inviteRepo,
		analytics.NewNoOpService(),
		recorder,
		&config.Config{AppName: "Meridian"},
	)
}

func TestResolveProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ident := &auth.Identity{
		UserID: "identity|abc123",
		Email:  "ada@example.com",
		Name:   "Ada Lovelace",
	}

	t.Run("creates profile with default organization", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)
		recorder := email.NewRecorder()

		profileID := uuid.New()
		orgID := uuid.New()

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(nil, domain.ErrProfileNotFound)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *model.Profile) error {
				p.ID = profileID
				p.CreatedAt = time.Now()
				return nil
			})

		inviteRepo.EXPECT().
			FindAllByEmail(gomock.Any(), ident.Email).
			Return(nil, nil)

		orgRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, org *model.Organization) error {
				assert.Equal(t, "Ada Lovelace's Organization", org.Name)
				org.ID = orgID
				return nil
			})

		orgRepo.EXPECT().
			CreateMembership(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, m *model.Membership) error {
				assert.Equal(t, profileID, m.ProfileID)
				assert.Equal(t, orgID, m.OrganizationID)
				assert.Equal(t, model.RoleAdmin, m.Role)
				return nil
			})

		svc := newProfileService(repo, orgRepo, inviteRepo, recorder)

		profile, err := svc.Resolve(context.Background(), ident)
		assert.NoError(t, err)
		assert.Equal(t, "ada@example.com", profile.Email)
		assert.NotNil(t, profile.LastSeenAt)

		// Contact and welcome email went out
		assert.Len(t, recorder.Contacts, 1)
		assert.Contains(t, recorder.Contacts[0].Lists, "onboarding")
		assert.Len(t, recorder.Sent, 1)
		assert.Equal(t, "Welcome to Meridian!", recorder.Sent[0].Subject)
	})

	t.Run("consumes pending invitations instead of a default organization", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)
		recorder := email.NewRecorder()

		profileID := uuid.New()
		invites := []model.Invite{
			{ID: uuid.New(), Email: ident.Email, Role: model.RoleEditor, OrganizationID: uuid.New()},
			{ID: uuid.New(), Email: ident.Email, Role: model.RoleLurker, OrganizationID: uuid.New()},
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(nil, domain.ErrProfileNotFound)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *model.Profile) error {
				p.ID = profileID
				return nil
			})

		inviteRepo.EXPECT().
			FindAllByEmail(gomock.Any(), ident.Email).
			Return(invites, nil)

		tx := mocks.NewMockTransaction(ctrl)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		for _, invite := range invites {
			invite := invite
			tx.EXPECT().
				CreateMembership(gomock.Any()).
				DoAndReturn(func(m *model.Membership) error {
					assert.Equal(t, profileID, m.ProfileID)
					assert.Equal(t, invite.OrganizationID, m.OrganizationID)
					assert.Equal(t, invite.Role, m.Role)
					return nil
				})
			tx.EXPECT().DeleteInvite(invite.ID).Return(nil)
		}
		tx.EXPECT().Commit().Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, recorder)

		_, err := svc.Resolve(context.Background(), ident)
		assert.NoError(t, err)
	})

	t.Run("rolls back when an invitation cannot be consumed", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)
		recorder := email.NewRecorder()

		invites := []model.Invite{
			{ID: uuid.New(), Email: ident.Email, Role: model.RoleEditor, OrganizationID: uuid.New()},
			{ID: uuid.New(), Email: ident.Email, Role: model.RoleLurker, OrganizationID: uuid.New()},
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(nil, domain.ErrProfileNotFound)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *model.Profile) error {
				p.ID = uuid.New()
				return nil
			})

		inviteRepo.EXPECT().
			FindAllByEmail(gomock.Any(), ident.Email).
			Return(invites, nil)

		tx := mocks.NewMockTransaction(ctrl)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().CreateMembership(gomock.Any()).Return(nil)
		tx.EXPECT().DeleteInvite(invites[0].ID).Return(nil)
		tx.EXPECT().CreateMembership(gomock.Any()).Return(errors.New("connection reset"))
		tx.EXPECT().Rollback().Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, recorder)

		_, err := svc.Resolve(context.Background(), ident)
		assert.Error(t, err)
		assert.Empty(t, recorder.Sent)
	})

	t.Run("is idempotent for an existing profile", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		name := ident.Name
		now := time.Now()
		existing := &model.Profile{
			ID:             uuid.New(),
			IdentityUserID: ident.UserID,
			Email:          ident.Email,
			Name:           &name,
			LastSeenAt:     &now,
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(existing, nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		profile, err := svc.Resolve(context.Background(), ident)
		assert.NoError(t, err)
		assert.Equal(t, existing.ID, profile.ID)
	})

	t.Run("rejects a changed email address", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		existing := &model.Profile{
			ID:             uuid.New(),
			IdentityUserID: ident.UserID,
			Email:          "old@example.com",
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(existing, nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		_, err := svc.Resolve(context.Background(), ident)
		assert.ErrorIs(t, err, domain.ErrEmailMismatch)
	})

	t.Run("rejects a first sighting without an email claim", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), "identity|no-email").
			Return(nil, domain.ErrProfileNotFound)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		_, err := svc.Resolve(context.Background(), &auth.Identity{UserID: "identity|no-email"})
		assert.ErrorIs(t, err, domain.ErrMissingEmail)
	})

	t.Run("rejects an identity without a subject", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		_, err := svc.Resolve(context.Background(), &auth.Identity{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCurrentProfileSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ident := &auth.Identity{
		UserID: "identity|abc123",
		Email:  "ada@example.com",
		Name:   "Ada King",
	}

	t.Run("picks up a renamed identity", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		name := "Ada Lovelace"
		now := time.Now()
		existing := &model.Profile{
			ID:             uuid.New(),
			IdentityUserID: ident.UserID,
			Email:          ident.Email,
			Name:           &name,
			LastSeenAt:     &now,
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(existing, nil)
		repo.EXPECT().
			Update(gomock.Any(), existing).
			Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		profile, err := svc.Current(context.Background(), ident)
		assert.NoError(t, err)
		assert.Equal(t, "Ada King", *profile.Name)
	})

	t.Run("refreshes a stale last-seen timestamp", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		name := ident.Name
		stale := time.Now().Add(-10 * time.Minute)
		existing := &model.Profile{
			ID:             uuid.New(),
			IdentityUserID: ident.UserID,
			Email:          ident.Email,
			Name:           &name,
			LastSeenAt:     &stale,
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(existing, nil)
		repo.EXPECT().
			Update(gomock.Any(), existing).
			Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		profile, err := svc.Current(context.Background(), ident)
		assert.NoError(t, err)
		assert.WithinDuration(t, time.Now(), *profile.LastSeenAt, time.Minute)
	})

	t.Run("does not write within the throttle window", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		name := ident.Name
		recent := time.Now().Add(-5 * time.Second)
		existing := &model.Profile{
			ID:             uuid.New(),
			IdentityUserID: ident.UserID,
			Email:          ident.Email,
			Name:           &name,
			LastSeenAt:     &recent,
		}

		repo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(existing, nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		_, err := svc.Current(context.Background(), ident)
		assert.NoError(t, err)
	})
}

func TestSetNewsletterSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("subscribing stamps the timestamp", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)
		recorder := email.NewRecorder()

		profile := &model.Profile{ID: uuid.New(), Email: "ada@example.com"}

		repo.EXPECT().Update(gomock.Any(), profile).Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, recorder)

		updated, err := svc.SetNewsletterSubscription(context.Background(), profile, true)
		assert.NoError(t, err)
		assert.True(t, updated.SubscribedToNewsletter())

		assert.Len(t, recorder.Contacts, 1)
		assert.Contains(t, recorder.Contacts[0].Lists, "newsletter")
	})

	t.Run("unsubscribing clears the timestamp", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		since := time.Now().Add(-24 * time.Hour)
		profile := &model.Profile{
			ID:                       uuid.New(),
			Email:                    "ada@example.com",
			SubscribedToNewsletterAt: &since,
		}

		repo.EXPECT().Update(gomock.Any(), profile).Return(nil)

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		updated, err := svc.SetNewsletterSubscription(context.Background(), profile, false)
		assert.NoError(t, err)
		assert.False(t, updated.SubscribedToNewsletter())
	})

	t.Run("setting the current state is a no-op", func(t *testing.T) {
		repo := mocks.NewMockProfileRepositoryIface(ctrl)
		orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
		inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

		profile := &model.Profile{ID: uuid.New(), Email: "ada@example.com"}

		svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

		_, err := svc.SetNewsletterSubscription(context.Background(), profile, false)
		assert.NoError(t, err)
	})
}

func TestDeleteProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockProfileRepositoryIface(ctrl)
	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)

	profile := &model.Profile{ID: uuid.New(), Email: "ada@example.com"}

	soleAdminOrg := model.Organization{ID: uuid.New(), Name: "Sole"}
	sharedOrg := model.Organization{ID: uuid.New(), Name: "Shared"}
	memberOrg := model.Organization{ID: uuid.New(), Name: "Member"}

	orgRepo.EXPECT().
		FindByProfile(gomock.Any(), profile.ID).
		Return([]model.Organization{soleAdminOrg, sharedOrg, memberOrg}, nil)

	// Sole admin of the first org, so it goes down with the profile
	orgRepo.EXPECT().
		FindMembership(gomock.Any(), soleAdminOrg.ID, profile.ID).
		Return(&model.Membership{Role: model.RoleAdmin}, nil)
	orgRepo.EXPECT().
		CountAdmins(gomock.Any(), soleAdminOrg.ID).
		Return(int64(1), nil)
	orgRepo.EXPECT().
		Delete(gomock.Any(), soleAdminOrg.ID).
		Return(nil)

	// Another admin remains, the org survives
	orgRepo.EXPECT().
		FindMembership(gomock.Any(), sharedOrg.ID, profile.ID).
		Return(&model.Membership{Role: model.RoleAdmin}, nil)
	orgRepo.EXPECT().
		CountAdmins(gomock.Any(), sharedOrg.ID).
		Return(int64(2), nil)

	// Plain member, nothing to check
	orgRepo.EXPECT().
		FindMembership(gomock.Any(), memberOrg.ID, profile.ID).
		Return(&model.Membership{Role: model.RoleEditor}, nil)

	repo.EXPECT().Delete(gomock.Any(), profile.ID).Return(nil)

	svc := newProfileService(repo, orgRepo, inviteRepo, email.NewRecorder())

	err := svc.Delete(context.Background(), profile)
	assert.NoError(t, err)
}
