package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/analytics"
	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/email"
	"github.com/meridianhq/meridian/internal/handler"
	"github.com/meridianhq/meridian/internal/middleware"
	"github.com/meridianhq/meridian/internal/mocks"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testEnv struct {
	router      chi.Router
	verifier    *auth.IdentityVerifier
	profileRepo *mocks.MockProfileRepositoryIface
	orgRepo     *mocks.MockOrganizationRepositoryIface
	inviteRepo  *mocks.MockInviteRepositoryIface
	recorder    *email.Recorder
}

// newTestEnv wires real services and handlers over mocked repositories,
// mirroring the route layout of the api binary.
func newTestEnv(t *testing.T, ctrl *gomock.Controller) *testEnv {
	t.Helper()

	profileRepo := mocks.NewMockProfileRepositoryIface(ctrl)
	orgRepo := mocks.NewMockOrganizationRepositoryIface(ctrl)
	inviteRepo := mocks.NewMockInviteRepositoryIface(ctrl)
	recorder := email.NewRecorder()

	cfg := &config.Config{AppName: "Meridian"}
	noop := analytics.NewNoOpService()

	profileService := service.NewProfileService(profileRepo, orgRepo, inviteRepo, noop, recorder, cfg)
	orgService := service.NewOrganizationService(orgRepo, noop)
	membershipService := service.NewMembershipService(orgRepo, profileRepo, inviteRepo, noop, recorder)

	profileHandler := handler.NewProfileHandler(profileService)
	orgHandler := handler.NewOrganizationHandler(profileService, orgService, membershipService)

	verifier := auth.NewIdentityVerifier("test_secret", time.Hour)
	cacheService := service.NewCacheService(service.CacheConfig{TTL: time.Minute, CleanupFreq: time.Minute})
	t.Cleanup(func() { cacheService.Close() })

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(verifier))

			r.Route("/profile", func(r chi.Router) {
				r.Post("/", profileHandler.Create)
				r.Get("/", profileHandler.Get)
				r.Patch("/", profileHandler.Patch)
				r.Delete("/", profileHandler.Delete)
			})

			r.Route("/organization", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)

				r.Route("/{organizationID}", func(r chi.Router) {
					r.Get("/", orgHandler.Get)
					r.Patch("/", orgHandler.Patch)
					r.Delete("/", orgHandler.Delete)

					r.Route("/members", func(r chi.Router) {
						r.Get("/", orgHandler.ListMembers)
						r.Put("/", orgHandler.PutMember)
						r.Post("/", orgHandler.PutMember)
						r.Delete("/{memberEmail}", orgHandler.DeleteMember)
					})
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyMiddleware(orgService, cacheService))
			r.Get("/ext/organization", orgHandler.GetExt)
		})
	})

	return &testEnv{
		router:      r,
		verifier:    verifier,
		profileRepo: profileRepo,
		orgRepo:     orgRepo,
		inviteRepo:  inviteRepo,
		recorder:    recorder,
	}
}

// expectCurrentProfile stubs the lookup done by every authenticated handler.
// The returned profile is fresh enough that no last-seen write happens.
func (e *testEnv) expectCurrentProfile(ident *auth.Identity) *model.Profile {
	now := time.Now()
	profile := &model.Profile{
		ID:             uuid.New(),
		IdentityUserID: ident.UserID,
		Email:          ident.Email,
		LastSeenAt:     &now,
	}
	if ident.Name != "" {
		name := ident.Name
		profile.Name = &name
	}

	e.profileRepo.EXPECT().
		FindByIdentityUserID(gomock.Any(), ident.UserID).
		Return(profile, nil).
		AnyTimes()

	return profile
}

func (e *testEnv) bearerToken(t *testing.T, ident *auth.Identity) string {
	t.Helper()
	token, err := e.verifier.Generate(ident.UserID, ident.Email, ident.Name, ident.Picture)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestMemberRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ident := &auth.Identity{UserID: "identity|admin", Email: "ada@example.com", Name: "Ada Lovelace"}

	t.Run("inviting an unknown email returns an invited member", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		admin := env.expectCurrentProfile(ident)
		orgID := uuid.New()

		env.orgRepo.EXPECT().
			FindMembership(gomock.Any(), orgID, admin.ID).
			Return(&model.Membership{Role: model.RoleAdmin}, nil)
		env.orgRepo.EXPECT().
			FindByID(gomock.Any(), orgID).
			Return(&model.Organization{ID: orgID, Name: "Acme"}, nil)

		env.orgRepo.EXPECT().
			FindMembershipByEmail(gomock.Any(), orgID, "new@example.com").
			Return(nil, domain.ErrMemberNotFound)
		env.profileRepo.EXPECT().
			FindByEmail(gomock.Any(), "new@example.com").
			Return(nil, domain.ErrProfileNotFound)
		env.inviteRepo.EXPECT().
			FindByEmailAndOrganization(gomock.Any(), "new@example.com", orgID).
			Return(nil, domain.ErrMemberNotFound)
		env.inviteRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(nil)

		body, _ := json.Marshal(map[string]string{"email": "new@example.com", "role": "editor"})
		req := httptest.NewRequest(http.MethodPut, "/api/organization/"+orgID.String()+"/members", bytes.NewReader(body))
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var member service.Member
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &member))
		assert.Equal(t, "new@example.com", member.Email)
		assert.Equal(t, service.MemberStatusInvited, member.Status)

		assert.Len(t, env.recorder.Sent, 1)
	})

	t.Run("non-admins cannot manage members", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		editor := env.expectCurrentProfile(ident)
		orgID := uuid.New()

		env.orgRepo.EXPECT().
			FindMembership(gomock.Any(), orgID, editor.ID).
			Return(&model.Membership{Role: model.RoleEditor}, nil)

		body, _ := json.Marshal(map[string]string{"email": "new@example.com", "role": "editor"})
		req := httptest.NewRequest(http.MethodPut, "/api/organization/"+orgID.String()+"/members", bytes.NewReader(body))
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("removing a member returns no content", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		admin := env.expectCurrentProfile(ident)
		orgID := uuid.New()
		membershipID := uuid.New()

		env.orgRepo.EXPECT().
			FindMembership(gomock.Any(), orgID, admin.ID).
			Return(&model.Membership{Role: model.RoleAdmin}, nil)
		env.orgRepo.EXPECT().
			FindByID(gomock.Any(), orgID).
			Return(&model.Organization{ID: orgID, Name: "Acme"}, nil)

		env.orgRepo.EXPECT().
			FindMembershipByEmail(gomock.Any(), orgID, "bob@example.com").
			Return(&model.Membership{
				ID:      membershipID,
				Role:    model.RoleEditor,
				Profile: model.Profile{Email: "bob@example.com"},
			}, nil)
		env.orgRepo.EXPECT().
			DeleteMembership(gomock.Any(), membershipID).
			Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/organization/"+orgID.String()+"/members/bob@example.com", nil)
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("admins removing themselves get a conflict-free refusal", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		admin := env.expectCurrentProfile(ident)
		orgID := uuid.New()

		env.orgRepo.EXPECT().
			FindMembership(gomock.Any(), orgID, admin.ID).
			Return(&model.Membership{Role: model.RoleAdmin}, nil)
		env.orgRepo.EXPECT().
			FindByID(gomock.Any(), orgID).
			Return(&model.Organization{ID: orgID, Name: "Acme"}, nil)

		env.orgRepo.EXPECT().
			FindMembershipByEmail(gomock.Any(), orgID, admin.Email).
			Return(&model.Membership{
				ID:      uuid.New(),
				Role:    model.RoleAdmin,
				Profile: model.Profile{Email: admin.Email},
			}, nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/organization/"+orgID.String()+"/members/"+admin.Email, nil)
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOrganizationRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ident := &auth.Identity{UserID: "identity|admin", Email: "ada@example.com", Name: "Ada Lovelace"}

	t.Run("resetting to a key already in use returns conflict", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		admin := env.expectCurrentProfile(ident)
		orgID := uuid.New()

		env.orgRepo.EXPECT().
			FindMembership(gomock.Any(), orgID, admin.ID).
			Return(&model.Membership{Role: model.RoleAdmin}, nil)
		env.orgRepo.EXPECT().
			FindByID(gomock.Any(), orgID).
			Return(&model.Organization{ID: orgID, Name: "Acme"}, nil)

		env.orgRepo.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			Return(domain.ErrDuplicateAPIKey)

		body, _ := json.Marshal(map[string]bool{"resetApiKey": true})
		req := httptest.NewRequest(http.MethodPatch, "/api/organization/"+orgID.String(), bytes.NewReader(body))
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestProfileRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ident := &auth.Identity{UserID: "identity|admin", Email: "ada@example.com", Name: "Ada Lovelace"}

	t.Run("requests without a token are unauthorized", func(t *testing.T) {
		env := newTestEnv(t, ctrl)

		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns the current profile", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		env.expectCurrentProfile(ident)

		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.ProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ada@example.com", resp.Email)
		assert.False(t, resp.IsSubscribedToNewsletter)
	})

	t.Run("unknown identities get not found", func(t *testing.T) {
		env := newTestEnv(t, ctrl)

		env.profileRepo.EXPECT().
			FindByIdentityUserID(gomock.Any(), ident.UserID).
			Return(nil, domain.ErrProfileNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("patch toggles the newsletter subscription", func(t *testing.T) {
		env := newTestEnv(t, ctrl)
		profile := env.expectCurrentProfile(ident)

		env.profileRepo.EXPECT().
			Update(gomock.Any(), profile).
			Return(nil)

		body, _ := json.Marshal(map[string]bool{"isSubscribedToNewsletter": true})
		req := httptest.NewRequest(http.MethodPatch, "/api/profile", bytes.NewReader(body))
		req.Header.Set("Authorization", env.bearerToken(t, ident))
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.ProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.IsSubscribedToNewsletter)
	})
}

func TestExtOrganizationRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("resolves the organization from the API key", func(t *testing.T) {
		env := newTestEnv(t, ctrl)

		key := uuid.NewString()
		org := &model.Organization{ID: uuid.New(), Name: "Acme", APIKey: &key}

		env.orgRepo.EXPECT().
			FindByAPIKey(gomock.Any(), key).
			Return(org, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/ext/organization", nil)
		req.Header.Set("X-Api-Key", key)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handler.OrganizationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, org.ID.String(), resp.ID)

		// Second request with the same key is served from cache
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/ext/organization", nil)
		req.Header.Set("X-Api-Key", key)
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects an unknown key", func(t *testing.T) {
		env := newTestEnv(t, ctrl)

		env.orgRepo.EXPECT().
			FindByAPIKey(gomock.Any(), "bogus").
			Return(nil, domain.ErrOrganizationNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/ext/organization", nil)
		req.Header.Set("X-Api-Key", "bogus")
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing key", func(t *testing.T) {
		env := newTestEnv(t, ctrl)

		req := httptest.NewRequest(http.MethodGet, "/api/ext/organization", nil)
		rec := httptest.NewRecorder()

		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
