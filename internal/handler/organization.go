// internal/handler/organization.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/middleware"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/service"
)

type OrganizationHandler struct {
	profileService    *service.ProfileService
	orgService        *service.OrganizationService
	membershipService *service.MembershipService
}

func NewOrganizationHandler(
	profileService *service.ProfileService,
	orgService *service.OrganizationService,
	membershipService *service.MembershipService,
) *OrganizationHandler {
	return &OrganizationHandler{
		profileService:    profileService,
		orgService:        orgService,
		membershipService: membershipService,
	}
}

type OrganizationResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	APIKey *string `json:"apiKey,omitempty"`
}

func organizationResponse(org *model.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:     org.ID.String(),
		Name:   org.Name,
		APIKey: org.APIKey,
	}
}

// currentProfile resolves the authenticated profile or writes the error
// response itself.
func (h *OrganizationHandler) currentProfile(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	ident := middleware.IdentityFromContext(r.Context())

	profile, err := h.profileService.Current(r.Context(), ident)
	if err != nil {
		respondWithServiceError(w, r, err)
		return nil, false
	}
	return profile, true
}

// organizationID parses the organizationID route parameter.
func organizationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "organizationID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid organization id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgs, err := h.orgService.List(r.Context(), profile)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	response := make([]OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		response = append(response, organizationResponse(&orgs[i]))
	}

	respondWithJSON(w, http.StatusOK, response)
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	var input service.CreateOrganizationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err := h.orgService.Create(r.Context(), profile, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, organizationResponse(org))
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleLurker)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, organizationResponse(org))
}

func (h *OrganizationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var input service.UpdateOrganizationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err = h.orgService.Update(r.Context(), profile, org, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, organizationResponse(org))
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	if err := h.orgService.Delete(r.Context(), profile, org); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleLurker)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	members, err := h.membershipService.ListMembers(r.Context(), org)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}

func (h *OrganizationHandler) PutMember(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var input service.GrantRoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	member, err := h.membershipService.GrantRole(r.Context(), org, profile, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, member)
}

func (h *OrganizationHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.currentProfile(w, r)
	if !ok {
		return
	}

	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.RequireRole(r.Context(), profile, orgID, model.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	memberEmail := chi.URLParam(r, "memberEmail")
	if memberEmail == "" {
		respondWithError(w, http.StatusBadRequest, "Member email is required")
		return
	}

	if err := h.membershipService.RevokeRole(r.Context(), org, profile, memberEmail); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetExt serves the organization resolved from an API key.
func (h *OrganizationHandler) GetExt(w http.ResponseWriter, r *http.Request) {
	org := middleware.OrganizationFromContext(r.Context())
	if org == nil {
		respondWithError(w, http.StatusUnauthorized, "No api key")
		return
	}

	respondWithJSON(w, http.StatusOK, organizationResponse(org))
}
