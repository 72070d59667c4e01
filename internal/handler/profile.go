// internal/handler/profile.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/meridianhq/meridian/internal/middleware"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type ProfileResponse struct {
	ID                       string  `json:"id"`
	Email                    string  `json:"email"`
	IsSubscribedToNewsletter bool    `json:"isSubscribedToNewsletter"`
	Name                     *string `json:"name,omitempty"`
	AvatarURL                *string `json:"avatarUrl,omitempty"`
}

func profileResponse(profile *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                       profile.ID.String(),
		Email:                    profile.Email,
		IsSubscribedToNewsletter: profile.SubscribedToNewsletter(),
		Name:                     profile.Name,
		AvatarURL:                profile.AvatarURL,
	}
}

// Create resolves the authenticated identity into a profile, registering it
// on first sight.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())

	profile, err := h.profileService.Resolve(r.Context(), ident)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())

	profile, err := h.profileService.Current(r.Context(), ident)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())

	profile, err := h.profileService.Current(r.Context(), ident)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var input service.NewsletterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if input.IsSubscribedToNewsletter != nil {
		profile, err = h.profileService.SetNewsletterSubscription(r.Context(), profile, *input.IsSubscribedToNewsletter)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())

	profile, err := h.profileService.Current(r.Context(), ident)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	if err := h.profileService.Delete(r.Context(), profile); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
