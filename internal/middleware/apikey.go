// internal/middleware/apikey.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/meridianhq/meridian/internal/domain"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/service"
)

const organizationKey contextKey = "meridian_api_organization"

// APIKeyMiddleware authenticates machine callers through the X-Api-Key
// header and stores the owning organization on the request context. Lookups
// go through the cache so hot keys skip the database.
func APIKeyMiddleware(orgService *service.OrganizationService, cacheService *service.CacheService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-Api-Key")
			if apiKey == "" {
				respondWithError(w, http.StatusUnauthorized, "No api key")
				return
			}

			var org model.Organization
			err := cacheService.GetOrSet(r.Context(), fmt.Sprintf("org_api_key:%s", apiKey), &org, func() (interface{}, error) {
				return orgService.FindByAPIKey(r.Context(), apiKey)
			})
			if err != nil {
				if errors.Is(err, domain.ErrInvalidAPIKey) {
					respondWithError(w, http.StatusUnauthorized, "Invalid api key")
					return
				}
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), organizationKey, &org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrganizationFromContext returns the organization resolved by
// APIKeyMiddleware, or nil outside API-key routes.
func OrganizationFromContext(ctx context.Context) *model.Organization {
	org, _ := ctx.Value(organizationKey).(*model.Organization)
	return org
}
