package middleware

import (
	"context"
	"net/http"

	apiContext "sponsorops/internal/api/context"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
)

// OrgHeader carries an explicit tenant hint. Without it the user's default
// membership decides.
const OrgHeader = "X-Org-Id"

type TenantMiddleware struct {
	authz *authz.Service
}

func NewTenantMiddleware(authzSvc *authz.Service) *TenantMiddleware {
	return &TenantMiddleware{authz: authzSvc}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(apiContext.User).(*models.User)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authenticated user found", nil)
			return
		}

		hint := r.Header.Get(OrgHeader)
		if hint == "" {
			// legacy clients pass the org in the query string
			hint = r.URL.Query().Get("org_id")
		}

		orgID, err := m.authz.ResolveOrg(user, hint)
		if err != nil {
			errors.Write(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, orgID)
		next(w, r.WithContext(ctx))
	}
}
