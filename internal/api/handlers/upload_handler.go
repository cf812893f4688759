package handlers

import (
	"io"
	"net/http"
	"strings"

	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/portal"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/repositories"
	"sponsorops/internal/platform/uploads"
)

// UploadHandler serves stored proof files. Auth is dual-mode: a staff
// bearer token at viewer rank, or the owning deal's portal token as a
// query parameter. The route is mounted without the auth middleware so
// both can work.
type UploadHandler struct {
	deals    *deals.Repository
	uploads  *uploads.Store
	tokenSvc *auth.TokenService
	users    *repositories.UserRepository
	portal   *portal.Service
	authz    *authz.Service
}

func NewUploadHandler(dealRepo *deals.Repository, store *uploads.Store, tokenSvc *auth.TokenService,
	users *repositories.UserRepository, portalSvc *portal.Service, authzSvc *authz.Service) *UploadHandler {
	return &UploadHandler{deals: dealRepo, uploads: store, tokenSvc: tokenSvc, users: users, portal: portalSvc, authz: authzSvc}
}

func (h *UploadHandler) DownloadProof(w http.ResponseWriter, r *http.Request) {
	p, err := h.deals.GetProof(pathParam(r, "proof_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if p == nil || p.Kind != "file" || p.FilePath == "" {
		errors.WriteMasked(w, errors.ErrNotFound)
		return
	}

	d, err := h.deals.GetDeliverable(p.DeliverableID)
	if err != nil || d == nil {
		errors.WriteMasked(w, errors.ErrNotFound)
		return
	}
	deal, err := h.deals.GetDeal(d.DealID)
	if err != nil || deal == nil {
		errors.WriteMasked(w, errors.ErrNotFound)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	switch {
	case strings.HasPrefix(authHeader, "Bearer "):
		claims, err := h.tokenSvc.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			errors.Write(w, err)
			return
		}
		user, err := h.users.GetByID(claims.UserID)
		if err != nil || user == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User no longer exists", nil)
			return
		}
		if _, err := h.authz.RequireRole(user, deal.OrganizationID, authz.RoleViewer); err != nil {
			errors.WriteMasked(w, err)
			return
		}
	default:
		dealToken := r.URL.Query().Get("deal_token")
		if dealToken == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing deal_token", nil)
			return
		}
		tokenDeal, err := h.portal.ValidateDeal(dealToken)
		if err != nil {
			errors.WriteMasked(w, err)
			return
		}
		if tokenDeal.ID != deal.ID {
			errors.WriteMasked(w, errors.ErrNotFound)
			return
		}
	}

	f, err := h.uploads.Open(p.FilePath)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	defer f.Close()

	mimeType := p.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	fileName := p.FileName
	if fileName == "" {
		fileName = "proof"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	io.Copy(w, f)
}
