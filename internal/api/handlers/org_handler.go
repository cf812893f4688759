package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type OrgHandler struct {
	orgs        *repositories.OrganizationRepository
	users       *repositories.UserRepository
	memberships *repositories.MembershipRepository
	authz       *authz.Service
	audit       *audit.Logger
}

func NewOrgHandler(orgs *repositories.OrganizationRepository, users *repositories.UserRepository,
	memberships *repositories.MembershipRepository, authzSvc *authz.Service, auditLog *audit.Logger) *OrgHandler {
	return &OrgHandler{orgs: orgs, users: users, memberships: memberships, authz: authzSvc, audit: auditLog}
}

// List returns every org the user belongs to; superadmins see all.
func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if user.Rank == authz.RankSuperadmin {
		orgs, err := h.orgs.List()
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		writeJSON(w, http.StatusOK, orgs)
		return
	}

	memberships, err := h.memberships.ListByUser(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.OrganizationID)
	}
	orgs, err := h.orgs.ListByIDs(ids)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

type OrgCreateRequest struct {
	Name string `json:"name"`
}

// Create provisions the org and makes the creator its org_admin.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req OrgCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name is required", nil)
		return
	}

	org := &models.Organization{
		ID:        "org_" + uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().Unix(),
	}
	if err := h.orgs.Create(org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if _, err := h.authz.EnsureMembership(org.ID, user.ID, authz.RoleOrgAdmin); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: org.ID, EntityType: "org", EntityID: org.ID, Action: "created",
		Summary: "Organization created: " + org.Name, Actor: user.Email,
	})
	writeJSON(w, http.StatusCreated, org)
}

type OrgUpdateRequest struct {
	Name string `json:"name"`
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orgID := pathParam(r, "org_id")

	org, err := h.orgs.GetByID(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.Write(w, errors.ErrNotFound)
		return
	}
	if _, err := h.authz.RequireRole(user, orgID, authz.RoleOrgAdmin); err != nil {
		errors.Write(w, err)
		return
	}

	var req OrgUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name is required", nil)
		return
	}

	org.Name = strings.TrimSpace(req.Name)
	if err := h.orgs.UpdateName(org.ID, org.Name); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: org.ID, EntityType: "org", EntityID: org.ID, Action: "updated",
		Summary: "Organization renamed: " + org.Name, Actor: user.Email,
	})
	writeJSON(w, http.StatusOK, org)
}

type MemberInviteRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AddMember creates the user if needed and grants the membership. Existing
// users keep their password; only the membership is added.
func (h *OrgHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor := currentUser(r)
	orgID := pathParam(r, "org_id")

	if _, err := h.authz.RequireRole(actor, orgID, authz.RoleOrgAdmin); err != nil {
		errors.Write(w, err)
		return
	}

	var req MemberInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Email is required", nil)
		return
	}
	if !authz.ValidRole(req.Role) {
		errors.Write(w, errors.ErrInvalidStatus)
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		if req.Password == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Password is required for a new user", nil)
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
			return
		}
		user = &models.User{
			ID:           "usr_" + uuid.NewString(),
			Email:        req.Email,
			PasswordHash: hash,
			Rank:         "admin",
			CreatedAt:    time.Now().Unix(),
		}
		if err := h.users.Create(user); err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
	}

	membership, err := h.authz.EnsureMembership(orgID, user.ID, req.Role)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: orgID, EntityType: "org", EntityID: membership.ID, Action: "member_added",
		Summary: "Member added: " + user.Email + " (" + membership.Role + ")", Actor: actor.Email,
	})
	writeJSON(w, http.StatusCreated, membership)
}
