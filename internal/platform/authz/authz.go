package authz

import (
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

const (
	RoleViewer   = "viewer"
	RoleEditor   = "editor"
	RoleManager  = "manager"
	RoleOrgAdmin = "org_admin"

	RankSuperadmin = "superadmin"
)

// roleRank is a closed table; authorization is a single numeric
// comparison. Unknown roles rank 0 and fail every check.
var roleRank = map[string]int{
	RoleViewer:   10,
	RoleEditor:   20,
	RoleManager:  30,
	RoleOrgAdmin: 40,
}

func RoleRank(role string) int {
	return roleRank[role]
}

func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

type Service struct {
	memberships *repositories.MembershipRepository
}

func NewService(memberships *repositories.MembershipRepository) *Service {
	return &Service{memberships: memberships}
}

// RequireRole resolves the user's membership in the organization and
// enforces the minimum role. A superadmin user is implicitly org_admin
// everywhere: the first access writes the membership row (see
// provision). That read-that-writes behavior is deliberate and isolated
// here so it stays independently testable.
func (s *Service) RequireRole(user *models.User, orgID, minRole string) (*models.Membership, error) {
	if user.Rank == RankSuperadmin {
		m, err := s.memberships.Get(orgID, user.ID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
		return s.provision(orgID, user.ID, RoleOrgAdmin)
	}

	m, err := s.memberships.Get(orgID, user.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.ErrNoAccess
	}
	if roleRank[m.Role] < roleRank[minRole] {
		return nil, errors.ErrInsufficientRole
	}
	return m, nil
}

// ResolveOrg binds the tenant context for a request. An explicit hint must
// match one of the caller's memberships (checked at viewer rank, so
// superadmins can hint any org); without a hint the lowest-id membership
// wins.
func (s *Service) ResolveOrg(user *models.User, explicitHint string) (string, error) {
	if explicitHint != "" {
		if _, err := s.RequireRole(user, explicitHint, RoleViewer); err != nil {
			if err == errors.ErrNoAccess || err == errors.ErrInsufficientRole {
				return "", errors.ErrInvalidTenant
			}
			return "", err
		}
		return explicitHint, nil
	}

	memberships, err := s.memberships.ListByUser(user.ID)
	if err != nil {
		return "", err
	}
	if len(memberships) == 0 {
		return "", errors.ErrNoTenant
	}
	return memberships[0].OrganizationID, nil
}

// EnsureMembership is the explicit provisioning path used by org creation
// and member invites.
func (s *Service) EnsureMembership(orgID, userID, role string) (*models.Membership, error) {
	m, err := s.memberships.Get(orgID, userID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return m, nil
	}
	return s.provision(orgID, userID, role)
}

func (s *Service) provision(orgID, userID, role string) (*models.Membership, error) {
	m := &models.Membership{
		ID:             "mem_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.memberships.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}
