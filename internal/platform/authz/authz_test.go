package authz

import (
	"database/sql"
	stderrors "errors"
	"testing"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/database"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

func setupTest(t *testing.T) (*Service, *repositories.MembershipRepository) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	memberships := repositories.NewMembershipRepository(db)
	return NewService(memberships), memberships
}

func member(t *testing.T, memberships *repositories.MembershipRepository, orgID, userID, role string) {
	m := &models.Membership{ID: "mem_" + orgID + "_" + userID, OrganizationID: orgID, UserID: userID, Role: role, CreatedAt: 1}
	if err := memberships.Create(m); err != nil {
		t.Fatalf("Failed to create membership: %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		minRole string
		err     error
	}{
		{"Viewer Meets Viewer", RoleViewer, RoleViewer, nil},
		{"Viewer Below Editor", RoleViewer, RoleEditor, errors.ErrInsufficientRole},
		{"Editor Meets Editor", RoleEditor, RoleEditor, nil},
		{"Editor Below Manager", RoleEditor, RoleManager, errors.ErrInsufficientRole},
		{"Manager Meets Editor", RoleManager, RoleEditor, nil},
		{"Org Admin Meets Manager", RoleOrgAdmin, RoleManager, nil},
		{"No Membership", "", RoleViewer, errors.ErrNoAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, memberships := setupTest(t)
			user := &models.User{ID: "usr_1", Email: "a@b.c", Rank: "admin"}
			if tt.role != "" {
				member(t, memberships, "org_1", user.ID, tt.role)
			}

			m, err := svc.RequireRole(user, "org_1", tt.minRole)
			if tt.err == nil {
				if err != nil || m == nil {
					t.Fatalf("Expected access, got %v, %v", m, err)
				}
			} else if !stderrors.Is(err, tt.err) {
				t.Fatalf("Expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestRequireRole_SuperadminProvisioning(t *testing.T) {
	svc, memberships := setupTest(t)
	root := &models.User{ID: "usr_root", Email: "root@example.com", Rank: RankSuperadmin}

	m, err := svc.RequireRole(root, "org_1", RoleOrgAdmin)
	if err != nil {
		t.Fatalf("Superadmin must pass everywhere: %v", err)
	}
	if m.Role != RoleOrgAdmin {
		t.Errorf("Expected provisioned org_admin membership, got %s", m.Role)
	}

	// the first access persisted a membership row
	stored, err := memberships.Get("org_1", root.ID)
	if err != nil || stored == nil {
		t.Fatalf("Expected persisted membership, got %v, %v", stored, err)
	}

	again, err := svc.RequireRole(root, "org_1", RoleViewer)
	if err != nil {
		t.Fatalf("Second access failed: %v", err)
	}
	if again.ID != stored.ID {
		t.Error("Expected the existing membership to be reused, not re-provisioned")
	}
}

func TestResolveOrg(t *testing.T) {
	svc, memberships := setupTest(t)
	user := &models.User{ID: "usr_1", Email: "a@b.c", Rank: "admin"}
	member(t, memberships, "org_b", user.ID, RoleEditor)
	member(t, memberships, "org_a", user.ID, RoleViewer)

	t.Run("Explicit Hint", func(t *testing.T) {
		orgID, err := svc.ResolveOrg(user, "org_b")
		if err != nil || orgID != "org_b" {
			t.Fatalf("Expected org_b, got %q, %v", orgID, err)
		}
	})

	t.Run("Foreign Hint", func(t *testing.T) {
		_, err := svc.ResolveOrg(user, "org_other")
		if !stderrors.Is(err, errors.ErrInvalidTenant) {
			t.Fatalf("Expected invalid tenant, got %v", err)
		}
	})

	t.Run("Default Is Lowest Org ID", func(t *testing.T) {
		orgID, err := svc.ResolveOrg(user, "")
		if err != nil || orgID != "org_a" {
			t.Fatalf("Expected org_a, got %q, %v", orgID, err)
		}
	})

	t.Run("No Memberships", func(t *testing.T) {
		stranger := &models.User{ID: "usr_2", Email: "x@y.z", Rank: "admin"}
		_, err := svc.ResolveOrg(stranger, "")
		if !stderrors.Is(err, errors.ErrNoTenant) {
			t.Fatalf("Expected no tenant, got %v", err)
		}
	})
}

func TestEnsureMembership(t *testing.T) {
	svc, _ := setupTest(t)

	m, err := svc.EnsureMembership("org_1", "usr_1", RoleEditor)
	if err != nil || m.Role != RoleEditor {
		t.Fatalf("Expected editor membership, got %v, %v", m, err)
	}

	// second call returns the existing row, role untouched
	again, err := svc.EnsureMembership("org_1", "usr_1", RoleOrgAdmin)
	if err != nil {
		t.Fatalf("EnsureMembership: %v", err)
	}
	if again.ID != m.ID || again.Role != RoleEditor {
		t.Errorf("Expected existing membership preserved, got %+v", again)
	}
}

func TestRoleRank(t *testing.T) {
	if !ValidRole(RoleManager) || ValidRole("superuser") {
		t.Error("ValidRole must accept only the closed role set")
	}
	if RoleRank("unknown") != 0 {
		t.Error("Unknown roles must rank 0")
	}
}
