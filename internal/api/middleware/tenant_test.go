package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "sponsorops/internal/api/context"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

func tenantRequest(user *models.User) *http.Request {
	req := httptest.NewRequest("GET", "/api/v1/deals", nil)
	ctx := context.WithValue(req.Context(), apiContext.User, user)
	return req.WithContext(ctx)
}

func TestTenantMiddleware(t *testing.T) {
	user := &models.User{ID: "usr_1", Email: "a@b.c", Rank: "admin"}

	t.Run("Explicit Org Header", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("Failed to open sqlmock: %v", err)
		}
		defer db.Close()

		middleware := NewTenantMiddleware(authz.NewService(repositories.NewMembershipRepository(db)))

		rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "created_at"}).
			AddRow("mem_1", "org_1", "usr_1", "editor", 1)
		mock.ExpectQuery("SELECT (.+) FROM memberships WHERE organization_id = \\? AND user_id = \\?").
			WithArgs("org_1", "usr_1").
			WillReturnRows(rows)

		req := tenantRequest(user)
		req.Header.Set(OrgHeader, "org_1")

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			orgID, _ := r.Context().Value(apiContext.Tenant).(string)
			if orgID != "org_1" {
				t.Errorf("Expected tenant org_1, got %q", orgID)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("Default Membership", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("Failed to open sqlmock: %v", err)
		}
		defer db.Close()

		middleware := NewTenantMiddleware(authz.NewService(repositories.NewMembershipRepository(db)))

		rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "created_at"}).
			AddRow("mem_1", "org_a", "usr_1", "viewer", 1).
			AddRow("mem_2", "org_b", "usr_1", "editor", 1)
		mock.ExpectQuery("SELECT (.+) FROM memberships WHERE user_id = \\?").
			WithArgs("usr_1").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			orgID, _ := r.Context().Value(apiContext.Tenant).(string)
			if orgID != "org_a" {
				t.Errorf("Expected default tenant org_a, got %q", orgID)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, tenantRequest(user))

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("Foreign Org Hint", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("Failed to open sqlmock: %v", err)
		}
		defer db.Close()

		middleware := NewTenantMiddleware(authz.NewService(repositories.NewMembershipRepository(db)))

		mock.ExpectQuery("SELECT (.+) FROM memberships WHERE organization_id = \\? AND user_id = \\?").
			WithArgs("org_other", "usr_1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "created_at"}))

		req := tenantRequest(user)
		req.Header.Set(OrgHeader, "org_other")

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler must not run without a valid tenant")
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
	})

	t.Run("No Authenticated User", func(t *testing.T) {
		db, _, err := sqlmock.New()
		if err != nil {
			t.Fatalf("Failed to open sqlmock: %v", err)
		}
		defer db.Close()

		middleware := NewTenantMiddleware(authz.NewService(repositories.NewMembershipRepository(db)))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler must not run without a user")
		})
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/deals", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})
}
