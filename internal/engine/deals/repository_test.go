package deals

import (
	"testing"

	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

func TestRepository_DealRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	archivedAt := int64(1736899200)
	deals := []*models.Deal{
		{ID: "deal_a", OrganizationID: "org_1", SponsorID: "spn_1", Name: "Spring", StartDate: "2025-01-01", EndDate: "2025-02-01", Status: "active", PortalToken: "tok-a", CreatedAt: 1},
		{ID: "deal_b", OrganizationID: "org_1", SponsorID: "spn_1", Name: "Summer", StartDate: "2025-06-01", EndDate: "2025-07-01", Status: "archived", ArchivedAt: &archivedAt, PortalToken: "tok-b", CreatedAt: 2},
		{ID: "deal_c", OrganizationID: "org_2", SponsorID: "spn_2", Name: "Other Org", StartDate: "2025-01-01", EndDate: "2025-02-01", Status: "active", PortalToken: "tok-c", CreatedAt: 3},
	}
	for _, d := range deals {
		if err := repo.CreateDeal(d); err != nil {
			t.Fatalf("Failed to create %s: %v", d.ID, err)
		}
	}

	fetched, err := repo.GetByPortalToken("tok-a")
	if err != nil || fetched == nil || fetched.ID != "deal_a" {
		t.Fatalf("GetByPortalToken: got %v, %v", fetched, err)
	}

	missing, err := repo.GetByPortalToken("nope")
	if err != nil || missing != nil {
		t.Fatalf("Expected nil for unknown token, got %v, %v", missing, err)
	}

	active, err := repo.ListBySponsor("spn_1", false)
	if err != nil {
		t.Fatalf("ListBySponsor: %v", err)
	}
	if len(active) != 1 || active[0].ID != "deal_a" {
		t.Errorf("Expected only the active deal, got %d", len(active))
	}

	all, err := repo.ListBySponsor("spn_1", true)
	if err != nil {
		t.Fatalf("ListBySponsor include_archived: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected both deals, got %d", len(all))
	}
}

func TestRepository_CountOutstanding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	deal := &models.Deal{ID: "deal_1", OrganizationID: "org_1", SponsorID: "spn_1", Name: "X", StartDate: "2025-01-01", EndDate: "2025-02-01", Status: "active", PortalToken: "tok", CreatedAt: 1}
	if err := repo.CreateDeal(deal); err != nil {
		t.Fatalf("Failed to create deal: %v", err)
	}

	statuses := []string{StatusDraft, StatusDelivered, StatusCanceled, StatusPosted}
	for i, st := range statuses {
		d := &models.Deliverable{ID: "dlv_" + string(rune('a'+i)), DealID: deal.ID, Title: "D", Type: "tiktok", DueDate: "2025-01-10", Status: st, CreatedAt: 1}
		if err := repo.CreateDeliverable(d); err != nil {
			t.Fatalf("Failed to create deliverable: %v", err)
		}
	}

	n, err := repo.CountOutstanding(deal.ID)
	if err != nil {
		t.Fatalf("CountOutstanding: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 outstanding (draft, posted), got %d", n)
	}
}

func TestRepository_OpenDeliverablesByOrg(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	sponsors := repositories.NewSponsorRepository(db)

	if err := sponsors.Create(&models.Sponsor{ID: "spn_1", OrganizationID: "org_1", Name: "Acme", PortalToken: "s-tok", CreatedAt: 1}); err != nil {
		t.Fatalf("Failed to create sponsor: %v", err)
	}
	deal := &models.Deal{ID: "deal_1", OrganizationID: "org_1", SponsorID: "spn_1", Name: "X", StartDate: "2025-01-01", EndDate: "2025-02-01", Status: "active", PortalToken: "tok", CreatedAt: 1}
	if err := repo.CreateDeal(deal); err != nil {
		t.Fatalf("Failed to create deal: %v", err)
	}
	for id, st := range map[string]string{"dlv_open": StatusInProgress, "dlv_done": StatusDelivered} {
		d := &models.Deliverable{ID: id, DealID: deal.ID, Title: id, Type: "tiktok", DueDate: "2025-01-10", Status: st, CreatedAt: 1}
		if err := repo.CreateDeliverable(d); err != nil {
			t.Fatalf("Failed to create deliverable: %v", err)
		}
	}

	open, err := repo.OpenDeliverablesByOrg("org_1")
	if err != nil {
		t.Fatalf("OpenDeliverablesByOrg: %v", err)
	}
	if len(open) != 1 || open[0].ID != "dlv_open" {
		t.Errorf("Expected only the open deliverable, got %d", len(open))
	}
}
