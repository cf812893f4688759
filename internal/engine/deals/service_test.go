package deals

import (
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/database"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestService(t *testing.T) *Service {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db), repositories.NewSponsorRepository(db), audit.NewLogger(db))
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seedDeal(t *testing.T, svc *Service) *models.Deal {
	sponsor := &models.Sponsor{
		ID:             "spn_1",
		OrganizationID: "org_1",
		Name:           "Acme Energy",
		PortalToken:    "sponsor-token",
		CreatedAt:      1,
	}
	deal, err := svc.CreateDeal(sponsor, DealCreate{
		Name:      "Spring Campaign",
		StartDate: "2025-01-01",
		EndDate:   "2025-02-01",
	}, "staff@example.com")
	if err != nil {
		t.Fatalf("Failed to create deal: %v", err)
	}
	return deal
}

func seedDeliverable(t *testing.T, svc *Service, deal *models.Deal, status string) *models.Deliverable {
	d, err := svc.CreateDeliverable(deal, DeliverableCreate{
		Title:   "TikTok #1",
		Type:    "tiktok",
		DueDate: "2025-01-10",
	}, "staff@example.com")
	if err != nil {
		t.Fatalf("Failed to create deliverable: %v", err)
	}
	if status != StatusDraft {
		d.Status = status
		if err := svc.repo.UpdateDeliverable(d); err != nil {
			t.Fatalf("Failed to set status: %v", err)
		}
	}
	return d
}

func strPtr(s string) *string { return &s }

func TestCreateDeal(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	if deal.Status != DealDraft {
		t.Errorf("Expected status draft, got %s", deal.Status)
	}
	if deal.OrganizationID != "org_1" {
		t.Errorf("Expected deal bound to sponsor's org, got %s", deal.OrganizationID)
	}
	if deal.PortalToken == "" {
		t.Error("Expected a portal token to be issued")
	}
	// expiry is end_date + 30 days
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC).Unix()
	if deal.PortalTokenExpiresAt == nil || *deal.PortalTokenExpiresAt != want {
		t.Errorf("Expected portal token expiry %d, got %v", want, deal.PortalTokenExpiresAt)
	}
}

func TestUpdateDeal_CompletedGuard(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)
	d := seedDeliverable(t, svc, deal, StatusInProgress)

	_, err := svc.UpdateDeal(deal, DealUpdate{Status: strPtr(DealCompleted)}, "staff@example.com")
	if !stderrors.Is(err, errors.ErrGuardViolation) {
		t.Fatalf("Expected guard violation with open deliverable, got %v", err)
	}

	if err := svc.CancelDeliverable("org_1", d, "staff@example.com"); err != nil {
		t.Fatalf("Failed to cancel deliverable: %v", err)
	}

	updated, err := svc.UpdateDeal(deal, DealUpdate{Status: strPtr(DealCompleted)}, "staff@example.com")
	if err != nil {
		t.Fatalf("Expected completion to pass once nothing is outstanding: %v", err)
	}
	if updated.Status != DealCompleted {
		t.Errorf("Expected status completed, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Error("Expected CompletedAt to be stamped")
	}
}

func TestUpdateDeal_ArchivedIsDeadEnd(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	if err := svc.ArchiveDeal(deal, "staff@example.com"); err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}

	_, err := svc.UpdateDeal(deal, DealUpdate{Status: strPtr(DealActive)}, "staff@example.com")
	if !stderrors.Is(err, errors.ErrGuardViolation) {
		t.Fatalf("Expected guard violation on archived deal, got %v", err)
	}

	if err := svc.UnarchiveDeal(deal, "staff@example.com"); err != nil {
		t.Fatalf("Failed to unarchive: %v", err)
	}
	if deal.Status != DealActive || deal.ArchivedAt != nil {
		t.Errorf("Expected active deal after unarchive, got %s (archived_at %v)", deal.Status, deal.ArchivedAt)
	}
}

func TestUpdateDeal_CustomStatusPassesThrough(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	updated, err := svc.UpdateDeal(deal, DealUpdate{Status: strPtr("negotiating")}, "staff@example.com")
	if err != nil {
		t.Fatalf("Expected tenant-defined status to pass, got %v", err)
	}
	if updated.Status != "negotiating" {
		t.Errorf("Expected status negotiating, got %s", updated.Status)
	}
}

func TestUpdateDeliverable_DeliveredGuard(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	t.Run("No Proof No Override", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusApproved)
		_, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{Status: strPtr(StatusDelivered)}, "staff@example.com")
		if !stderrors.Is(err, errors.ErrGuardViolation) {
			t.Fatalf("Expected guard violation, got %v", err)
		}
		stored, _ := svc.repo.GetDeliverable(d.ID)
		if stored.Status == StatusDelivered {
			t.Error("Failed update must not persist delivered status")
		}
	})

	t.Run("With Proof", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusApproved)
		if _, err := svc.AddProofLink("org_1", d, ProofCreate{URL: "https://tiktok.com/v/1"}, "staff@example.com"); err != nil {
			t.Fatalf("Failed to add proof: %v", err)
		}
		updated, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{Status: strPtr(StatusDelivered)}, "staff@example.com")
		if err != nil {
			t.Fatalf("Expected delivered with proof to pass: %v", err)
		}
		if updated.DeliveredAt == nil || updated.DeliveredBy != "staff@example.com" {
			t.Errorf("Expected delivery stamp, got at=%v by=%q", updated.DeliveredAt, updated.DeliveredBy)
		}
	})

	t.Run("With Override Note", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusApproved)
		updated, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{
			Status:                strPtr(StatusDelivered),
			DeliveredOverrideNote: strPtr("aired live, no VOD"),
		}, "staff@example.com")
		if err != nil {
			t.Fatalf("Expected override note to satisfy the guard: %v", err)
		}
		if updated.Status != StatusDelivered {
			t.Errorf("Expected delivered, got %s", updated.Status)
		}
	})

	t.Run("Unknown Status", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusDraft)
		_, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{Status: strPtr("shipped")}, "staff@example.com")
		if !stderrors.Is(err, errors.ErrInvalidStatus) {
			t.Fatalf("Expected invalid status, got %v", err)
		}
	})
}

func TestSponsorApprovalAutoAdvance(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	t.Run("Staff Stamp", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusSubmitted)
		ts := int64(1736899200)
		updated, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{SponsorApprovedAt: &ts}, "staff@example.com")
		if err != nil {
			t.Fatalf("Failed to update: %v", err)
		}
		if updated.Status != StatusApproved {
			t.Errorf("Expected auto-advance to approved, got %s", updated.Status)
		}
	})

	t.Run("Portal Approval", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusInProgress)
		if err := svc.ApproveBySponsor(d, ""); err != nil {
			t.Fatalf("Failed to approve: %v", err)
		}
		if d.Status != StatusApproved || d.SponsorApprovedBy != "sponsor" {
			t.Errorf("Expected approved by sponsor, got %s by %q", d.Status, d.SponsorApprovedBy)
		}
	})

	t.Run("Delivered Stays Delivered", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusDelivered)
		if err := svc.ApproveBySponsor(d, "cmo@acme.example"); err != nil {
			t.Fatalf("Failed to approve: %v", err)
		}
		if d.Status != StatusDelivered {
			t.Errorf("Expected delivered untouched, got %s", d.Status)
		}
		if d.SponsorApprovedAt == nil || d.SponsorApprovedBy != "cmo@acme.example" {
			t.Error("Expected the approval stamp even on delivered work")
		}
	})
}

func TestCancelAndRestoreDeliverable(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)
	d := seedDeliverable(t, svc, deal, StatusInProgress)

	if err := svc.CancelDeliverable("org_1", d, "staff@example.com"); err != nil {
		t.Fatalf("Failed to cancel: %v", err)
	}
	if d.Status != StatusCanceled || d.CanceledAt == nil || d.CanceledBy != "staff@example.com" {
		t.Errorf("Expected cancel markers, got %s at=%v by=%q", d.Status, d.CanceledAt, d.CanceledBy)
	}

	if err := svc.RestoreDeliverable("org_1", d, "staff@example.com"); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	if d.Status != StatusDraft || d.CanceledAt != nil || d.CanceledBy != "" {
		t.Errorf("Expected draft with cleared markers, got %s at=%v by=%q", d.Status, d.CanceledAt, d.CanceledBy)
	}

	delivered := seedDeliverable(t, svc, deal, StatusDelivered)
	if err := svc.CancelDeliverable("org_1", delivered, "staff@example.com"); !stderrors.Is(err, errors.ErrGuardViolation) {
		t.Fatalf("Expected guard violation canceling delivered work, got %v", err)
	}
}

func TestAdvanceAfterPortalProof(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	posted := seedDeliverable(t, svc, deal, StatusPosted)
	if err := svc.AdvanceAfterPortalProof(posted); err != nil {
		t.Fatalf("Failed to advance: %v", err)
	}
	if posted.Status != StatusProofed {
		t.Errorf("Expected proofed, got %s", posted.Status)
	}

	approved := seedDeliverable(t, svc, deal, StatusApproved)
	if err := svc.AdvanceAfterPortalProof(approved); err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("Expected approved untouched, got %s", approved.Status)
	}
}

func TestBrandKitLifecycle(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	bk, err := svc.GetOrCreateBrandKit(deal)
	if err != nil {
		t.Fatalf("Failed to create brand kit: %v", err)
	}
	if bk.DealID != deal.ID || bk.Hashtags == nil {
		t.Errorf("Expected empty kit bound to deal, got %+v", bk)
	}

	again, err := svc.GetOrCreateBrandKit(deal)
	if err != nil {
		t.Fatalf("Failed second read: %v", err)
	}
	if again.ID != bk.ID {
		t.Error("Expected the same kit on repeat reads")
	}

	updated, err := svc.UpdateBrandKit(deal, BrandKitUpdate{
		GuidelinesMD: "# Always tag @acme",
		Hashtags:     []string{"#AcmePartner"},
	}, "staff@example.com")
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if updated.GuidelinesMD != "# Always tag @acme" || len(updated.Hashtags) != 1 {
		t.Errorf("Expected updated kit, got %+v", updated)
	}
	if updated.RequiredTags == nil || updated.Do == nil {
		t.Error("Expected omitted lists to come back empty, not nil")
	}
}

func TestDeliverableDueDateValidation(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	t.Run("Create Rejects Bad Date", func(t *testing.T) {
		for _, due := range []string{"", "soonish", "01/10/2025"} {
			_, err := svc.CreateDeliverable(deal, DeliverableCreate{
				Title:   "TikTok #1",
				Type:    "tiktok",
				DueDate: due,
			}, "staff@example.com")
			if !stderrors.Is(err, errors.ErrGuardViolation) {
				t.Errorf("due_date %q: expected ErrGuardViolation, got %v", due, err)
			}
		}
	})

	t.Run("Update Rejects Bad Date", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusDraft)
		_, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{DueDate: strPtr("")}, "staff@example.com")
		if !stderrors.Is(err, errors.ErrGuardViolation) {
			t.Fatalf("Expected ErrGuardViolation, got %v", err)
		}

		stored, err := svc.repo.GetDeliverable(d.ID)
		if err != nil {
			t.Fatalf("GetDeliverable: %v", err)
		}
		if stored.DueDate != "2025-01-10" {
			t.Errorf("Due date must be unchanged after rejection, got %q", stored.DueDate)
		}
	})

	t.Run("Update Accepts Valid Date", func(t *testing.T) {
		d := seedDeliverable(t, svc, deal, StatusDraft)
		updated, err := svc.UpdateDeliverable("org_1", d, DeliverableUpdate{DueDate: strPtr("2025-02-20")}, "staff@example.com")
		if err != nil {
			t.Fatalf("UpdateDeliverable failed: %v", err)
		}
		if updated.DueDate != "2025-02-20" {
			t.Errorf("Expected due date 2025-02-20, got %q", updated.DueDate)
		}
	})
}
