package notify

import (
	"database/sql"
	"testing"
	"time"

	"sponsorops/internal/platform/database"
	"sponsorops/internal/platform/models"
)

type fakeDeliverables struct {
	items []*models.Deliverable
}

func (f *fakeDeliverables) OpenDeliverablesByOrg(orgID string) ([]*models.Deliverable, error) {
	return f.items, nil
}

func newTestService(t *testing.T, source *fakeDeliverables) *Service {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewService(NewRepository(db), source)
	// "today" is 2025-01-15
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSync(t *testing.T) {
	source := &fakeDeliverables{items: []*models.Deliverable{
		{ID: "dlv_late", DealID: "deal_1", Title: "TikTok #1", DueDate: "2025-01-10"},
		{ID: "dlv_soon", DealID: "deal_1", Title: "Stream Mention", DueDate: "2025-01-17"},
		{ID: "dlv_far", DealID: "deal_2", Title: "Recap Post", DueDate: "2025-03-01"},
	}}
	svc := newTestService(t, source)

	created, err := svc.Sync("org_1", "usr_1", 3)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("Expected 2 notifications (overdue + due soon), got %d", created)
	}

	list, err := svc.repo.ListByUser("org_1", "usr_1", 50)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	byKind := make(map[string]*models.Notification)
	for _, n := range list {
		byKind[n.Kind] = n
	}

	overdue := byKind[KindOverdue]
	if overdue == nil || overdue.Title != "Overdue: TikTok #1" {
		t.Fatalf("Expected overdue notification, got %+v", overdue)
	}
	if overdue.Link != "/deals/deal_1" {
		t.Errorf("Expected deal link, got %s", overdue.Link)
	}

	soon := byKind[KindDueSoon]
	if soon == nil || soon.Title != "Due soon: Stream Mention" {
		t.Fatalf("Expected due-soon notification, got %+v", soon)
	}
}

func TestSync_Idempotent(t *testing.T) {
	source := &fakeDeliverables{items: []*models.Deliverable{
		{ID: "dlv_late", DealID: "deal_1", Title: "TikTok #1", DueDate: "2025-01-10"},
	}}
	svc := newTestService(t, source)

	if created, err := svc.Sync("org_1", "usr_1", 3); err != nil || created != 1 {
		t.Fatalf("First sync: created=%d err=%v", created, err)
	}
	if created, err := svc.Sync("org_1", "usr_1", 3); err != nil || created != 0 {
		t.Fatalf("Second sync must create nothing: created=%d err=%v", created, err)
	}

	// dedup only spans unread; once read, the reminder comes back
	unread, err := svc.repo.ListUnread("org_1", "usr_1")
	if err != nil {
		t.Fatalf("ListUnread: %v", err)
	}
	ids := []string{unread[0].ID}
	updated, err := svc.repo.MarkRead("org_1", "usr_1", ids)
	if err != nil || updated != 1 {
		t.Fatalf("MarkRead: updated=%d err=%v", updated, err)
	}

	if created, err := svc.Sync("org_1", "usr_1", 3); err != nil || created != 1 {
		t.Fatalf("Sync after read should re-create: created=%d err=%v", created, err)
	}
}

func TestSync_DuplicateTitlesCollapse(t *testing.T) {
	// two deliverables with the same title produce one unread reminder
	source := &fakeDeliverables{items: []*models.Deliverable{
		{ID: "dlv_a", DealID: "deal_1", Title: "TikTok #1", DueDate: "2025-01-10"},
		{ID: "dlv_b", DealID: "deal_2", Title: "TikTok #1", DueDate: "2025-01-08"},
	}}
	svc := newTestService(t, source)

	created, err := svc.Sync("org_1", "usr_1", 3)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if created != 1 {
		t.Errorf("Expected 1 notification for duplicate (kind, title), got %d", created)
	}
}

func TestSync_ScopedToUser(t *testing.T) {
	source := &fakeDeliverables{items: []*models.Deliverable{
		{ID: "dlv_late", DealID: "deal_1", Title: "TikTok #1", DueDate: "2025-01-10"},
	}}
	svc := newTestService(t, source)

	if _, err := svc.Sync("org_1", "usr_1", 3); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if created, err := svc.Sync("org_1", "usr_2", 3); err != nil || created != 1 {
		t.Fatalf("Another user gets their own reminder: created=%d err=%v", created, err)
	}

	other, err := svc.repo.ListByUser("org_1", "usr_2", 50)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("Expected 1 notification for usr_2, got %d", len(other))
	}
}

func TestSync_SkipsUnparseableDueDates(t *testing.T) {
	source := &fakeDeliverables{items: []*models.Deliverable{
		{ID: "dlv_blank", DealID: "deal_1", Title: "No Date Yet", DueDate: ""},
		{ID: "dlv_junk", DealID: "deal_1", Title: "Bad Date", DueDate: "soonish"},
		{ID: "dlv_late", DealID: "deal_1", Title: "TikTok #1", DueDate: "2025-01-10"},
	}}
	svc := newTestService(t, source)

	created, err := svc.Sync("org_1", "usr_1", 3)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("Expected only the dated deliverable to remind, got %d", created)
	}

	list, err := svc.repo.ListByUser("org_1", "usr_1", 50)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Overdue: TikTok #1" {
		t.Fatalf("Expected a single overdue reminder, got %+v", list)
	}
}
