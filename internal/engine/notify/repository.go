package notify

import (
	"database/sql"
	"strings"

	"sponsorops/internal/platform/models"
)

const notificationColumns = `id, organization_id, user_id, kind, title, body, link, is_read, created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(n *models.Notification) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.OrganizationID, n.UserID, n.Kind, n.Title, n.Body, nullable(n.Link), n.IsRead, n.CreatedAt)
	return err
}

func (r *Repository) ListByUser(orgID, userID string, limit int) ([]*models.Notification, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := r.db.Query(`
		SELECT `+notificationColumns+` FROM notifications
		WHERE organization_id = ? AND user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, orgID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *Repository) ListUnread(orgID, userID string) ([]*models.Notification, error) {
	rows, err := r.db.Query(`
		SELECT `+notificationColumns+` FROM notifications
		WHERE organization_id = ? AND user_id = ? AND is_read = 0
	`, orgID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// MarkRead flips the given notifications to read, scoped to the caller's
// org and user. Returns how many rows actually changed.
func (r *Repository) MarkRead(orgID, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := []interface{}{orgID, userID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.Exec(`
		UPDATE notifications SET is_read = 1
		WHERE organization_id = ? AND user_id = ? AND is_read = 0 AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func collectNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	notifications := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.UserID, &n.Kind, &n.Title, &n.Body,
			&link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Link = link.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
