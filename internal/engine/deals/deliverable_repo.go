package deals

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

const deliverableColumns = `id, deal_id, title, type, due_date, status, archived_at,
	canceled_at, canceled_by, delivered_at, delivered_by, delivered_override_note,
	owner, assignee_user_id, sponsor_approval_required, sponsor_approved_at,
	sponsor_approved_by, guaranteed, value, brief, created_at`

func scanDeliverable(row interface{ Scan(...interface{}) error }) (*models.Deliverable, error) {
	d := &models.Deliverable{}
	var canceledBy, deliveredBy, overrideNote, owner, assignee, approvedBy, brief sql.NullString
	err := row.Scan(&d.ID, &d.DealID, &d.Title, &d.Type, &d.DueDate, &d.Status, &d.ArchivedAt,
		&d.CanceledAt, &canceledBy, &d.DeliveredAt, &deliveredBy, &overrideNote,
		&owner, &assignee, &d.SponsorApprovalRequired, &d.SponsorApprovedAt,
		&approvedBy, &d.Guaranteed, &d.Value, &brief, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.CanceledBy = canceledBy.String
	d.DeliveredBy = deliveredBy.String
	d.DeliveredOverrideNote = overrideNote.String
	d.Owner = owner.String
	d.AssigneeUserID = assignee.String
	d.SponsorApprovedBy = approvedBy.String
	d.Brief = brief.String
	return d, nil
}

func collectDeliverables(rows *sql.Rows) ([]*models.Deliverable, error) {
	var items []*models.Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *Repository) CreateDeliverable(d *models.Deliverable) error {
	_, err := r.db.Exec(`
		INSERT INTO deliverables (`+deliverableColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.DealID, d.Title, d.Type, d.DueDate, d.Status, d.ArchivedAt,
		d.CanceledAt, nullable(d.CanceledBy), d.DeliveredAt, nullable(d.DeliveredBy), nullable(d.DeliveredOverrideNote),
		nullable(d.Owner), nullable(d.AssigneeUserID), d.SponsorApprovalRequired, d.SponsorApprovedAt,
		nullable(d.SponsorApprovedBy), d.Guaranteed, d.Value, nullable(d.Brief), d.CreatedAt)
	return err
}

func (r *Repository) GetDeliverable(id string) (*models.Deliverable, error) {
	row := r.db.QueryRow(`SELECT `+deliverableColumns+` FROM deliverables WHERE id = ?`, id)
	return scanDeliverable(row)
}

func (r *Repository) ListDeliverables(dealID string, includeArchived bool) ([]*models.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE deal_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY due_date ASC`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeliverables(rows)
}

func (r *Repository) UpdateDeliverable(d *models.Deliverable) error {
	_, err := r.db.Exec(`
		UPDATE deliverables SET title = ?, type = ?, due_date = ?, status = ?,
			archived_at = ?, canceled_at = ?, canceled_by = ?,
			delivered_at = ?, delivered_by = ?, delivered_override_note = ?,
			owner = ?, assignee_user_id = ?, sponsor_approval_required = ?,
			sponsor_approved_at = ?, sponsor_approved_by = ?,
			guaranteed = ?, value = ?, brief = ?
		WHERE id = ?
	`, d.Title, d.Type, d.DueDate, d.Status,
		d.ArchivedAt, d.CanceledAt, nullable(d.CanceledBy),
		d.DeliveredAt, nullable(d.DeliveredBy), nullable(d.DeliveredOverrideNote),
		nullable(d.Owner), nullable(d.AssigneeUserID), d.SponsorApprovalRequired,
		d.SponsorApprovedAt, nullable(d.SponsorApprovedBy),
		d.Guaranteed, d.Value, nullable(d.Brief), d.ID)
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
