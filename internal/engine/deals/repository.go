package deals

import (
	"database/sql"
	"strings"

	"sponsorops/internal/platform/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const dealColumns = `id, organization_id, sponsor_id, name, start_date, end_date,
	total_value, status, completed_at, archived_at, guarantee_cap_pct, cure_days,
	portal_token, portal_token_revoked, portal_token_expires_at, created_at`

func scanDeal(row interface{ Scan(...interface{}) error }) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(&d.ID, &d.OrganizationID, &d.SponsorID, &d.Name, &d.StartDate, &d.EndDate,
		&d.TotalValue, &d.Status, &d.CompletedAt, &d.ArchivedAt, &d.GuaranteeCapPct, &d.CureDays,
		&d.PortalToken, &d.PortalTokenRevoked, &d.PortalTokenExpiresAt, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *Repository) CreateDeal(d *models.Deal) error {
	_, err := r.db.Exec(`
		INSERT INTO deals (`+dealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.OrganizationID, d.SponsorID, d.Name, d.StartDate, d.EndDate,
		d.TotalValue, d.Status, d.CompletedAt, d.ArchivedAt, d.GuaranteeCapPct, d.CureDays,
		d.PortalToken, d.PortalTokenRevoked, d.PortalTokenExpiresAt, d.CreatedAt)
	return err
}

func (r *Repository) GetDeal(id string) (*models.Deal, error) {
	row := r.db.QueryRow(`SELECT `+dealColumns+` FROM deals WHERE id = ?`, id)
	return scanDeal(row)
}

func (r *Repository) GetByPortalToken(token string) (*models.Deal, error) {
	row := r.db.QueryRow(`SELECT `+dealColumns+` FROM deals WHERE portal_token = ?`, token)
	return scanDeal(row)
}

func (r *Repository) ListBySponsor(sponsorID string, includeArchived bool) ([]*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE sponsor_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.db.Query(query, sponsorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeals(rows)
}

func (r *Repository) ListByOrg(orgID string) ([]*models.Deal, error) {
	rows, err := r.db.Query(`SELECT `+dealColumns+` FROM deals WHERE organization_id = ? ORDER BY start_date DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeals(rows)
}

func collectDeals(rows *sql.Rows) ([]*models.Deal, error) {
	var deals []*models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *Repository) UpdateDeal(d *models.Deal) error {
	_, err := r.db.Exec(`
		UPDATE deals SET name = ?, start_date = ?, end_date = ?, total_value = ?,
			status = ?, completed_at = ?, archived_at = ?, guarantee_cap_pct = ?, cure_days = ?
		WHERE id = ?
	`, d.Name, d.StartDate, d.EndDate, d.TotalValue,
		d.Status, d.CompletedAt, d.ArchivedAt, d.GuaranteeCapPct, d.CureDays, d.ID)
	return err
}

// UpdatePortalToken touches only the token triple so rotation never races
// with concurrent field edits on the rest of the row.
func (r *Repository) UpdatePortalToken(d *models.Deal) error {
	_, err := r.db.Exec(`
		UPDATE deals SET portal_token = ?, portal_token_revoked = ?, portal_token_expires_at = ?
		WHERE id = ?
	`, d.PortalToken, d.PortalTokenRevoked, d.PortalTokenExpiresAt, d.ID)
	return err
}

// CountOutstanding counts deliverables blocking deal completion.
func (r *Repository) CountOutstanding(dealID string) (int, error) {
	var n int
	err := r.db.QueryRow(`
		SELECT COUNT(1) FROM deliverables
		WHERE deal_id = ? AND status NOT IN (?, ?)
	`, dealID, StatusDelivered, StatusCanceled).Scan(&n)
	return n, err
}

// OpenDeliverablesByOrg feeds the notification synthesizer: every
// deliverable under the org's sponsors whose status still counts as open.
func (r *Repository) OpenDeliverablesByOrg(orgID string) ([]*models.Deliverable, error) {
	rows, err := r.db.Query(`
		SELECT `+deliverableColumnsPrefixed("d")+`
		FROM deliverables d
		JOIN deals dl ON dl.id = d.deal_id
		JOIN sponsors s ON s.id = dl.sponsor_id
		WHERE s.organization_id = ? AND d.status NOT IN (?, ?)
	`, orgID, StatusDelivered, StatusCanceled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeliverables(rows)
}

func deliverableColumnsPrefixed(alias string) string {
	cols := strings.Split(deliverableColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
