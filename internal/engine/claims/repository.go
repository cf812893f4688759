package claims

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

const claimColumns = `id, organization_id, deal_id, deliverable_id, reason, description,
	status, payout_type, payout_amount, notes, archived_at, created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(c *models.Claim) error {
	_, err := r.db.Exec(`
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.OrganizationID, c.DealID, c.DeliverableID, c.Reason, nullable(c.Description),
		c.Status, nullable(c.PayoutType), c.PayoutAmount, nullable(c.Notes), c.ArchivedAt, c.CreatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.Claim, error) {
	row := r.db.QueryRow(`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	return scanClaim(row)
}

func (r *Repository) ListByOrg(orgID string, includeArchived bool) ([]*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (r *Repository) ListByDeal(dealID string) ([]*models.Claim, error) {
	rows, err := r.db.Query(`
		SELECT `+claimColumns+` FROM claims
		WHERE deal_id = ?
		ORDER BY created_at DESC
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (r *Repository) Update(c *models.Claim) error {
	_, err := r.db.Exec(`
		UPDATE claims SET
			reason = ?, description = ?, status = ?, payout_type = ?,
			payout_amount = ?, notes = ?, archived_at = ?
		WHERE id = ?
	`, c.Reason, nullable(c.Description), c.Status, nullable(c.PayoutType),
		c.PayoutAmount, nullable(c.Notes), c.ArchivedAt, c.ID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var c models.Claim
	var description, payoutType, notes sql.NullString
	err := row.Scan(&c.ID, &c.OrganizationID, &c.DealID, &c.DeliverableID, &c.Reason, &description,
		&c.Status, &payoutType, &c.PayoutAmount, &notes, &c.ArchivedAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	c.PayoutType = payoutType.String
	c.Notes = notes.String
	return &c, nil
}

func collectClaims(rows *sql.Rows) ([]*models.Claim, error) {
	claims := []*models.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
