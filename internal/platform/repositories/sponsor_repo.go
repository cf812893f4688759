package repositories

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

type SponsorRepository struct {
	db *sql.DB
}

func NewSponsorRepository(db *sql.DB) *SponsorRepository {
	return &SponsorRepository{db: db}
}

const sponsorColumns = `id, organization_id, name, contact_email, archived_at,
	portal_token, portal_token_revoked, portal_token_expires_at, created_at`

func scanSponsor(row interface{ Scan(...interface{}) error }) (*models.Sponsor, error) {
	s := &models.Sponsor{}
	var contactEmail sql.NullString
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &contactEmail, &s.ArchivedAt,
		&s.PortalToken, &s.PortalTokenRevoked, &s.PortalTokenExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.ContactEmail = contactEmail.String
	return s, nil
}

func (r *SponsorRepository) Create(s *models.Sponsor) error {
	_, err := r.db.Exec(`
		INSERT INTO sponsors (`+sponsorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrganizationID, s.Name, s.ContactEmail, s.ArchivedAt,
		s.PortalToken, s.PortalTokenRevoked, s.PortalTokenExpiresAt, s.CreatedAt)
	return err
}

func (r *SponsorRepository) GetByID(id string) (*models.Sponsor, error) {
	row := r.db.QueryRow(`SELECT `+sponsorColumns+` FROM sponsors WHERE id = ?`, id)
	return scanSponsor(row)
}

func (r *SponsorRepository) GetByPortalToken(token string) (*models.Sponsor, error) {
	row := r.db.QueryRow(`SELECT `+sponsorColumns+` FROM sponsors WHERE portal_token = ?`, token)
	return scanSponsor(row)
}

func (r *SponsorRepository) ListByOrg(orgID string, includeArchived bool) ([]*models.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sponsors []*models.Sponsor
	for rows.Next() {
		s, err := scanSponsor(rows)
		if err != nil {
			return nil, err
		}
		sponsors = append(sponsors, s)
	}
	return sponsors, rows.Err()
}

func (r *SponsorRepository) Update(s *models.Sponsor) error {
	_, err := r.db.Exec(`
		UPDATE sponsors SET name = ?, contact_email = ?, archived_at = ?,
			portal_token = ?, portal_token_revoked = ?, portal_token_expires_at = ?
		WHERE id = ?
	`, s.Name, s.ContactEmail, s.ArchivedAt,
		s.PortalToken, s.PortalTokenRevoked, s.PortalTokenExpiresAt, s.ID)
	return err
}
