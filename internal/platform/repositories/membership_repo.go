package repositories

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(m *models.Membership) error {
	_, err := r.db.Exec(`
		INSERT INTO memberships (id, organization_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.OrganizationID, m.UserID, m.Role, m.CreatedAt)
	return err
}

func (r *MembershipRepository) Get(orgID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, user_id, role, created_at
		FROM memberships WHERE organization_id = ? AND user_id = ?
	`, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListByUser returns the user's memberships ordered by organization id so
// the first row is the stable tenant default.
func (r *MembershipRepository) ListByUser(userID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, user_id, role, created_at
		FROM memberships WHERE user_id = ? ORDER BY organization_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *MembershipRepository) ListByOrg(orgID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, user_id, role, created_at
		FROM memberships WHERE organization_id = ? ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
