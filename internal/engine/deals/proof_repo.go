package deals

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

const proofColumns = `id, deliverable_id, kind, url, note, file_path, file_name, mime_type, created_at`

func scanProof(row interface{ Scan(...interface{}) error }) (*models.Proof, error) {
	p := &models.Proof{}
	var url, note, filePath, fileName, mimeType sql.NullString
	err := row.Scan(&p.ID, &p.DeliverableID, &p.Kind, &url, &note, &filePath, &fileName, &mimeType, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.URL = url.String
	p.Note = note.String
	p.FilePath = filePath.String
	p.FileName = fileName.String
	p.MimeType = mimeType.String
	return p, nil
}

func (r *Repository) CreateProof(p *models.Proof) error {
	_, err := r.db.Exec(`
		INSERT INTO proofs (`+proofColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.DeliverableID, p.Kind, nullable(p.URL), nullable(p.Note),
		nullable(p.FilePath), nullable(p.FileName), nullable(p.MimeType), p.CreatedAt)
	return err
}

func (r *Repository) GetProof(id string) (*models.Proof, error) {
	row := r.db.QueryRow(`SELECT `+proofColumns+` FROM proofs WHERE id = ?`, id)
	return scanProof(row)
}

func (r *Repository) ListProofs(deliverableID string) ([]*models.Proof, error) {
	rows, err := r.db.Query(`
		SELECT `+proofColumns+` FROM proofs
		WHERE deliverable_id = ? ORDER BY created_at DESC
	`, deliverableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProofs(rows)
}

func (r *Repository) ListProofsByDeal(dealID string) ([]*models.Proof, error) {
	rows, err := r.db.Query(`
		SELECT p.id, p.deliverable_id, p.kind, p.url, p.note, p.file_path, p.file_name, p.mime_type, p.created_at
		FROM proofs p
		JOIN deliverables d ON d.id = p.deliverable_id
		WHERE d.deal_id = ? ORDER BY p.created_at DESC
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProofs(rows)
}

func (r *Repository) CountProofs(deliverableID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM proofs WHERE deliverable_id = ?`, deliverableID).Scan(&n)
	return n, err
}

func collectProofs(rows *sql.Rows) ([]*models.Proof, error) {
	var proofs []*models.Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

func (r *Repository) CreateComment(c *models.DeliverableComment) error {
	_, err := r.db.Exec(`
		INSERT INTO deliverable_comments (id, deliverable_id, author, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.DeliverableID, c.Author, c.Body, c.CreatedAt)
	return err
}

func (r *Repository) ListComments(deliverableID string) ([]*models.DeliverableComment, error) {
	rows, err := r.db.Query(`
		SELECT id, deliverable_id, author, body, created_at
		FROM deliverable_comments WHERE deliverable_id = ? ORDER BY created_at ASC
	`, deliverableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func (r *Repository) ListCommentsByDeal(dealID string) ([]*models.DeliverableComment, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.deliverable_id, c.author, c.body, c.created_at
		FROM deliverable_comments c
		JOIN deliverables d ON d.id = c.deliverable_id
		WHERE d.deal_id = ? ORDER BY c.created_at ASC
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectComments(rows)
}

func collectComments(rows *sql.Rows) ([]*models.DeliverableComment, error) {
	var comments []*models.DeliverableComment
	for rows.Next() {
		c := &models.DeliverableComment{}
		if err := rows.Scan(&c.ID, &c.DeliverableID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
