package tickets

import (
	"database/sql"

	"sponsorops/internal/platform/models"
)

const ticketColumns = `id, organization_id, sponsor_id, deal_id, subject, body,
	status, priority, sla_due_at, archived_at, last_reply_at, created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(t *models.Ticket) error {
	_, err := r.db.Exec(`
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrganizationID, t.SponsorID, nullable(t.DealID), t.Subject, t.Body,
		t.Status, t.Priority, t.SLADueAt, t.ArchivedAt, t.LastReplyAt, t.CreatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*models.Ticket, error) {
	row := r.db.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	return scanTicket(row)
}

func (r *Repository) ListByOrg(orgID string, includeArchived bool) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *Repository) ListBySponsor(sponsorID string) ([]*models.Ticket, error) {
	rows, err := r.db.Query(`
		SELECT `+ticketColumns+` FROM tickets
		WHERE sponsor_id = ? AND archived_at IS NULL
		ORDER BY created_at DESC
	`, sponsorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *Repository) ListByDeal(dealID string) ([]*models.Ticket, error) {
	rows, err := r.db.Query(`
		SELECT `+ticketColumns+` FROM tickets
		WHERE deal_id = ? AND archived_at IS NULL
		ORDER BY created_at DESC
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *Repository) Update(t *models.Ticket) error {
	_, err := r.db.Exec(`
		UPDATE tickets SET
			subject = ?, body = ?, status = ?, priority = ?,
			sla_due_at = ?, archived_at = ?, last_reply_at = ?
		WHERE id = ?
	`, t.Subject, t.Body, t.Status, t.Priority, t.SLADueAt, t.ArchivedAt, t.LastReplyAt, t.ID)
	return err
}

func (r *Repository) CreateMessage(m *models.TicketMessage) error {
	_, err := r.db.Exec(`
		INSERT INTO ticket_messages (id, ticket_id, sender, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.TicketID, m.Sender, m.Message, m.CreatedAt)
	return err
}

func (r *Repository) ListMessages(ticketID string) ([]*models.TicketMessage, error) {
	rows, err := r.db.Query(`
		SELECT id, ticket_id, sender, message, created_at
		FROM ticket_messages
		WHERE ticket_id = ?
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.TicketMessage{}
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Sender, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var dealID sql.NullString
	err := row.Scan(&t.ID, &t.OrganizationID, &t.SponsorID, &dealID, &t.Subject, &t.Body,
		&t.Status, &t.Priority, &t.SLADueAt, &t.ArchivedAt, &t.LastReplyAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.DealID = dealID.String
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*models.Ticket, error) {
	tickets := []*models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
