package audit

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sponsorops/internal/platform/models"
)

// Logger appends to the activities table. Entries are write-once: there is
// no update or delete path anywhere in this package, and nothing reads
// them for authorization decisions.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

type Entry struct {
	OrgID      string
	DealID     string
	EntityType string
	EntityID   string
	Action     string
	Summary    string
	Actor      string
}

// Record writes one immutable activity row. Failures are logged, not
// propagated: the business mutation has already committed.
func (l *Logger) Record(e Entry) {
	_, err := l.db.Exec(`
		INSERT INTO activities (id, organization_id, deal_id, entity_type, entity_id, action, summary, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, "act_"+uuid.NewString(), e.OrgID, nullable(e.DealID), e.EntityType, nullable(e.EntityID), e.Action, e.Summary, nullable(e.Actor), time.Now().Unix())
	if err != nil {
		log.Error().Err(err).Str("action", e.Action).Str("entity_type", e.EntityType).Msg("failed to record activity")
	}
}

func (l *Logger) List(orgID, dealID string, limit int) ([]*models.Activity, error) {
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT id, organization_id, deal_id, entity_type, entity_id, action, summary, actor, created_at
		FROM activities WHERE organization_id = ?`
	args := []interface{}{orgID}
	if dealID != "" {
		query += ` AND deal_id = ?`
		args = append(args, dealID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		var dealID, entityID, actor sql.NullString
		if err := rows.Scan(&a.ID, &a.OrganizationID, &dealID, &a.EntityType, &entityID, &a.Action, &a.Summary, &actor, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.DealID = dealID.String
		a.EntityID = entityID.String
		a.Actor = actor.String
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
