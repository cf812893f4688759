package database

import "database/sql"

// Schema is applied by cmd/migrate and by test fixtures. No migration
// versioning: the pilot deployment recreates from scratch.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	rank TEXT NOT NULL DEFAULT 'admin',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'manager',
	created_at INTEGER NOT NULL,
	UNIQUE(organization_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id);

CREATE TABLE IF NOT EXISTS sponsors (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	name TEXT NOT NULL,
	contact_email TEXT,
	archived_at INTEGER,
	portal_token TEXT UNIQUE NOT NULL,
	portal_token_revoked INTEGER NOT NULL DEFAULT 0,
	portal_token_expires_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sponsors_org ON sponsors(organization_id);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	sponsor_id TEXT NOT NULL,
	name TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	total_value REAL,
	status TEXT NOT NULL DEFAULT 'draft',
	completed_at INTEGER,
	archived_at INTEGER,
	guarantee_cap_pct REAL NOT NULL DEFAULT 0,
	cure_days INTEGER NOT NULL DEFAULT 0,
	portal_token TEXT UNIQUE NOT NULL,
	portal_token_revoked INTEGER NOT NULL DEFAULT 0,
	portal_token_expires_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deals_org ON deals(organization_id);
CREATE INDEX IF NOT EXISTS idx_deals_sponsor ON deals(sponsor_id);
CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);

CREATE TABLE IF NOT EXISTS brand_kits (
	id TEXT PRIMARY KEY,
	deal_id TEXT UNIQUE NOT NULL,
	guidelines_md TEXT NOT NULL DEFAULT '',
	hashtags TEXT NOT NULL DEFAULT '[]',
	required_tags TEXT NOT NULL DEFAULT '[]',
	do_items TEXT NOT NULL DEFAULT '[]',
	dont_items TEXT NOT NULL DEFAULT '[]',
	assets TEXT NOT NULL DEFAULT '[]',
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS deliverables (
	id TEXT PRIMARY KEY,
	deal_id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	due_date TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	archived_at INTEGER,
	canceled_at INTEGER,
	canceled_by TEXT,
	delivered_at INTEGER,
	delivered_by TEXT,
	delivered_override_note TEXT,
	owner TEXT,
	assignee_user_id TEXT,
	sponsor_approval_required INTEGER NOT NULL DEFAULT 0,
	sponsor_approved_at INTEGER,
	sponsor_approved_by TEXT,
	guaranteed INTEGER NOT NULL DEFAULT 0,
	value REAL,
	brief TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deliverables_deal ON deliverables(deal_id);
CREATE INDEX IF NOT EXISTS idx_deliverables_status ON deliverables(status);

CREATE TABLE IF NOT EXISTS proofs (
	id TEXT PRIMARY KEY,
	deliverable_id TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'link',
	url TEXT,
	note TEXT,
	file_path TEXT,
	file_name TEXT,
	mime_type TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_proofs_deliverable ON proofs(deliverable_id);

CREATE TABLE IF NOT EXISTS deliverable_comments (
	id TEXT PRIMARY KEY,
	deliverable_id TEXT NOT NULL,
	author TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_deliverable ON deliverable_comments(deliverable_id);

CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	sponsor_id TEXT NOT NULL,
	deal_id TEXT,
	subject TEXT NOT NULL,
	body TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	priority TEXT NOT NULL DEFAULT 'normal',
	sla_due_at INTEGER,
	archived_at INTEGER,
	last_reply_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_org ON tickets(organization_id);
CREATE INDEX IF NOT EXISTS idx_tickets_sponsor ON tickets(sponsor_id);

CREATE TABLE IF NOT EXISTS ticket_messages (
	id TEXT PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticket_messages_ticket ON ticket_messages(ticket_id);

CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	deal_id TEXT NOT NULL,
	deliverable_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'submitted',
	payout_type TEXT,
	payout_amount REAL,
	notes TEXT,
	archived_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claims_org ON claims(organization_id);
CREATE INDEX IF NOT EXISTS idx_claims_deal ON claims(deal_id);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	deal_id TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT,
	action TEXT NOT NULL,
	summary TEXT NOT NULL,
	actor TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_org ON activities(organization_id);
CREATE INDEX IF NOT EXISTS idx_activities_deal ON activities(deal_id);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	link TEXT,
	is_read INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(organization_id, user_id);
`

func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
