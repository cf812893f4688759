package models

// Dates (start_date, end_date, due_date) are stored as ISO "2006-01-02"
// strings; timestamps are unix seconds.

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Rank         string `json:"rank"` // admin|superadmin
	CreatedAt    int64  `json:"created_at"`
}

type Membership struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"` // viewer|editor|manager|org_admin
	CreatedAt      int64  `json:"created_at"`
}

type Sponsor struct {
	ID                   string `json:"id"`
	OrganizationID       string `json:"organization_id"`
	Name                 string `json:"name"`
	ContactEmail         string `json:"contact_email,omitempty"`
	ArchivedAt           *int64 `json:"archived_at,omitempty"`
	PortalToken          string `json:"portal_token"`
	PortalTokenRevoked   bool   `json:"portal_token_revoked"`
	PortalTokenExpiresAt *int64 `json:"portal_token_expires_at,omitempty"`
	CreatedAt            int64  `json:"created_at"`
}

type Deal struct {
	ID                   string   `json:"id"`
	OrganizationID       string   `json:"organization_id"`
	SponsorID            string   `json:"sponsor_id"`
	Name                 string   `json:"name"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	TotalValue           *float64 `json:"total_value,omitempty"`
	Status               string   `json:"status"`
	CompletedAt          *int64   `json:"completed_at,omitempty"`
	ArchivedAt           *int64   `json:"archived_at,omitempty"`
	GuaranteeCapPct      float64  `json:"guarantee_cap_pct"`
	CureDays             int      `json:"cure_days"`
	PortalToken          string   `json:"portal_token"`
	PortalTokenRevoked   bool     `json:"portal_token_revoked"`
	PortalTokenExpiresAt *int64   `json:"portal_token_expires_at,omitempty"`
	CreatedAt            int64    `json:"created_at"`
}

type BrandKit struct {
	ID           string   `json:"id"`
	DealID       string   `json:"deal_id"`
	GuidelinesMD string   `json:"guidelines_md"`
	Hashtags     []string `json:"hashtags"`
	RequiredTags []string `json:"required_tags"`
	Do           []string `json:"do"`
	Dont         []string `json:"dont"`
	Assets       []string `json:"assets"`
	UpdatedAt    int64    `json:"updated_at"`
}

type Deliverable struct {
	ID                      string   `json:"id"`
	DealID                  string   `json:"deal_id"`
	Title                   string   `json:"title"`
	Type                    string   `json:"type"`
	DueDate                 string   `json:"due_date"`
	Status                  string   `json:"status"`
	ArchivedAt              *int64   `json:"archived_at,omitempty"`
	CanceledAt              *int64   `json:"canceled_at,omitempty"`
	CanceledBy              string   `json:"canceled_by,omitempty"`
	DeliveredAt             *int64   `json:"delivered_at,omitempty"`
	DeliveredBy             string   `json:"delivered_by,omitempty"`
	DeliveredOverrideNote   string   `json:"delivered_override_note,omitempty"`
	Owner                   string   `json:"owner,omitempty"`
	AssigneeUserID          string   `json:"assignee_user_id,omitempty"`
	SponsorApprovalRequired bool     `json:"sponsor_approval_required"`
	SponsorApprovedAt       *int64   `json:"sponsor_approved_at,omitempty"`
	SponsorApprovedBy       string   `json:"sponsor_approved_by,omitempty"`
	Guaranteed              bool     `json:"guaranteed"`
	Value                   *float64 `json:"value,omitempty"`
	Brief                   string   `json:"brief,omitempty"`
	CreatedAt               int64    `json:"created_at"`
}

type Proof struct {
	ID            string `json:"id"`
	DeliverableID string `json:"deliverable_id"`
	Kind          string `json:"kind"` // link|file
	URL           string `json:"url,omitempty"`
	Note          string `json:"note,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

type DeliverableComment struct {
	ID            string `json:"id"`
	DeliverableID string `json:"deliverable_id"`
	Author        string `json:"author"`
	Body          string `json:"body"`
	CreatedAt     int64  `json:"created_at"`
}

type Ticket struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	SponsorID      string `json:"sponsor_id"`
	DealID         string `json:"deal_id,omitempty"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	SLADueAt       *int64 `json:"sla_due_at,omitempty"`
	ArchivedAt     *int64 `json:"archived_at,omitempty"`
	LastReplyAt    *int64 `json:"last_reply_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

type TicketMessage struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id"`
	Sender    string `json:"sender"` // sponsor|admin
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

type Claim struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	DealID         string   `json:"deal_id"`
	DeliverableID  string   `json:"deliverable_id"`
	Reason         string   `json:"reason"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status"`
	PayoutType     string   `json:"payout_type,omitempty"`
	PayoutAmount   *float64 `json:"payout_amount,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	ArchivedAt     *int64   `json:"archived_at,omitempty"`
	CreatedAt      int64    `json:"created_at"`
}

type Activity struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	DealID         string `json:"deal_id,omitempty"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id,omitempty"`
	Action         string `json:"action"`
	Summary        string `json:"summary"`
	Actor          string `json:"actor,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

type Notification struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Kind           string `json:"kind"` // overdue|due_soon
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link,omitempty"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      int64  `json:"created_at"`
}
