package deals

// Deal statuses. Anything outside this set is a tenant-defined
// intermediate status and passes through update untouched; only the
// transitions below carry guards.
const (
	DealDraft     = "draft"
	DealActive    = "active"
	DealCompleted = "completed"
	DealArchived  = "archived"
)

// Deliverable statuses.
const (
	StatusDraft          = "draft"
	StatusInProgress     = "in_progress"
	StatusSubmitted      = "submitted"
	StatusNeedsChanges   = "needs_changes"
	StatusSponsorReview  = "sponsor_review"
	StatusInternalReview = "internal_review"
	StatusApproved       = "approved"
	StatusDelivered      = "delivered"
	StatusCanceled       = "canceled"

	// portal-driven intermediates
	StatusPosted  = "posted"
	StatusProofed = "proofed"
)

var deliverableStatuses = map[string]bool{
	StatusDraft:          true,
	StatusInProgress:     true,
	StatusSubmitted:      true,
	StatusNeedsChanges:   true,
	StatusSponsorReview:  true,
	StatusInternalReview: true,
	StatusApproved:       true,
	StatusDelivered:      true,
	StatusCanceled:       true,
	StatusPosted:         true,
	StatusProofed:        true,
}

func ValidDeliverableStatus(status string) bool {
	return deliverableStatuses[status]
}

// preApproval holds the states from which a sponsor approval timestamp
// auto-transitions the deliverable to approved.
var preApproval = map[string]bool{
	StatusDraft:          true,
	StatusInProgress:     true,
	StatusSubmitted:      true,
	StatusNeedsChanges:   true,
	StatusSponsorReview:  true,
	StatusInternalReview: true,
}

func inPreApproval(status string) bool {
	return preApproval[status]
}

// DeliverableOpen reports whether a deliverable still counts against deal
// completion and notification synthesis.
func DeliverableOpen(status string) bool {
	return status != StatusDelivered && status != StatusCanceled
}
