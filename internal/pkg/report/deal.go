// Package report renders the printable deal summary handed to sponsors
// and account managers.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"sponsorops/internal/platform/models"
)

// DealReport holds everything the PDF needs, gathered by the caller so
// this package stays free of storage concerns.
type DealReport struct {
	Deal         *models.Deal
	Deliverables []*models.Deliverable
	ProofCounts  map[string]int
	Claims       []*models.Claim
}

// RenderDeal produces the deal summary PDF: header, guarantee terms, then
// a line per deliverable and per claim.
func RenderDeal(r DealReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Sponsor Ops Report: "+r.Deal.Name)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Dates: %s - %s", r.Deal.StartDate, r.Deal.EndDate))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Guarantee cap: %.0f%% | cure %d days", r.Deal.GuaranteeCapPct*100, r.Deal.CureDays))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Deliverables")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	for _, d := range r.Deliverables {
		line := fmt.Sprintf("- [%s] %s (%s) due %s | proofs: %d",
			d.Status, d.Title, d.Type, d.DueDate, r.ProofCounts[d.ID])
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Claims")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	if len(r.Claims) == 0 {
		pdf.Cell(0, 5, "No claims submitted.")
		pdf.Ln(5)
	}
	for _, c := range r.Claims {
		payout := "-"
		if c.PayoutAmount != nil {
			payout = fmt.Sprintf("%s:%.2f", c.PayoutType, *c.PayoutAmount)
		}
		line := fmt.Sprintf("- [%s] deliverable=%s reason=%s payout=%s",
			c.Status, c.DeliverableID, c.Reason, payout)
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
