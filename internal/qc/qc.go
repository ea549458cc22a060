// Package qc runs the quality gate: hard issues block automated
// persistence, warnings travel with the lead.
package qc

import (
	"fmt"
	"strings"

	"github.com/digital-duende/leadfinder/internal/model"
)

// lowScoreWarning is the score below which a pass still gets flagged.
const lowScoreWarning = 30

// irrelevantKeywords mark businesses that match venue search terms but are
// not bookable venues: gear vendors, competing schools, and excluded or
// off-limits trades.
var irrelevantKeywords = []string{
	"dj equipment", "dj gear", "dj supplies", "dj store",
	"music store", "instrument store", "guitar center",
	"equipment rental", "audio rental",
	"dj school", "dj academy", "dj course", "dj class",
	"wedding chapel", "wedding planner",
	"funeral", "mortuary", "cemetery",
}

// Result is the gate verdict for one lead.
type Result struct {
	Passed   bool     `json:"passed"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// Check evaluates a lead. Issues are hard defects that block persistence
// in automated flows; warnings accompany a saved lead without blocking it.
func Check(lead *model.Lead) Result {
	var issues, warnings []string

	if !lead.HasContactPath() {
		issues = append(issues, "no contact path found (need email, contact form, phone, or Instagram)")
	}

	if !lead.HasPresence() {
		issues = append(issues, "no web or social presence found")
	}

	combined := strings.ToLower(lead.EntityName + " " + lead.Notes + " " + lead.RawSnippet)
	for _, kw := range irrelevantKeywords {
		if strings.Contains(combined, kw) {
			issues = append(issues, fmt.Sprintf("possibly irrelevant: matched %q", kw))
			break
		}
	}

	if strings.TrimSpace(lead.EntityName) == "" {
		issues = append(issues, "missing entity name")
	}

	if lead.Score < lowScoreWarning {
		warnings = append(warnings, fmt.Sprintf("low score (%d/100), may not be worth pursuing", lead.Score))
	}
	if len(lead.EventTypesSeen) == 0 {
		warnings = append(warnings, "no event types detected, may need manual review")
	}
	if lead.Email == "" && lead.ContactFormURL == "" {
		warnings = append(warnings, "no email or contact form, outreach limited to phone/social")
	}
	if strings.TrimSpace(lead.City) == "" {
		warnings = append(warnings, "city not identified")
	}
	if lead.CapacityEstimate == nil {
		warnings = append(warnings, "capacity estimate missing")
	}
	if lead.Confidence == model.ConfidenceLow {
		warnings = append(warnings, "low confidence tier")
	}

	return Result{
		Passed:   len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
	}
}
