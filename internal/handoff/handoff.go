// Package handoff turns a qualified lead into a structured brief and a
// booking inquiry for the downstream booking workflow.
package handoff

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digital-duende/leadfinder/internal/model"
)

// Brief is the structured summary handed to the booking workflow.
type Brief struct {
	LeadID         string           `json:"lead_id"`
	EntityName     string           `json:"entity_name"`
	EntityType     model.EntityType `json:"entity_type"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	SourceURL      string           `json:"source_url"`
	Email          string           `json:"email"`
	ContactFormURL string           `json:"contact_form_url"`
	Phone          string           `json:"phone"`
	Instagram      string           `json:"instagram_handle"`
	Score          int              `json:"lead_score"`
	ScoreReason    string           `json:"score_reason"`
	Notes          string           `json:"notes"`
	ContactName    string           `json:"contact_name"`
	Role           string           `json:"role"`
	EventTypesSeen []string         `json:"event_types_seen"`
	MusicFitTags   []string         `json:"music_fit_tags"`
	SuggestedAngle string           `json:"suggested_angle"`
	Summary        string           `json:"brief"`
}

// ValidateReady reports whether a lead has the minimum fields for handoff
// and which ones are missing.
func ValidateReady(lead *model.Lead) (bool, []string) {
	var missing []string
	if lead.EntityName == "" {
		missing = append(missing, "entity_name")
	}
	if lead.EntityType == "" {
		missing = append(missing, "entity_type")
	}
	if lead.City == "" && lead.State == "" {
		missing = append(missing, "city/state")
	}
	if lead.SourceURL == "" {
		missing = append(missing, "source_url")
	}
	if !lead.HasContactPath() {
		missing = append(missing, "contact method (email/form/phone/IG)")
	}
	if lead.ScoreReason == "" {
		missing = append(missing, "score_reason")
	}
	return len(missing) == 0, missing
}

// Generate builds the handoff brief for a lead.
func Generate(lead *model.Lead) *Brief {
	return &Brief{
		LeadID:         lead.LeadID,
		EntityName:     lead.EntityName,
		EntityType:     lead.EntityType,
		City:           lead.City,
		State:          lead.State,
		SourceURL:      lead.SourceURL,
		Email:          lead.Email,
		ContactFormURL: lead.ContactFormURL,
		Phone:          lead.Phone,
		Instagram:      lead.InstagramHandle,
		Score:          lead.Score,
		ScoreReason:    lead.ScoreReason,
		Notes:          lead.Notes,
		ContactName:    lead.ContactName,
		Role:           lead.Role,
		EventTypesSeen: lead.EventTypesSeen,
		MusicFitTags:   lead.MusicFitTags,
		SuggestedAngle: suggestAngle(lead),
		Summary:        summarize(lead),
	}
}

// ToBookingInquiry converts a lead plus its brief into the work item the
// booking workflow consumes.
func ToBookingInquiry(lead *model.Lead, brief *Brief, now time.Time) *model.BookingInquiry {
	client := lead.ContactName
	if client == "" {
		client = lead.EntityName
	}
	attendance := 0
	if lead.CapacityEstimate != nil {
		attendance = *lead.CapacityEstimate
	}
	budget := ""
	if lead.BudgetSignal != model.BudgetUnknown {
		budget = string(lead.BudgetSignal)
	}
	address := lead.City
	if lead.State != "" {
		address += ", " + lead.State
	}

	return &model.BookingInquiry{
		ID:              uuid.New().String(),
		OwnerID:         lead.OwnerID,
		LeadID:          lead.LeadID,
		ClientName:      client,
		Org:             lead.EntityName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		VenueName:       lead.EntityName,
		Address:         address,
		EventKind:       eventKindFor(lead.EntityType),
		Attendance:      attendance,
		BudgetRange:     budget,
		VibeDescription: strings.Join(lead.MusicFitTags, ", "),
		Questions: []string{
			"What dates are you looking for DJ entertainment?",
			"What type of event/night are you planning?",
			"Suggested outreach angle: " + brief.SuggestedAngle,
		},
		RawInquiry: rawInquiry(lead, brief),
		CreatedAt:  now.UTC(),
	}
}

func eventKindFor(t model.EntityType) string {
	switch t {
	case model.TypeHotel, model.TypeEventSpace:
		return "corporate"
	case model.TypeFestival:
		return "festival"
	default:
		return "other"
	}
}

// summarize writes the 2-4 sentence plain-language brief.
func summarize(lead *model.Lead) string {
	var parts []string

	typeLabel := strings.ReplaceAll(string(lead.EntityType), "_", " ")
	where := lead.City
	if where == "" {
		where = "the area"
	}
	if lead.State != "" {
		where += ", " + lead.State
	}
	parts = append(parts, fmt.Sprintf("%s is a %s in %s.", lead.EntityName, typeLabel, where))

	if len(lead.EventTypesSeen) > 0 {
		parts = append(parts, "They host "+joinTop(lead.EventTypesSeen, 3)+".")
	} else if len(lead.MusicFitTags) > 0 {
		parts = append(parts, "Their vibe aligns with "+joinTop(lead.MusicFitTags, 3)+".")
	}

	if lead.ContactName != "" && lead.Role != "" {
		parts = append(parts, fmt.Sprintf("Contact %s (%s) via %s.", lead.ContactName, lead.Role, bestContactMethod(lead)))
	} else if lead.Email != "" || lead.ContactFormURL != "" {
		parts = append(parts, "Reachable via "+bestContactMethod(lead)+".")
	}

	if lead.CapacityEstimate != nil {
		parts = append(parts, fmt.Sprintf("Estimated capacity: %d.", *lead.CapacityEstimate))
	}
	return strings.Join(parts, " ")
}

// suggestAngle maps observed event programming to an outreach pitch, most
// specific match first, falling back to an entity-type default.
func suggestAngle(lead *model.Lead) string {
	types := lowerAll(lead.EventTypesSeen)
	tags := lowerAll(lead.MusicFitTags)

	switch {
	case anyContains(types, "dj night", "latin night"):
		return "weekday residency"
	case anyContains(types, "private event", "private party"):
		return "private events package"
	case anyContains(types, "corporate"):
		return "corporate entertainment package"
	case anyContains(types, "pool party", "day party"):
		return "weekend day party series"
	case anyContains(types, "holiday"):
		return "seasonal holiday events"
	case anyContains(types, "charity", "gala", "fundraiser"):
		return "charity/gala entertainment"
	case anyContains(tags, "latin", "reggaeton", "salsa"):
		return "Latin night programming"
	}

	switch lead.EntityType {
	case model.TypeClub, model.TypeLounge, model.TypeRooftop:
		return "branded party / residency"
	case model.TypeHotel:
		return "hotel events & poolside entertainment"
	case model.TypeRestaurant, model.TypeBar:
		return "weekly live DJ entertainment"
	case model.TypeEventSpace:
		return "event entertainment partner"
	case model.TypeBreweryWinery:
		return "weekend tasting room entertainment"
	default:
		return "entertainment partnership"
	}
}

func bestContactMethod(lead *model.Lead) string {
	switch {
	case lead.Email != "":
		return fmt.Sprintf("email (%s)", lead.Email)
	case lead.ContactFormURL != "":
		return "their contact form"
	case lead.Phone != "":
		return fmt.Sprintf("phone (%s)", lead.Phone)
	case lead.InstagramHandle != "":
		return fmt.Sprintf("Instagram (@%s)", lead.InstagramHandle)
	default:
		return "unknown"
	}
}

func rawInquiry(lead *model.Lead, brief *Brief) string {
	lines := []string{
		"[Lead Finder Handoff]",
		"Venue: " + lead.EntityName,
		"Type: " + strings.ReplaceAll(string(lead.EntityType), "_", " "),
		"City: " + orNA(lead.City) + stateSuffix(lead.State),
		"",
		"Brief: " + brief.Summary,
		"Suggested Angle: " + brief.SuggestedAngle,
		"",
		"Contact: " + orNA(lead.ContactName) + roleSuffix(lead.Role),
		"Email: " + orNA(lead.Email),
		"Phone: " + orNA(lead.Phone),
		"Instagram: " + igOrNA(lead.InstagramHandle),
		"Contact Form: " + orNA(lead.ContactFormURL),
		"",
		fmt.Sprintf("Score: %d/100 (%s)", lead.Score, lead.Priority),
		"Score Reason: " + lead.ScoreReason,
	}
	if len(lead.EventTypesSeen) > 0 {
		lines = append(lines, "Event Types Seen: "+strings.Join(lead.EventTypesSeen, ", "))
	}
	if len(lead.MusicFitTags) > 0 {
		lines = append(lines, "Music Fit: "+strings.Join(lead.MusicFitTags, ", "))
	}
	if lead.CapacityEstimate != nil {
		lines = append(lines, fmt.Sprintf("Capacity: ~%d", *lead.CapacityEstimate))
	}
	lines = append(lines,
		"",
		"Source: "+lead.SourceURL,
		"Website: "+orNA(lead.WebsiteURL),
	)
	return strings.Join(lines, "\n")
}

func joinTop(values []string, n int) string {
	if len(values) < n {
		n = len(values)
	}
	return strings.Join(values[:n], ", ")
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func anyContains(values []string, needles ...string) bool {
	for _, v := range values {
		for _, n := range needles {
			if strings.Contains(v, n) {
				return true
			}
		}
	}
	return false
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func igOrNA(handle string) string {
	if handle == "" {
		return "N/A"
	}
	return "@" + handle
}

func stateSuffix(state string) string {
	if state == "" {
		return ""
	}
	return ", " + state
}

func roleSuffix(role string) string {
	if role == "" {
		return ""
	}
	return " (" + role + ")"
}
