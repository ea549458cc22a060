package model

import (
	"time"
)

// LeadStatus represents where a lead sits in the review lifecycle.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusQueued    LeadStatus = "queued"
	StatusRejected  LeadStatus = "rejected"
	StatusContacted LeadStatus = "contacted"
	StatusInTalks   LeadStatus = "in_talks"
	StatusBooked    LeadStatus = "booked"
)

// EntityType classifies what kind of business a lead is.
type EntityType string

const (
	TypeClub          EntityType = "club"
	TypeBar           EntityType = "bar"
	TypeLounge        EntityType = "lounge"
	TypeRooftop       EntityType = "rooftop"
	TypeVenue         EntityType = "venue"
	TypeRestaurant    EntityType = "restaurant"
	TypeEventSpace    EntityType = "event_space"
	TypeHotel         EntityType = "hotel"
	TypeBreweryWinery EntityType = "brewery_winery"
	TypeSchool        EntityType = "school"
	TypeStudio        EntityType = "studio"
	TypeEventPlanner  EntityType = "event_planner"
	TypePromoter      EntityType = "promoter"
	TypeFestival      EntityType = "festival"
	TypeOther         EntityType = "other"
)

// Priority buckets a score into the coarse tiers shown to reviewers.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Confidence reflects how much data backed a score, not the score itself.
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

// BudgetSignal is a rough read on a venue's spending power.
type BudgetSignal string

const (
	BudgetLow     BudgetSignal = "low"
	BudgetMed     BudgetSignal = "med"
	BudgetHigh    BudgetSignal = "high"
	BudgetUnknown BudgetSignal = "unknown"
)

// Lead is a prospective business contact discovered, enriched, scored, and
// tracked through the review lifecycle. Every lead is scoped to one owner.
type Lead struct {
	// Identity
	LeadID     string     `json:"lead_id" db:"lead_id"`
	OwnerID    string     `json:"owner_id" db:"owner_id"`
	EntityName string     `json:"entity_name" db:"entity_name"`
	EntityType EntityType `json:"entity_type" db:"entity_type"`
	City       string     `json:"city" db:"city"`
	State      string     `json:"state" db:"state"`
	Neighborhood string   `json:"neighborhood" db:"neighborhood"`
	WebsiteURL string     `json:"website_url" db:"website_url"`
	Source     string     `json:"source" db:"source"`
	SourceURL  string     `json:"source_url" db:"source_url"`
	FoundAt    time.Time  `json:"found_at" db:"found_at"`

	// Contact
	ContactName            string `json:"contact_name" db:"contact_name"`
	Role                   string `json:"role" db:"role"`
	Email                  string `json:"email" db:"email"`
	Phone                  string `json:"phone" db:"phone"`
	ContactFormURL         string `json:"contact_form_url" db:"contact_form_url"`
	InstagramHandle        string `json:"instagram_handle" db:"instagram_handle"`
	FacebookPage           string `json:"facebook_page" db:"facebook_page"`
	PreferredContactMethod string `json:"preferred_contact_method" db:"preferred_contact_method"`

	// Fit signals
	MusicFitTags     []string     `json:"music_fit_tags" db:"music_fit_tags"`
	EventTypesSeen   []string     `json:"event_types_seen" db:"event_types_seen"`
	CapacityEstimate *int         `json:"capacity_estimate,omitempty" db:"capacity_estimate"`
	BudgetSignal     BudgetSignal `json:"budget_signal" db:"budget_signal"`
	Notes            string       `json:"notes" db:"notes"`

	// Derived
	Score       int        `json:"lead_score" db:"lead_score"`
	ScoreReason string     `json:"score_reason" db:"score_reason"`
	Confidence  Confidence `json:"confidence" db:"confidence"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      LeadStatus `json:"status" db:"status"`

	// Dedup & audit
	DedupeKey  string `json:"dedupe_key" db:"dedupe_key"`
	RawSnippet string `json:"raw_snippet" db:"raw_snippet"`
	Trace      string `json:"trace" db:"trace"`
}

// HasContactPath reports whether at least one outreach channel is populated.
func (l *Lead) HasContactPath() bool {
	return l.Email != "" || l.ContactFormURL != "" || l.Phone != "" || l.InstagramHandle != ""
}

// HasPresence reports whether the lead has any web or social footprint.
func (l *Lead) HasPresence() bool {
	return l.WebsiteURL != "" || l.InstagramHandle != "" || l.FacebookPage != "" || l.SourceURL != ""
}

// SearchQuota is a per-owner, per-calendar-month budget of external search calls.
type SearchQuota struct {
	Month     string `json:"month"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}
