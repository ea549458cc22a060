package model

import "time"

// Persona selects which seed defaults apply for an owner.
type Persona string

const (
	PersonaPerformer  Persona = "performer"
	PersonaInstructor Persona = "instructor"
)

// QuerySeed is a stored search template: region plus an ordered keyword
// list, expanded into one external search query during discovery. Seeds
// are read-only to the pipeline.
type QuerySeed struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Region    string    `json:"region" db:"region"`
	Keywords  []string  `json:"keywords" db:"keywords"`
	Source    string    `json:"source" db:"source"`
	Persona   Persona   `json:"persona" db:"persona"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BookingInquiry is the downstream work item created when a qualified lead
// is handed off. The booking workflow itself lives outside this module.
type BookingInquiry struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	LeadID         string    `json:"lead_id" db:"lead_id"`
	ClientName     string    `json:"client_name" db:"client_name"`
	Org            string    `json:"org" db:"org"`
	Email          string    `json:"email" db:"email"`
	Phone          string    `json:"phone" db:"phone"`
	VenueName      string    `json:"venue_name" db:"venue_name"`
	Address        string    `json:"address" db:"address"`
	EventKind      string    `json:"event_kind" db:"event_kind"`
	Attendance     int       `json:"attendance" db:"attendance"`
	BudgetRange    string    `json:"budget_range" db:"budget_range"`
	VibeDescription string   `json:"vibe_description" db:"vibe_description"`
	Questions      []string  `json:"questions" db:"questions"`
	RawInquiry     string    `json:"raw_inquiry" db:"raw_inquiry"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
