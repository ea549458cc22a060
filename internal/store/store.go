// Package store persists leads, seeds, quotas, and booking inquiries.
// Every operation is scoped to one owning account.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/digital-duende/leadfinder/internal/model"
)

// ErrNotFound is returned when a requested record does not exist for the
// given owner.
var ErrNotFound = errors.New("store: not found")

// QuotaExceededError is returned by IncrementQuota when the owner's search
// budget for the current month is spent. The counter is never driven
// negative.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly search limit reached (%d/%d), resets next month", e.Used, e.Limit)
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	Priority model.Priority   `json:"priority,omitempty"`
	MinScore int              `json:"min_score,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Leads. SaveLead is an insert-or-update; a uniqueness constraint on
	// (owner, dedupe key) backs the find-by-key-then-insert sequence so a
	// concurrent race cannot create duplicate leads.
	SaveLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, ownerID, leadID string) (*model.Lead, error)
	// FindLeadByDedupeKey returns (nil, nil) when no lead matches.
	FindLeadByDedupeKey(ctx context.Context, ownerID, key string) (*model.Lead, error)
	ListLeads(ctx context.Context, ownerID string, filter LeadFilter) ([]model.Lead, error)
	DeleteLead(ctx context.Context, ownerID, leadID string) error
	DeleteAllLeads(ctx context.Context, ownerID string) (int64, error)

	// Seeds.
	ListSeeds(ctx context.Context, ownerID string, persona model.Persona) ([]model.QuerySeed, error)
	SaveSeed(ctx context.Context, seed *model.QuerySeed) error
	DeleteSeed(ctx context.Context, ownerID, seedID string) error

	// Search quota. IncrementQuota spends one unit atomically: the
	// conditional write either succeeds and returns the updated snapshot
	// or fails with QuotaExceededError, even under concurrent callers.
	GetQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error)
	IncrementQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error)

	// Handoff.
	SaveBookingInquiry(ctx context.Context, inq *model.BookingInquiry) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
