// Package pipeline orchestrates processing one URL into a persisted lead:
// enrich, dedupe, score, quality-check, persist. Single scans, batch scans,
// and auto-discovery all go through the same Run path.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digital-duende/leadfinder/internal/dedup"
	"github.com/digital-duende/leadfinder/internal/enrich"
	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/qc"
	"github.com/digital-duende/leadfinder/internal/scoring"
	"github.com/digital-duende/leadfinder/internal/store"
)

// Stage names the step a run is in, for failure reporting.
type Stage string

const (
	StageFetching        Stage = "fetching"
	StageEnriching       Stage = "enriching"
	StageDeduping        Stage = "deduping"
	StageScoring         Stage = "scoring"
	StageQualityChecking Stage = "quality_checking"
	StagePersisting      Stage = "persisting"
)

// RunError wraps a failure with the stage it occurred in.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Request describes one URL to process plus optional caller hints that
// pre-fill fields extraction may not find.
type Request struct {
	OwnerID    string
	URL        string
	EntityName string
	City       string
	State      string
	Source     string
	SourceURL  string
	RawSnippet string

	// Auto restricts persistence to leads that score at or above the P2
	// threshold and pass the quality gate. Discovery sets this; explicit
	// scans do not.
	Auto bool
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Lead        *model.Lead `json:"lead,omitempty"`
	IsNew       bool        `json:"is_new"`
	IsDuplicate bool        `json:"is_duplicate"`
	QCPassed    bool        `json:"qc_passed"`
	Issues      []string    `json:"issues,omitempty"`
	Warnings    []string    `json:"warnings,omitempty"`
	// Filtered is set in auto mode when the lead was dropped by the score
	// threshold or the gate instead of persisted.
	Filtered bool `json:"filtered,omitempty"`
}

// Pipeline wires the enricher and store behind one Run entry point.
type Pipeline struct {
	enricher *enrich.Enricher
	store    store.Store
	now      func() time.Time
}

// New creates a Pipeline.
func New(e *enrich.Enricher, s store.Store) *Pipeline {
	return &Pipeline{enricher: e, store: s, now: time.Now}
}

// Run processes one URL end to end. Validation and fetch errors abort the
// run with no lead created; parse failures flow into the quality gate as a
// low-confidence lead instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.OwnerID == "" {
		return nil, &enrich.ValidationError{URL: req.URL, Reason: "owner id is required"}
	}

	enriched, err := p.enricher.Enrich(ctx, req.URL)
	if err != nil {
		return nil, &RunError{Stage: StageFetching, Err: err}
	}

	lead := p.buildLead(req, enriched)

	// Dedupe: key lookup, then merge into the existing record when found.
	lead.DedupeKey = dedup.ComputeKey(lead)
	existing, err := p.store.FindLeadByDedupeKey(ctx, req.OwnerID, lead.DedupeKey)
	if err != nil {
		return nil, &RunError{Stage: StageDeduping, Err: err}
	}

	out := &Outcome{}
	if existing != nil {
		lead = dedup.Merge(existing, lead, p.now().UTC())
		out.IsDuplicate = true
	} else {
		out.IsNew = true
	}

	// Score unconditionally, new or merged.
	scoring.Apply(lead, scoring.Score(lead))

	gate := qc.Check(lead)
	out.QCPassed = gate.Passed
	out.Issues = gate.Issues
	out.Warnings = gate.Warnings

	if req.Auto && (lead.Score < scoring.P2Threshold || !gate.Passed) {
		out.Filtered = true
		out.Lead = lead
		zap.L().Debug("lead filtered",
			zap.String("url", req.URL),
			zap.Int("score", lead.Score),
			zap.Bool("qc_passed", gate.Passed),
		)
		return out, nil
	}

	if err := p.store.SaveLead(ctx, lead); err != nil {
		return nil, &RunError{Stage: StagePersisting, Err: err}
	}
	out.Lead = lead

	zap.L().Info("lead processed",
		zap.String("lead_id", lead.LeadID),
		zap.String("entity", lead.EntityName),
		zap.Int("score", lead.Score),
		zap.String("priority", string(lead.Priority)),
		zap.Bool("is_new", out.IsNew),
		zap.Bool("qc_passed", out.QCPassed),
	)
	return out, nil
}

// buildLead assembles a lead from caller hints plus extraction output.
// Hints win for identity fields; extraction fills everything else.
func (p *Pipeline) buildLead(req Request, res *enrich.Result) *model.Lead {
	name := req.EntityName
	if name == "" {
		name = enrich.NameFromURL(req.URL)
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}

	lead := &model.Lead{
		LeadID:     uuid.New().String(),
		OwnerID:    req.OwnerID,
		EntityName: name,
		EntityType: res.EntityType,
		City:       req.City,
		State:      req.State,
		WebsiteURL: req.URL,
		Source:     source,
		SourceURL:  req.SourceURL,
		FoundAt:    p.now().UTC(),

		ContactName:     res.ContactName,
		Role:            res.Role,
		ContactFormURL:  res.ContactFormURL,
		InstagramHandle: res.InstagramHandle,
		FacebookPage:    res.FacebookPage,

		MusicFitTags:     res.MusicFitTags,
		EventTypesSeen:   res.EventTypesSeen,
		CapacityEstimate: res.CapacityEstimate,
		BudgetSignal:     res.BudgetSignal,

		Status:     model.StatusNew,
		RawSnippet: res.RawSnippet,
		Trace:      res.Trace,
	}
	if len(res.Emails) > 0 {
		lead.Email = res.Emails[0]
	}
	if len(res.Phones) > 0 {
		lead.Phone = res.Phones[0]
	}
	if lead.RawSnippet == "" {
		lead.RawSnippet = req.RawSnippet
	}
	lead.PreferredContactMethod = preferredContactMethod(lead)
	lead.Notes = buildNotes(lead, res)
	return lead
}

// preferredContactMethod picks the strongest available outreach channel.
func preferredContactMethod(l *model.Lead) string {
	switch {
	case l.Email != "":
		return "email"
	case l.ContactFormURL != "":
		return "contact_form"
	case l.Phone != "":
		return "phone"
	case l.InstagramHandle != "":
		return "instagram"
	default:
		return ""
	}
}

// buildNotes produces the short human-readable summary shown in review.
func buildNotes(l *model.Lead, res *enrich.Result) string {
	var parts []string
	if l.EntityType != model.TypeOther {
		parts = append(parts, string(l.EntityType))
	}
	if len(l.MusicFitTags) > 0 {
		n := len(l.MusicFitTags)
		if n > 3 {
			n = 3
		}
		parts = append(parts, "music: "+strings.Join(l.MusicFitTags[:n], ", "))
	}
	if len(l.EventTypesSeen) > 0 {
		n := len(l.EventTypesSeen)
		if n > 3 {
			n = 3
		}
		parts = append(parts, "events: "+strings.Join(l.EventTypesSeen[:n], ", "))
	}
	if l.CapacityEstimate != nil {
		parts = append(parts, fmt.Sprintf("capacity ~%d", *l.CapacityEstimate))
	}
	if res.ParseErr != nil {
		parts = append(parts, "page yielded no usable signals")
	}
	return strings.Join(parts, "; ")
}
