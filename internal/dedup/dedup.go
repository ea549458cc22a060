// Package dedup computes identity fingerprints for leads and merges
// duplicates found across discovery runs.
package dedup

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/digital-duende/leadfinder/internal/model"
)

var (
	apostropheRe = regexp.MustCompile(`['’]`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	// Articles and legal suffixes carry no identity.
	stopwordRe = regexp.MustCompile(`\b(the|a|an|of|and|&|llc|inc|co|corp)\b`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// ComputeKey returns a deterministic fingerprint for a lead.
// Priority: website domain > normalized name + city > source URL. The key
// deliberately ignores contact fields: they are unreliable for identity,
// and a coarse key trades missed merges for never merging unrelated
// entities.
func ComputeKey(lead *model.Lead) string {
	if lead.WebsiteURL != "" {
		if parsed, err := url.Parse(lead.WebsiteURL); err == nil {
			domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
			if domain != "" {
				return "domain:" + domain
			}
		}
	}

	name := NormalizeName(lead.EntityName)
	city := strings.ToLower(strings.TrimSpace(lead.City))
	if name != "" && city != "" {
		return "name:" + name + "|" + city
	}

	if lead.SourceURL != "" {
		return "url:" + lead.SourceURL
	}

	// No identity-bearing field at all; make the key unique so nothing
	// unrelated ever merges into it.
	return "unknown:" + lead.LeadID
}

// NormalizeName lowercases a name and strips punctuation, articles, and
// legal suffixes for comparison.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = apostropheRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = stopwordRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Merge folds an incoming scan into an existing lead. The existing lead's
// lifecycle status is never overwritten; incoming data only fills empty or
// unknown fields, tag slices union, and the audit trail is appended. The
// caller rescores the merged lead afterward.
func Merge(existing, incoming *model.Lead, now time.Time) *model.Lead {
	merged := *existing

	merged.EntityName = firstNonEmpty(existing.EntityName, incoming.EntityName)
	if existing.EntityType == model.TypeOther {
		merged.EntityType = incoming.EntityType
	}
	merged.Neighborhood = firstNonEmpty(existing.Neighborhood, incoming.Neighborhood)
	merged.City = firstNonEmpty(existing.City, incoming.City)
	merged.State = firstNonEmpty(existing.State, incoming.State)

	merged.Email = firstNonEmpty(existing.Email, incoming.Email)
	merged.Phone = firstNonEmpty(existing.Phone, incoming.Phone)
	merged.ContactName = firstNonEmpty(existing.ContactName, incoming.ContactName)
	merged.Role = firstNonEmpty(existing.Role, incoming.Role)
	merged.ContactFormURL = firstNonEmpty(existing.ContactFormURL, incoming.ContactFormURL)
	merged.InstagramHandle = firstNonEmpty(existing.InstagramHandle, incoming.InstagramHandle)
	merged.FacebookPage = firstNonEmpty(existing.FacebookPage, incoming.FacebookPage)
	merged.PreferredContactMethod = firstNonEmpty(existing.PreferredContactMethod, incoming.PreferredContactMethod)

	merged.MusicFitTags = unionTags(existing.MusicFitTags, incoming.MusicFitTags)
	merged.EventTypesSeen = unionTags(existing.EventTypesSeen, incoming.EventTypesSeen)
	if existing.CapacityEstimate == nil {
		merged.CapacityEstimate = incoming.CapacityEstimate
	}
	if existing.BudgetSignal == model.BudgetUnknown {
		merged.BudgetSignal = incoming.BudgetSignal
	}

	if incoming.Notes != "" {
		if existing.Notes != "" {
			merged.Notes = existing.Notes + "\n[updated " + now.UTC().Format(time.RFC3339) + "] " + incoming.Notes
		} else {
			merged.Notes = incoming.Notes
		}
	}

	// Newest source reference wins; the audit trail keeps the history.
	merged.SourceURL = firstNonEmpty(incoming.SourceURL, existing.SourceURL)
	merged.Source = firstNonEmpty(incoming.Source, existing.Source)
	merged.RawSnippet = firstNonEmpty(incoming.RawSnippet, existing.RawSnippet)

	var traceParts []string
	if existing.Trace != "" {
		traceParts = append(traceParts, existing.Trace)
	}
	traceParts = append(traceParts, fmt.Sprintf("[merge %s]", now.UTC().Format(time.RFC3339)))
	if incoming.Trace != "" {
		traceParts = append(traceParts, incoming.Trace)
	}
	merged.Trace = strings.Join(traceParts, "\n")

	// Identity fields may have been filled in; the key must track them.
	merged.DedupeKey = ComputeKey(&merged)

	return &merged
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// unionTags merges two tag slices, preserving first-seen order.
func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
