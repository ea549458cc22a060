// Package scoring implements the deterministic fit + reachability rubric:
// fit signals contribute 0-60 points, reachability 0-40, for a 0-100 score.
package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/digital-duende/leadfinder/internal/model"
)

// Thresholds for the priority tiers.
const (
	P1Threshold = 70
	P2Threshold = 40
)

// TargetRegions are the geographies the rubric awards points for.
var TargetRegions = []string{"Orange County", "Long Beach"}

// ocCities is the city-level expansion of the Orange County region.
var ocCities = map[string]bool{
	"anaheim": true, "santa ana": true, "irvine": true, "costa mesa": true,
	"huntington beach": true, "newport beach": true, "fullerton": true,
	"garden grove": true, "tustin": true, "laguna beach": true,
	"dana point": true, "san clemente": true, "aliso viejo": true,
	"mission viejo": true, "lake forest": true, "brea": true,
	"yorba linda": true, "placentia": true, "la habra": true,
	"buena park": true, "cypress": true, "los alamitos": true,
	"seal beach": true, "westminster": true, "fountain valley": true,
	"orange": true, "san juan capistrano": true, "long beach": true,
}

var djIndicators = []string{
	"dj night", "dj nights", "live dj", "nightclub", "club",
	"bottle service", "vip", "latin night", "reggaeton night",
}

var calendarIndicators = []string{
	"private event", "private party", "corporate mixer",
	"holiday party", "live entertainment", "happy hour", "themed party",
}

var targetStyles = []string{
	"latin", "reggaeton", "salsa", "bachata", "open format",
	"hip hop", "r&b", "house", "edm", "corporate", "pool party",
}

var bookingRoleRe = regexp.MustCompile(`(?i)event|booking|entertainment`)
var bookingEmailRe = regexp.MustCompile(`(?i)^(events?|booking|entertainment)@`)

// Result is the output of scoring one lead.
type Result struct {
	Score      int
	Reason     string
	Confidence model.Confidence
	Priority   model.Priority
}

// Score evaluates a lead. It is pure: the same field values always produce
// the identical score, reason, confidence, and priority.
func Score(lead *model.Lead) Result {
	var reasons []string
	fit := 0
	reach := 0

	// +20 DJ/nightlife presence, via event indicators or the entity type.
	hasDJ := containsAny(lead.EventTypesSeen, djIndicators)
	switch lead.EntityType {
	case model.TypeClub, model.TypeLounge, model.TypeRooftop:
		hasDJ = true
	}
	if hasDJ {
		fit += 20
		reasons = append(reasons, "+20 DJ/nightlife presence")
	}

	// +15 regular events calendar.
	if containsAny(lead.EventTypesSeen, calendarIndicators) {
		fit += 15
		reasons = append(reasons, "+15 regular events/calendar")
	}

	// +10 capacity 100+.
	if lead.CapacityEstimate != nil && *lead.CapacityEstimate >= 100 {
		fit += 10
		reasons = append(reasons, fmt.Sprintf("+10 capacity %d+", *lead.CapacityEstimate))
	}

	// +10 target style match.
	var matched []string
	for _, tag := range lead.MusicFitTags {
		lower := strings.ToLower(tag)
		for _, style := range targetStyles {
			if strings.Contains(lower, style) {
				matched = append(matched, tag)
				break
			}
		}
	}
	if len(matched) > 0 {
		top := matched
		if len(top) > 3 {
			top = top[:3]
		}
		fit += 10
		reasons = append(reasons, "+10 style match ("+strings.Join(top, ", ")+")")
	}

	// +5 target region.
	if inTargetRegion(lead.City, lead.Neighborhood) {
		fit += 5
		reasons = append(reasons, "+5 target region")
	}

	// +20 email or booking form.
	switch {
	case lead.Email != "":
		reach += 20
		reasons = append(reasons, "+20 email found")
	case lead.ContactFormURL != "":
		reach += 20
		reasons = append(reasons, "+20 contact form found")
	}

	// +10 direct event/booking contact.
	if bookingRoleRe.MatchString(lead.Role) || (lead.Email != "" && bookingEmailRe.MatchString(lead.Email)) {
		reach += 10
		reasons = append(reasons, "+10 direct booking contact")
	}

	// +5 phone.
	if lead.Phone != "" {
		reach += 5
		reasons = append(reasons, "+5 phone")
	}

	// +5 active socials.
	if lead.InstagramHandle != "" || lead.FacebookPage != "" {
		reach += 5
		reasons = append(reasons, "+5 active socials")
	}

	score := fit + reach
	if score > 100 {
		score = 100
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "no scoring signals found"
	}

	return Result{
		Score:      score,
		Reason:     reason,
		Confidence: confidence(lead),
		Priority:   PriorityFor(score),
	}
}

// Apply writes a scoring result onto the lead.
func Apply(lead *model.Lead, r Result) {
	lead.Score = r.Score
	lead.ScoreReason = r.Reason
	lead.Confidence = r.Confidence
	lead.Priority = r.Priority
}

// PriorityFor maps a score onto the fixed priority thresholds.
func PriorityFor(score int) model.Priority {
	switch {
	case score >= P1Threshold:
		return model.PriorityP1
	case score >= P2Threshold:
		return model.PriorityP2
	default:
		return model.PriorityP3
	}
}

// confidence reflects data breadth: how many signal categories had any
// value, independent of the score. A lead can score low with high
// confidence, or moderately with low confidence on sparse data.
func confidence(lead *model.Lead) model.Confidence {
	points := 0
	for _, populated := range []bool{
		lead.Email != "",
		lead.Phone != "",
		lead.WebsiteURL != "",
		lead.InstagramHandle != "",
		lead.ContactFormURL != "",
		len(lead.EventTypesSeen) > 0,
		len(lead.MusicFitTags) > 0,
	} {
		if populated {
			points++
		}
	}
	switch {
	case points >= 5:
		return model.ConfidenceHigh
	case points >= 3:
		return model.ConfidenceMed
	default:
		return model.ConfidenceLow
	}
}

func inTargetRegion(city, neighborhood string) bool {
	c := strings.ToLower(strings.TrimSpace(city))
	n := strings.ToLower(strings.TrimSpace(neighborhood))
	if ocCities[c] {
		return true
	}
	for _, region := range TargetRegions {
		r := strings.ToLower(region)
		if c != "" && (strings.Contains(c, r) || strings.Contains(r, c)) {
			return true
		}
		if n != "" && strings.Contains(n, r) {
			return true
		}
	}
	return false
}

func containsAny(values, needles []string) bool {
	for _, v := range values {
		lower := strings.ToLower(v)
		for _, needle := range needles {
			if strings.Contains(lower, needle) {
				return true
			}
		}
	}
	return false
}
