// Package enrich fetches a single page and extracts contact and fit
// signals with rule-based matching. It never follows links.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/digital-duende/leadfinder/internal/model"
)

// Result holds everything extracted from one page.
type Result struct {
	Emails           []string
	Phones           []string
	ContactFormURL   string
	InstagramHandle  string
	FacebookPage     string
	ContactName      string
	Role             string
	EntityType       model.EntityType
	MusicFitTags     []string
	EventTypesSeen   []string
	CapacityEstimate *int
	BudgetSignal     model.BudgetSignal
	RawSnippet       string
	Trace            string

	// ParseErr is set when the page fetched fine but extraction found no
	// usable signals. The caller decides whether that blocks anything.
	ParseErr *ParseError
}

// Options configures the enricher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	// FetchRate paces outbound page fetches. Zero means no pacing.
	FetchRate rate.Limit
	// AllowPrivateHosts skips the private-address checks so local fixture
	// servers can be scanned. Never enable outside development.
	AllowPrivateHosts bool
}

// Enricher fetches pages and runs extraction. Safe for concurrent use.
type Enricher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates an Enricher with the given options.
func New(opts Options) *Enricher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 512 * 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; LeadFinder/1.0; +https://digitalduende.com)"
	}
	var limiter *rate.Limiter
	if opts.FetchRate > 0 {
		limiter = rate.NewLimiter(opts.FetchRate, 1)
	}
	return &Enricher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: limiter,
	}
}

// Extraction patterns.
var (
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	roleEmailRe   = regexp.MustCompile(`(?i)^(events?|booking|book|marketing|info|contact|entertainment|private|vip)@`)
	phoneRe       = regexp.MustCompile(`(?:\+1\s?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	contactLinkRe = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']*(?:contact|private[_-]?event|booking|book[_-]?now|inquir|reserv)[^"']*)["']`)
	instagramRe   = regexp.MustCompile(`(?i)(?:instagram\.com|instagr\.am)/([a-zA-Z0-9_.]+)`)
	facebookRe    = regexp.MustCompile(`(?i)facebook\.com/([a-zA-Z0-9.\-]+)`)

	rolePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(events?\s+(?:director|manager|coordinator|planner))[\s:–\-]*([A-Z][a-z]+\s[A-Z][a-z]+)`),
		regexp.MustCompile(`(?i)(booking\s+(?:manager|contact|agent))[\s:–\-]*([A-Z][a-z]+\s[A-Z][a-z]+)`),
		regexp.MustCompile(`(?i)(general\s+manager|gm)[\s:–\-]*([A-Z][a-z]+\s[A-Z][a-z]+)`),
		regexp.MustCompile(`(?i)(entertainment\s+(?:director|manager))[\s:–\-]*([A-Z][a-z]+\s[A-Z][a-z]+)`),
	}

	capacityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:capacity|accommodat\w*|holds?|seats?|fits?)\s*(?:up\s+to\s+)?(\d{2,4})\s*(?:people|guests|person|pax)?`),
		regexp.MustCompile(`(?i)(\d{2,4})\s*(?:person|guest|seat)\s*(?:capacity|venue|space|room)`),
	}

	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	entityRe = regexp.MustCompile(`&#\d+;`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Enrich validates, fetches, and extracts signals from one URL.
// ValidationError and FetchError abort the scan; a ParseError is attached
// to the Result instead so the quality gate can decide.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) (*Result, error) {
	if err := e.validateURL(rawURL); err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "enrich: fetch pacing")
		}
	}

	trace := []string{"fetching " + rawURL}
	page, err := e.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	trace = append(trace, fmt.Sprintf("fetched %d bytes", len(page)))

	res := extract(rawURL, page, &trace)
	res.Trace = strings.Join(trace, "\n")

	zap.L().Debug("enrich complete",
		zap.String("url", rawURL),
		zap.String("entity_type", string(res.EntityType)),
		zap.Int("emails", len(res.Emails)),
		zap.Int("tags", len(res.MusicFitTags)),
	)
	return res, nil
}

// validateURL applies the scan-target policy, relaxed to scheme and host
// checks only when private hosts are allowed.
func (e *Enricher) validateURL(rawURL string) error {
	if !e.opts.AllowPrivateHosts {
		return ValidateScanURL(rawURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{URL: rawURL, Reason: "malformed URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{URL: rawURL, Reason: "blocked scheme " + parsed.Scheme}
	}
	if parsed.Hostname() == "" {
		return &ValidationError{URL: rawURL, Reason: "missing host"}
	}
	return nil
}

// fetch performs the single bounded GET. Every failure mode maps to a
// FetchError so batch callers can record it without aborting.
func (e *Enricher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxBytes))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	return string(body), nil
}

// extract runs all rule-based extraction over raw page HTML.
func extract(pageURL, raw string, trace *[]string) *Result {
	text := stripHTML(raw)
	lower := strings.ToLower(text)

	res := &Result{
		EntityType:   model.TypeOther,
		BudgetSignal: model.BudgetUnknown,
	}

	// Emails: role-prefixed addresses first, machine-readable source (the
	// raw markup, which includes mailto: links) over rendered text.
	seen := map[string]bool{}
	var priority, rest []string
	for _, m := range emailRe.FindAllString(raw, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		if roleEmailRe.MatchString(m) {
			priority = append(priority, m)
		} else {
			rest = append(rest, m)
		}
	}
	res.Emails = append(priority, rest...)
	if len(res.Emails) > 0 {
		*trace = append(*trace, fmt.Sprintf("found %d emails", len(res.Emails)))
	}

	// Phones, capped at three.
	seenPhones := map[string]bool{}
	for _, m := range phoneRe.FindAllString(text, -1) {
		if seenPhones[m] {
			continue
		}
		seenPhones[m] = true
		res.Phones = append(res.Phones, m)
		if len(res.Phones) == 3 {
			break
		}
	}
	if len(res.Phones) > 0 {
		*trace = append(*trace, fmt.Sprintf("found %d phones", len(res.Phones)))
	}

	// Contact form link, resolved against the page URL.
	if m := contactLinkRe.FindStringSubmatch(raw); m != nil {
		res.ContactFormURL = resolveURL(pageURL, m[1])
		*trace = append(*trace, "found contact form "+res.ContactFormURL)
	}

	// Social handles.
	if m := instagramRe.FindStringSubmatch(raw); m != nil {
		res.InstagramHandle = m[1]
		*trace = append(*trace, "found instagram @"+res.InstagramHandle)
	}
	if m := facebookRe.FindStringSubmatch(raw); m != nil {
		res.FacebookPage = m[1]
	}

	// Contact name and role.
	for _, pat := range rolePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			res.Role = strings.TrimSpace(m[1])
			res.ContactName = strings.TrimSpace(m[2])
			*trace = append(*trace, fmt.Sprintf("found contact %s (%s)", res.ContactName, res.Role))
			break
		}
	}

	// Entity type: highest keyword occurrence total wins, ties fall to the
	// earlier (more specific) declaration, zero signal stays "other".
	best := 0
	for _, et := range entityTypeKeywords {
		score := 0
		for _, kw := range et.Keywords {
			score += strings.Count(lower, kw)
		}
		if score > best {
			best = score
			res.EntityType = et.Type
		}
	}
	*trace = append(*trace, "classified as "+string(res.EntityType))

	// Music fit tags and event indicators: presence, deduplicated by the
	// fixed list ordering.
	for _, tag := range musicFitKeywords {
		if strings.Contains(lower, tag) {
			res.MusicFitTags = append(res.MusicFitTags, tag)
		}
	}
	for _, indicator := range eventTypeIndicators {
		if strings.Contains(lower, indicator) {
			res.EventTypesSeen = append(res.EventTypesSeen, indicator)
		}
	}

	// Capacity: first numeric pattern match; absent stays nil, never a
	// fabricated default.
	for _, pat := range capacityPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				res.CapacityEstimate = &n
				*trace = append(*trace, fmt.Sprintf("capacity estimate %d", n))
				break
			}
		}
	}

	// Budget signal.
	for _, s := range budgetHighSignals {
		if strings.Contains(lower, s) {
			res.BudgetSignal = model.BudgetHigh
			break
		}
	}
	if res.BudgetSignal == model.BudgetUnknown {
		for _, s := range budgetLowSignals {
			if strings.Contains(lower, s) {
				res.BudgetSignal = model.BudgetLow
				break
			}
		}
	}

	// Snippet: first 500 chars of meaningful text for the audit trail.
	snippet := strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if len(snippet) > 500 {
		snippet = snippet[:500]
	}
	res.RawSnippet = snippet

	if !res.usable() {
		res.ParseErr = &ParseError{URL: pageURL}
		*trace = append(*trace, "no usable signals extracted")
	}

	return res
}

// usable reports whether extraction produced at least one signal worth
// keeping.
func (r *Result) usable() bool {
	return len(r.Emails) > 0 || len(r.Phones) > 0 || r.ContactFormURL != "" ||
		r.InstagramHandle != "" || len(r.MusicFitTags) > 0 || len(r.EventTypesSeen) > 0
}

// stripHTML reduces a page to plain text for keyword matching.
func stripHTML(html string) string {
	s := scriptRe.ReplaceAllString(html, " ")
	s = styleRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
	).Replace(s)
	s = entityRe.ReplaceAllString(s, "")
	return spaceRe.ReplaceAllString(s, " ")
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

var titleCaser = cases.Title(language.AmericanEnglish)

// NameFromURL derives a display name from a URL's hostname, used when the
// caller supplies no entity name.
func NameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown Venue"
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, tld := range []string{".com", ".net", ".org", ".io", ".co", ".bar", ".club", ".restaurant", ".events", ".event"} {
		if strings.HasSuffix(host, tld) {
			host = strings.TrimSuffix(host, tld)
			break
		}
	}
	host = strings.NewReplacer(".", " ", "-", " ", "_", " ").Replace(host)
	name := strings.TrimSpace(titleCaser.String(host))
	if name == "" {
		return "Unknown Venue"
	}
	return name
}
