// Package discovery expands stored seed queries into candidate URLs via the
// external search API and runs each URL through the lead pipeline. It owns
// the search quota discipline: one atomic quota unit per external search.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/pipeline"
	"github.com/digital-duende/leadfinder/internal/seeds"
	"github.com/digital-duende/leadfinder/internal/store"
	"github.com/digital-duende/leadfinder/pkg/websearch"
)

// excludedDomains are directory and social sites whose search hits are
// never the venue's own page.
var excludedDomains = []string{
	"yelp.com", "tripadvisor.com", "facebook.com", "instagram.com",
	"twitter.com", "x.com", "tiktok.com", "youtube.com",
	"google.com", "wikipedia.org", "reddit.com",
	"linkedin.com", "pinterest.com", "mapquest.com",
	"yellowpages.com", "bbb.org", "menuism.com",
}

// seedCities are city names recognized inside seed keywords, used to fill
// the lead's city hint.
var seedCities = []string{
	"long beach", "anaheim", "santa ana", "irvine", "costa mesa",
	"huntington beach", "newport beach", "fullerton", "garden grove",
	"tustin", "laguna beach", "dana point",
}

// Options configures a discovery run.
type Options struct {
	// Region filters seeds; empty processes all active seeds.
	Region string
	// MaxSeeds caps how many seeds are processed. Zero means no cap beyond
	// quota remaining.
	MaxSeeds int
	// ResultsPerSearch is how many hits to request per external search.
	ResultsPerSearch int
}

// SeedResult reports one seed's outcome.
type SeedResult struct {
	Seed          model.QuerySeed     `json:"seed"`
	URLsFound     int                 `json:"urls_found"`
	LeadsCreated  int                 `json:"leads_created"`
	LeadsFiltered int                 `json:"leads_filtered"`
	Outcomes      []*pipeline.Outcome `json:"outcomes,omitempty"`
	Errors        []string            `json:"errors,omitempty"`
}

// Result aggregates a full discovery run.
type Result struct {
	SeedsProcessed int                `json:"seeds_processed"`
	URLsFound      int                `json:"urls_found"`
	LeadsCreated   int                `json:"leads_created"`
	LeadsFiltered  int                `json:"leads_filtered"`
	Seeds          []SeedResult       `json:"seeds"`
	Errors         []string           `json:"errors,omitempty"`
	Quota          *model.SearchQuota `json:"quota,omitempty"`
}

// BatchInput is one URL to scan in a batch, with optional hints.
type BatchInput struct {
	URL        string `json:"url"`
	EntityName string `json:"entity_name,omitempty"`
	City       string `json:"city,omitempty"`
}

// BatchResult aggregates a batch scan.
type BatchResult struct {
	TotalURLs int                 `json:"total_urls"`
	Processed int                 `json:"processed"`
	HighValue int                 `json:"high_value"`
	Filtered  int                 `json:"filtered"`
	Outcomes  []*pipeline.Outcome `json:"outcomes,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
}

// Orchestrator runs seed-driven discovery and batch scans.
type Orchestrator struct {
	search      websearch.Client
	pipe        *pipeline.Pipeline
	store       store.Store
	parallelism int
}

// New creates an Orchestrator. parallelism bounds concurrent URL scans
// within a batch; values below one fall back to four.
func New(search websearch.Client, pipe *pipeline.Pipeline, st store.Store, parallelism int) *Orchestrator {
	if parallelism < 1 {
		parallelism = 4
	}
	return &Orchestrator{search: search, pipe: pipe, store: st, parallelism: parallelism}
}

// Discover runs auto-discovery for one owner. Seeds are resolved through
// the external search API, one quota unit spent atomically per search;
// per-seed errors are collected without halting the rest of the run.
func (o *Orchestrator) Discover(ctx context.Context, ownerID string, persona model.Persona, opts Options) (*Result, error) {
	quota, err := o.store.GetQuota(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if quota.Remaining <= 0 {
		return nil, &store.QuotaExceededError{Used: quota.Used, Limit: quota.Limit}
	}

	seeds, err := o.activeSeeds(ctx, ownerID, persona, opts.Region)
	if err != nil {
		return nil, err
	}

	// Cap: min(requested, seeds available, quota remaining).
	limit := len(seeds)
	if opts.MaxSeeds > 0 && opts.MaxSeeds < limit {
		limit = opts.MaxSeeds
	}
	if quota.Remaining < limit {
		limit = quota.Remaining
	}
	seeds = seeds[:limit]

	res := &Result{}
	for _, seed := range seeds {
		sr := o.discoverSeed(ctx, ownerID, seed, opts.ResultsPerSearch)
		res.Seeds = append(res.Seeds, sr)
		res.SeedsProcessed++
		res.URLsFound += sr.URLsFound
		res.LeadsCreated += sr.LeadsCreated
		res.LeadsFiltered += sr.LeadsFiltered
		res.Errors = append(res.Errors, sr.Errors...)
	}

	if snap, err := o.store.GetQuota(ctx, ownerID); err == nil {
		res.Quota = snap
	}
	zap.L().Info("discovery complete",
		zap.String("owner", ownerID),
		zap.Int("seeds", res.SeedsProcessed),
		zap.Int("created", res.LeadsCreated),
		zap.Int("filtered", res.LeadsFiltered),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// discoverSeed spends one quota unit, searches, and pipelines each URL.
func (o *Orchestrator) discoverSeed(ctx context.Context, ownerID string, seed model.QuerySeed, perSearch int) SeedResult {
	sr := SeedResult{Seed: seed}

	// Spend the quota unit before the external call goes out. A concurrent
	// run that drains the quota first stops this seed cleanly.
	if _, err := o.store.IncrementQuota(ctx, ownerID); err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}

	query := strings.Join(append(append([]string{}, seed.Keywords...), seed.Region), " ")
	hits, err := o.search.Search(ctx, query, perSearch)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("search %q: %v", query, err))
		return sr
	}

	candidates := filterCandidates(hits)
	sr.URLsFound = len(candidates)

	city := cityFromSeed(seed)
	for _, hit := range candidates {
		out, err := o.pipe.Run(ctx, pipeline.Request{
			OwnerID:    ownerID,
			URL:        hit.Link,
			EntityName: hit.Title,
			City:       city,
			State:      "CA",
			Source:     seed.Source,
			SourceURL:  hit.Link,
			RawSnippet: hit.Snippet,
			Auto:       true,
		})
		if err != nil {
			sr.Errors = append(sr.Errors, fmt.Sprintf("scan %s: %v", hit.Link, err))
			continue
		}
		if out.Filtered {
			sr.LeadsFiltered++
			continue
		}
		sr.LeadsCreated++
		sr.Outcomes = append(sr.Outcomes, out)
	}
	return sr
}

// BatchScan runs the pipeline over caller-supplied URLs with bounded
// parallelism. Per-URL errors are collected, never fatal to the batch.
func (o *Orchestrator) BatchScan(ctx context.Context, ownerID string, inputs []BatchInput) (*BatchResult, error) {
	res := &BatchResult{TotalURLs: len(inputs)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for _, in := range inputs {
		g.Go(func() error {
			out, err := o.pipe.Run(gctx, pipeline.Request{
				OwnerID:    ownerID,
				URL:        in.URL,
				EntityName: in.EntityName,
				City:       in.City,
				State:      "CA",
				Source:     "batch",
				Auto:       true,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", in.URL, err))
				return nil
			}
			res.Processed++
			if out.Filtered {
				res.Filtered++
				return nil
			}
			res.HighValue++
			res.Outcomes = append(res.Outcomes, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// activeSeeds loads the owner's seeds, installing the persona's default
// catalog on first use, then filters by region and activity.
func (o *Orchestrator) activeSeeds(ctx context.Context, ownerID string, persona model.Persona, region string) ([]model.QuerySeed, error) {
	stored, err := o.store.ListSeeds(ctx, ownerID, persona)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		defaults, err := seeds.Defaults(ownerID, persona)
		if err != nil {
			return nil, err
		}
		for i := range defaults {
			if err := o.store.SaveSeed(ctx, &defaults[i]); err != nil {
				return nil, err
			}
		}
		stored = defaults
		zap.L().Info("installed default seeds",
			zap.String("owner", ownerID),
			zap.String("persona", string(persona)),
			zap.Int("count", len(defaults)),
		)
	}
	var out []model.QuerySeed
	for _, s := range stored {
		if !s.Active {
			continue
		}
		if region != "" && !strings.EqualFold(s.Region, region) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// filterCandidates drops directory-site hits and deduplicates by host.
func filterCandidates(hits []websearch.SearchResult) []websearch.SearchResult {
	seen := map[string]bool{}
	var out []websearch.SearchResult
	for _, h := range hits {
		parsed, err := url.Parse(h.Link)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		if isExcludedDomain(host) || seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, h)
	}
	return out
}

func isExcludedDomain(host string) bool {
	for _, d := range excludedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// cityFromSeed pulls a recognized city name out of the seed keywords,
// falling back to the seed's region.
func cityFromSeed(seed model.QuerySeed) string {
	for _, kw := range seed.Keywords {
		lower := strings.ToLower(kw)
		for _, c := range seedCities {
			if strings.Contains(lower, c) {
				return kw
			}
		}
	}
	return seed.Region
}
