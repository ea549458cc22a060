package discovery

import (
	"context"
	"strings"
	"sync"

	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/store"
	"github.com/digital-duende/leadfinder/pkg/websearch"
)

// fakeSearch is a scripted websearch.Client. Results are keyed by a
// substring of the query; queries matching errOn fail.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]websearch.SearchResult
	errOn   string
	err     error
	calls   []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]websearch.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	if f.errOn != "" && strings.Contains(query, f.errOn) {
		return nil, f.err
	}
	for key, hits := range f.results {
		if strings.Contains(query, key) {
			return hits, nil
		}
	}
	return nil, nil
}

// fakeStore is an in-memory Store with a working quota counter.
type fakeStore struct {
	mu         sync.Mutex
	seeds      []model.QuerySeed
	leads      map[string]*model.Lead
	quotaUsed  int
	quotaLimit int
}

func newFakeStore(quotaLimit int) *fakeStore {
	return &fakeStore{leads: map[string]*model.Lead{}, quotaLimit: quotaLimit}
}

func (f *fakeStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lead
	f.leads[lead.OwnerID+"|"+lead.DedupeKey] = &cp
	return nil
}

func (f *fakeStore) GetLead(ctx context.Context, ownerID, leadID string) (*model.Lead, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindLeadByDedupeKey(ctx context.Context, ownerID, key string) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.leads[ownerID+"|"+key]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) ListLeads(ctx context.Context, ownerID string, filter store.LeadFilter) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Lead
	for _, l := range f.leads {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteLead(ctx context.Context, ownerID, leadID string) error { return nil }

func (f *fakeStore) DeleteAllLeads(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ListSeeds(ctx context.Context, ownerID string, persona model.Persona) ([]model.QuerySeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QuerySeed
	for _, s := range f.seeds {
		if s.OwnerID == ownerID && s.Persona == persona {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveSeed(ctx context.Context, seed *model.QuerySeed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeds = append(f.seeds, *seed)
	return nil
}

func (f *fakeStore) DeleteSeed(ctx context.Context, ownerID, seedID string) error { return nil }

func (f *fakeStore) GetQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeStore) IncrementQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotaUsed >= f.quotaLimit {
		return nil, &store.QuotaExceededError{Used: f.quotaUsed, Limit: f.quotaLimit}
	}
	f.quotaUsed++
	return f.snapshot(), nil
}

func (f *fakeStore) snapshot() *model.SearchQuota {
	remaining := f.quotaLimit - f.quotaUsed
	if remaining < 0 {
		remaining = 0
	}
	return &model.SearchQuota{Month: "2026-03", Used: f.quotaUsed, Limit: f.quotaLimit, Remaining: remaining}
}

func (f *fakeStore) SaveBookingInquiry(ctx context.Context, inq *model.BookingInquiry) error {
	return nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }
