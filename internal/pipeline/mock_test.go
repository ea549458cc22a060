package pipeline

import (
	"context"
	"sync"

	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/store"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	mu        sync.Mutex
	leads     map[string]*model.Lead // keyed by owner + "|" + dedupe key
	saveCalls int
	findErr   error
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{leads: map[string]*model.Lead{}}
}

func (m *memStore) key(ownerID, dedupeKey string) string {
	return ownerID + "|" + dedupeKey
}

func (m *memStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	cp := *lead
	m.leads[m.key(lead.OwnerID, lead.DedupeKey)] = &cp
	return nil
}

func (m *memStore) GetLead(ctx context.Context, ownerID, leadID string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.OwnerID == ownerID && l.LeadID == leadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindLeadByDedupeKey(ctx context.Context, ownerID, key string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if l, ok := m.leads[m.key(ownerID, key)]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListLeads(ctx context.Context, ownerID string, filter store.LeadFilter) ([]model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Lead
	for _, l := range m.leads {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memStore) DeleteLead(ctx context.Context, ownerID, leadID string) error { return nil }

func (m *memStore) DeleteAllLeads(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}

func (m *memStore) ListSeeds(ctx context.Context, ownerID string, persona model.Persona) ([]model.QuerySeed, error) {
	return nil, nil
}

func (m *memStore) SaveSeed(ctx context.Context, seed *model.QuerySeed) error { return nil }

func (m *memStore) DeleteSeed(ctx context.Context, ownerID, seedID string) error { return nil }

func (m *memStore) GetQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	return &model.SearchQuota{}, nil
}

func (m *memStore) IncrementQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	return &model.SearchQuota{}, nil
}

func (m *memStore) SaveBookingInquiry(ctx context.Context, inq *model.BookingInquiry) error {
	return nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }

func (m *memStore) Close() error { return nil }
