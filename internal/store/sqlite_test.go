package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-duende/leadfinder/internal/model"
)

func newTestSQLiteStore(t *testing.T, quotaLimit int) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "leadfinder.db")
	st, err := NewSQLite(dbPath, quotaLimit)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testLead(ownerID, leadID string) *model.Lead {
	return &model.Lead{
		LeadID:     leadID,
		OwnerID:    ownerID,
		EntityName: "Sutra Lounge",
		EntityType: model.TypeLounge,
		City:       "Costa Mesa",
		State:      "CA",
		WebsiteURL: "https://sutraoc.com",
		Source:     "manual",
		FoundAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Email:      "events@sutraoc.com",
		Score:      75,
		Priority:   model.PriorityP1,
		Status:     model.StatusNew,
		DedupeKey:  "domain:sutraoc.com",
	}
}

func TestSQLite_SaveAndGetLead(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	lead := testLead("owner-1", "lead-1")
	require.NoError(t, st.SaveLead(ctx, lead))

	got, err := st.GetLead(ctx, "owner-1", "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Sutra Lounge", got.EntityName)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, model.StatusNew, got.Status)
}

func TestSQLite_GetLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	_, err := st.GetLead(context.Background(), "owner-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_GetLead_ScopedToOwner(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	require.NoError(t, st.SaveLead(ctx, testLead("owner-1", "lead-1")))

	_, err := st.GetLead(ctx, "owner-2", "lead-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SaveLead_UpsertsOnDedupeKey(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	first := testLead("owner-1", "lead-1")
	require.NoError(t, st.SaveLead(ctx, first))

	// Same dedupe key under a different lead id lands on the same row.
	second := testLead("owner-1", "lead-2")
	second.Score = 90
	second.Status = model.StatusQueued
	require.NoError(t, st.SaveLead(ctx, second))

	leads, err := st.ListLeads(ctx, "owner-1", LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 90, leads[0].Score)
	assert.Equal(t, model.StatusQueued, leads[0].Status)
}

func TestSQLite_SaveLead_ResaveByID(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	lead := testLead("owner-1", "lead-1")
	require.NoError(t, st.SaveLead(ctx, lead))

	lead.Status = model.StatusContacted
	require.NoError(t, st.SaveLead(ctx, lead))

	got, err := st.GetLead(ctx, "owner-1", "lead-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, got.Status)
}

func TestSQLite_SameDedupeKeyDifferentOwners(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	require.NoError(t, st.SaveLead(ctx, testLead("owner-1", "lead-1")))
	require.NoError(t, st.SaveLead(ctx, testLead("owner-2", "lead-2")))

	one, err := st.ListLeads(ctx, "owner-1", LeadFilter{})
	require.NoError(t, err)
	two, err := st.ListLeads(ctx, "owner-2", LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, one, 1)
	assert.Len(t, two, 1)
}

func TestSQLite_FindLeadByDedupeKey(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	require.NoError(t, st.SaveLead(ctx, testLead("owner-1", "lead-1")))

	got, err := st.FindLeadByDedupeKey(ctx, "owner-1", "domain:sutraoc.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "lead-1", got.LeadID)

	miss, err := st.FindLeadByDedupeKey(ctx, "owner-1", "domain:other.com")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestSQLite_ListLeads_FiltersAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	for i, score := range []int{20, 85, 55} {
		lead := testLead("owner-1", fmt.Sprintf("lead-%d", i))
		lead.DedupeKey = fmt.Sprintf("domain:venue%d.com", i)
		lead.Score = score
		if score >= 70 {
			lead.Priority = model.PriorityP1
		} else if score >= 40 {
			lead.Priority = model.PriorityP2
		} else {
			lead.Priority = model.PriorityP3
		}
		require.NoError(t, st.SaveLead(ctx, lead))
	}

	all, err := st.ListLeads(ctx, "owner-1", LeadFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{85, 55, 20}, []int{all[0].Score, all[1].Score, all[2].Score})

	p1, err := st.ListLeads(ctx, "owner-1", LeadFilter{Priority: model.PriorityP1})
	require.NoError(t, err)
	require.Len(t, p1, 1)
	assert.Equal(t, 85, p1[0].Score)

	minScore, err := st.ListLeads(ctx, "owner-1", LeadFilter{MinScore: 40})
	require.NoError(t, err)
	assert.Len(t, minScore, 2)

	paged, err := st.ListLeads(ctx, "owner-1", LeadFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, 55, paged[0].Score)
}

func TestSQLite_DeleteLead(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	require.NoError(t, st.SaveLead(ctx, testLead("owner-1", "lead-1")))
	require.NoError(t, st.DeleteLead(ctx, "owner-1", "lead-1"))

	_, err := st.GetLead(ctx, "owner-1", "lead-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.DeleteLead(ctx, "owner-1", "lead-1"), ErrNotFound)
}

func TestSQLite_DeleteAllLeads(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lead := testLead("owner-1", fmt.Sprintf("lead-%d", i))
		lead.DedupeKey = fmt.Sprintf("domain:venue%d.com", i)
		require.NoError(t, st.SaveLead(ctx, lead))
	}
	require.NoError(t, st.SaveLead(ctx, testLead("owner-2", "other")))

	n, err := st.DeleteAllLeads(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	kept, err := st.ListLeads(ctx, "owner-2", LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestSQLite_SeedCRUD(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	seed := &model.QuerySeed{
		ID:        "seed-1",
		OwnerID:   "owner-1",
		Region:    "Orange County",
		Keywords:  []string{"nightclub", "live dj"},
		Source:    "web_search",
		Persona:   model.PersonaPerformer,
		Active:    true,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.SaveSeed(ctx, seed))

	seeds, err := st.ListSeeds(ctx, "owner-1", model.PersonaPerformer)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, []string{"nightclub", "live dj"}, seeds[0].Keywords)

	// Upsert on id.
	seed.Active = false
	require.NoError(t, st.SaveSeed(ctx, seed))
	seeds, err = st.ListSeeds(ctx, "owner-1", model.PersonaPerformer)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.False(t, seeds[0].Active)

	// Persona filter.
	other, err := st.ListSeeds(ctx, "owner-1", model.PersonaInstructor)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, st.DeleteSeed(ctx, "owner-1", "seed-1"))
	assert.ErrorIs(t, st.DeleteSeed(ctx, "owner-1", "seed-1"), ErrNotFound)
}

func TestSQLite_QuotaLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t, 3)
	st.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	q, err := st.GetQuota(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", q.Month)
	assert.Equal(t, 0, q.Used)
	assert.Equal(t, 3, q.Remaining)

	for i := 1; i <= 3; i++ {
		q, err = st.IncrementQuota(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, i, q.Used)
		assert.Equal(t, 3-i, q.Remaining)
	}

	_, err = st.IncrementQuota(ctx, "owner-1")
	var qErr *QuotaExceededError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, 3, qErr.Limit)

	// The failed attempt did not move the counter.
	q, err = st.GetQuota(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Used)
}

func TestSQLite_QuotaResetsNextMonth(t *testing.T) {
	st := newTestSQLiteStore(t, 1)
	st.now = func() time.Time { return time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := st.IncrementQuota(ctx, "owner-1")
	require.NoError(t, err)
	_, err = st.IncrementQuota(ctx, "owner-1")
	require.Error(t, err)

	st.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }
	q, err := st.IncrementQuota(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-04", q.Month)
	assert.Equal(t, 1, q.Used)
}

func TestSQLite_QuotaPerOwner(t *testing.T) {
	st := newTestSQLiteStore(t, 1)
	ctx := context.Background()

	_, err := st.IncrementQuota(ctx, "owner-1")
	require.NoError(t, err)
	_, err = st.IncrementQuota(ctx, "owner-2")
	assert.NoError(t, err)
}

func TestSQLite_SaveBookingInquiry(t *testing.T) {
	st := newTestSQLiteStore(t, 250)
	ctx := context.Background()

	inq := &model.BookingInquiry{
		ID:        "inq-1",
		OwnerID:   "owner-1",
		LeadID:    "lead-1",
		VenueName: "Sutra Lounge",
		EventKind: "other",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.SaveBookingInquiry(ctx, inq))
}
