package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-duende/leadfinder/internal/discovery"
	"github.com/digital-duende/leadfinder/internal/enrich"
	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/pipeline"
	"github.com/digital-duende/leadfinder/internal/ratelimit"
	"github.com/digital-duende/leadfinder/internal/store"
	"github.com/digital-duende/leadfinder/pkg/websearch"
)

const clubPage = `<html><body>
<h1>Sutra Lounge - Costa Mesa Nightclub</h1>
<p>Nightclub with live DJ sets, Latin night Thursdays, bottle service.</p>
<p>We host private events. Our venue holds 450 guests.</p>
<p>Contact: <a href="mailto:events@sutraoc.com">events@sutraoc.com</a> or (949) 555-0188.</p>
<a href="https://instagram.com/sutraoc">Instagram</a>
</body></html>`

// stubSearch satisfies websearch.Client; the discover endpoint tests only
// exercise the quota path, so no results are needed.
type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string, maxResults int) ([]websearch.SearchResult, error) {
	return nil, nil
}

func newTestServer(t *testing.T, rateLimit int) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leadfinder.db"), 5)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	pipe := pipeline.New(enrich.New(enrich.Options{AllowPrivateHosts: true}), st)
	disc := discovery.New(stubSearch{}, pipe, st, 2)
	limiter := ratelimit.New(rateLimit, time.Minute)
	return NewServer(pipe, disc, st, limiter), st
}

func doJSON(t *testing.T, h http.Handler, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func venueServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(clubPage)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScan_RequiresOwnerHeader(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "", map[string]string{"url": "https://venue.example"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-Owner-ID")
}

func TestScan_RequiresURL(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "url is required")
}

func TestScan_BlockedURLIs400(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1",
		map[string]string{"url": "http://169.254.169.254/latest"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScan_UnreachableURLIs502(t *testing.T) {
	s, _ := newTestServer(t, 100)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := dead.URL
	dead.Close()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{"url": url})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestScan_PersistsLead(t *testing.T) {
	s, st := newTestServer(t, 100)
	venue := venueServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{
		"url":  venue.URL,
		"city": "Costa Mesa",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out pipeline.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.IsNew)
	require.NotNil(t, out.Lead)
	assert.Equal(t, "events@sutraoc.com", out.Lead.Email)

	leads, err := st.ListLeads(context.Background(), "owner-1", store.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestScan_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, 1)
	venue := venueServer(t)

	first := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{"url": venue.URL})
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{"url": venue.URL})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestListLeads_Filters(t *testing.T) {
	s, st := newTestServer(t, 100)
	ctx := context.Background()

	for i, score := range []int{85, 25} {
		require.NoError(t, st.SaveLead(ctx, &model.Lead{
			LeadID:    fmt.Sprintf("lead-%d", i),
			OwnerID:   "owner-1",
			DedupeKey: fmt.Sprintf("domain:venue%d.com", i),
			Status:    model.StatusNew,
			Priority:  model.PriorityP3,
			Score:     score,
		}))
	}

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/leads/?min_score=40", "owner-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int          `json:"count"`
		Leads []model.Lead `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	bad := doJSON(t, s.Handler(), http.MethodGet, "/api/leads/?min_score=abc", "owner-1", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGetLead_NotFound(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/leads/nope", "owner-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAllLeads_ReturnsCount(t *testing.T) {
	s, st := newTestServer(t, 100)
	require.NoError(t, st.SaveLead(context.Background(), &model.Lead{
		LeadID: "lead-1", OwnerID: "owner-1", DedupeKey: "domain:venue.com",
		Status: model.StatusNew, Priority: model.PriorityP3,
	}))

	rec := doJSON(t, s.Handler(), http.MethodDelete, "/api/leads/", "owner-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
}

func TestQuotaEndpoint(t *testing.T) {
	s, _ := newTestServer(t, 100)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/leads/quota", "owner-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var q model.SearchQuota
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 0, q.Used)
	assert.Equal(t, 5, q.Remaining)
}

func TestSeedEndpoints(t *testing.T) {
	s, _ := newTestServer(t, 100)
	h := s.Handler()

	created := doJSON(t, h, http.MethodPost, "/api/leads/seeds/", "owner-1", map[string]any{
		"region":   "Costa Mesa",
		"keywords": []string{"nightclub", "live dj"},
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var seed model.QuerySeed
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &seed))
	assert.NotEmpty(t, seed.ID)
	assert.True(t, seed.Active)
	assert.Equal(t, "web_search", seed.Source)
	assert.Equal(t, model.PersonaPerformer, seed.Persona)

	list := doJSON(t, h, http.MethodGet, "/api/leads/seeds/", "owner-1", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"count":1`)

	missing := doJSON(t, h, http.MethodPost, "/api/leads/seeds/", "owner-1", map[string]any{"region": "Costa Mesa"})
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	deleted := doJSON(t, h, http.MethodDelete, "/api/leads/seeds/"+seed.ID, "owner-1", nil)
	assert.Equal(t, http.StatusOK, deleted.Code)

	again := doJSON(t, h, http.MethodDelete, "/api/leads/seeds/"+seed.ID, "owner-1", nil)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestDiscover_QuotaExhaustedIs429(t *testing.T) {
	s, st := newTestServer(t, 100)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := st.IncrementQuota(ctx, "owner-1")
		require.NoError(t, err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/discover", "owner-1", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "monthly search limit")
}

func TestHandoff_FlowAndStatusTransition(t *testing.T) {
	s, st := newTestServer(t, 100)
	venue := venueServer(t)
	h := s.Handler()

	scan := doJSON(t, h, http.MethodPost, "/api/leads/scan", "owner-1", map[string]string{
		"url":         venue.URL,
		"entity_name": "Sutra Lounge",
		"city":        "Costa Mesa",
	})
	require.Equal(t, http.StatusOK, scan.Code)

	var out pipeline.Outcome
	require.NoError(t, json.Unmarshal(scan.Body.Bytes(), &out))
	require.NotNil(t, out.Lead)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/"+out.Lead.LeadID+"/handoff", "owner-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Inquiry model.BookingInquiry `json:"inquiry"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, out.Lead.LeadID, resp.Inquiry.LeadID)
	assert.Equal(t, "Sutra Lounge", resp.Inquiry.VenueName)

	lead, err := st.GetLead(context.Background(), "owner-1", out.Lead.LeadID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, lead.Status)
}

func TestHandoff_NotReadyIs422(t *testing.T) {
	s, st := newTestServer(t, 100)
	require.NoError(t, st.SaveLead(context.Background(), &model.Lead{
		LeadID:    "lead-1",
		OwnerID:   "owner-1",
		DedupeKey: "unknown:lead-1",
		Status:    model.StatusNew,
		Priority:  model.PriorityP3,
	}))

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/leads/lead-1/handoff", "owner-1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "entity_name")
	assert.Contains(t, rec.Body.String(), "contact method")
}
