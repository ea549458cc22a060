// Package api exposes the lead pipeline over HTTP. The identity provider
// is an external collaborator; the owner and persona arrive as headers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digital-duende/leadfinder/internal/discovery"
	"github.com/digital-duende/leadfinder/internal/enrich"
	"github.com/digital-duende/leadfinder/internal/handoff"
	"github.com/digital-duende/leadfinder/internal/model"
	"github.com/digital-duende/leadfinder/internal/pipeline"
	"github.com/digital-duende/leadfinder/internal/ratelimit"
	"github.com/digital-duende/leadfinder/internal/store"
)

// Server wires HTTP handlers to the pipeline, discovery, and store.
type Server struct {
	router  chi.Router
	pipe    *pipeline.Pipeline
	disc    *discovery.Orchestrator
	store   store.Store
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// NewServer constructs a Server with middleware and routes.
func NewServer(pipe *pipeline.Pipeline, disc *discovery.Orchestrator, st store.Store, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		pipe:    pipe,
		disc:    disc,
		store:   st,
		limiter: limiter,
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Owner-ID", "X-Persona"},
	}))

	r.Get("/healthz", s.healthz)

	r.Route("/api/leads", func(r chi.Router) {
		r.Post("/scan", s.scan)
		r.Post("/batch", s.batch)
		r.Post("/discover", s.discover)

		r.Get("/", s.listLeads)
		r.Delete("/", s.deleteAllLeads)
		r.Get("/quota", s.quota)

		r.Route("/seeds", func(r chi.Router) {
			r.Get("/", s.listSeeds)
			r.Post("/", s.saveSeed)
			r.Delete("/{seedID}", s.deleteSeed)
		})

		r.Route("/{leadID}", func(r chi.Router) {
			r.Get("/", s.getLead)
			r.Delete("/", s.deleteLead)
			r.Post("/handoff", s.handoffLead)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// owner pulls the caller identity from headers. Empty owner is rejected
// by the handlers via writeErr.
func owner(r *http.Request) (string, model.Persona) {
	p := model.Persona(r.Header.Get("X-Persona"))
	if p != model.PersonaInstructor {
		p = model.PersonaPerformer
	}
	return r.Header.Get("X-Owner-ID"), p
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scanRequest struct {
	URL        string `json:"url"`
	EntityName string `json:"entity_name,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Source     string `json:"source,omitempty"`
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	if err := s.limiter.Allow(ownerID + ":scan"); err != nil {
		writeErr(w, err)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	out, err := s.pipe.Run(r.Context(), pipeline.Request{
		OwnerID:    ownerID,
		URL:        req.URL,
		EntityName: req.EntityName,
		City:       req.City,
		State:      req.State,
		Source:     req.Source,
		SourceURL:  req.URL,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type batchRequest struct {
	URLs []discovery.BatchInput `json:"urls"`
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	if err := s.limiter.Allow(ownerID + ":scan"); err != nil {
		writeErr(w, err)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	res, err := s.disc.BatchScan(r.Context(), ownerID, req.URLs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type discoverRequest struct {
	Region   string `json:"region,omitempty"`
	MaxSeeds int    `json:"max_seeds,omitempty"`
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	ownerID, persona := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	if err := s.limiter.Allow(ownerID + ":scan"); err != nil {
		writeErr(w, err)
		return
	}

	var req discoverRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	res, err := s.disc.Discover(r.Context(), ownerID, persona, discovery.Options{
		Region:   req.Region,
		MaxSeeds: req.MaxSeeds,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}

	q := r.URL.Query()
	filter := store.LeadFilter{
		Status:   model.LeadStatus(q.Get("status")),
		Priority: model.Priority(q.Get("priority")),
	}
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_score must be an integer")
			return
		}
		filter.MinScore = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	leads, err := s.store.ListLeads(r.Context(), ownerID, filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	lead, err := s.store.GetLead(r.Context(), ownerID, chi.URLParam(r, "leadID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	if err := s.store.DeleteLead(r.Context(), ownerID, chi.URLParam(r, "leadID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) deleteAllLeads(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	n, err := s.store.DeleteAllLeads(r.Context(), ownerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) quota(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	q, err := s.store.GetQuota(r.Context(), ownerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) listSeeds(w http.ResponseWriter, r *http.Request) {
	ownerID, persona := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	seeds, err := s.store.ListSeeds(r.Context(), ownerID, persona)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeds": seeds, "count": len(seeds)})
}

func (s *Server) saveSeed(w http.ResponseWriter, r *http.Request) {
	ownerID, persona := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}

	var seed model.QuerySeed
	if err := json.NewDecoder(r.Body).Decode(&seed); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if seed.Region == "" || len(seed.Keywords) == 0 {
		writeError(w, http.StatusBadRequest, "region and keywords are required")
		return
	}
	seed.OwnerID = ownerID
	seed.Persona = persona
	if seed.ID == "" {
		seed.ID = uuid.New().String()
	}
	if seed.Source == "" {
		seed.Source = "web_search"
	}
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = s.now().UTC()
	}
	seed.Active = true

	if err := s.store.SaveSeed(r.Context(), &seed); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seed)
}

func (s *Server) deleteSeed(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}
	if err := s.store.DeleteSeed(r.Context(), ownerID, chi.URLParam(r, "seedID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handoffLead(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner(r)
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return
	}

	lead, err := s.store.GetLead(r.Context(), ownerID, chi.URLParam(r, "leadID"))
	if err != nil {
		writeErr(w, err)
		return
	}

	ready, missing := handoff.ValidateReady(lead)
	if !ready {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "lead is not ready for handoff",
			"missing": missing,
		})
		return
	}

	brief := handoff.Generate(lead)
	inq := handoff.ToBookingInquiry(lead, brief, s.now())
	if err := s.store.SaveBookingInquiry(r.Context(), inq); err != nil {
		writeErr(w, err)
		return
	}

	if lead.Status == model.StatusNew {
		lead.Status = model.StatusQueued
		if err := s.store.SaveLead(r.Context(), lead); err != nil {
			writeErr(w, err)
			return
		}
	}

	zap.L().Info("lead handed off",
		zap.String("lead_id", lead.LeadID),
		zap.String("inquiry_id", inq.ID),
	)
	writeJSON(w, http.StatusOK, map[string]any{"brief": brief, "inquiry": inq})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps domain errors to HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var (
		validationErr *enrich.ValidationError
		fetchErr      *enrich.FetchError
		rateErr       *ratelimit.RateLimitError
		quotaErr      *store.QuotaExceededError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		writeError(w, http.StatusTooManyRequests, rateErr.Error())
	case errors.As(err, &quotaErr):
		writeError(w, http.StatusTooManyRequests, quotaErr.Error())
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusBadGateway, fetchErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
