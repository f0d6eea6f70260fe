package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amzgrab/amzgrab/internal/catalog"
	"github.com/amzgrab/amzgrab/internal/jobs"
	"github.com/amzgrab/amzgrab/internal/marketplace"
)

var errInvalidPages = errors.New("pages must be a positive integer")

type Handlers struct {
	fetcher       catalog.Fetcher
	jobs          *jobs.Manager
	logger        *slog.Logger
	defaultRegion string
	maxPages      int
}

func NewHandlers(fetcher catalog.Fetcher, jobs *jobs.Manager, defaultRegion string, maxPages int, logger *slog.Logger) *Handlers {
	return &Handlers{
		fetcher:       fetcher,
		jobs:          jobs,
		logger:        logger,
		defaultRegion: defaultRegion,
		maxPages:      maxPages,
	}
}

// Search handles synchronous search requests and responds with the
// collection serialized as an ASIN-keyed document.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	pages, err := h.parsePages(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	region := h.region(r)
	if _, err := marketplace.BaseURL(region); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	col, err := catalog.New(r.Context(),
		catalog.WithQuery(query),
		catalog.WithPages(pages...),
		catalog.WithRegion(region),
		catalog.WithFetcher(h.fetcher),
		catalog.WithLogger(h.logger),
	)
	if err != nil {
		h.logger.Error("search failed", "error", err, "query", query)
		h.respondError(w, http.StatusBadGateway, "search failed")
		return
	}

	h.respondJSON(w, http.StatusOK, col.ToDoc(true, false))
}

// GetProduct fetches one product by ASIN at the requested detail level.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	asin := chi.URLParam(r, "asin")
	if asin == "" {
		h.respondError(w, http.StatusBadRequest, "asin is required")
		return
	}

	level := catalog.LevelBasic
	if s := r.URL.Query().Get("level"); s != "" {
		var err error
		level, err = catalog.ParseDetailLevel(s)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	region := h.region(r)
	product, err := catalog.NewProductForASIN(asin, region)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := product.FetchDetails(r.Context(), h.fetcher, level, ""); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if product.FetchError() != "" {
		h.logger.Error("product fetch failed", "asin", asin, "error", product.FetchError())
		h.respondError(w, http.StatusBadGateway, product.FetchError())
		return
	}

	h.respondJSON(w, http.StatusOK, product.ToDoc(true, false))
}

// CreateJobRequest represents a new background search job.
type CreateJobRequest struct {
	Query       string `json:"query"`
	MaxPages    int    `json:"max_pages"`
	Region      string `json:"region"`
	DetailLevel string `json:"detail_level"`
}

// CreateJobResponse represents the job creation response.
type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateJob handles new background job creation.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	if req.MaxPages <= 0 || req.MaxPages > h.maxPages {
		req.MaxPages = h.maxPages
	}
	pages := make([]int, req.MaxPages)
	for i := range pages {
		pages[i] = i + 1
	}

	region := req.Region
	if region == "" {
		region = h.defaultRegion
	}
	if _, err := marketplace.BaseURL(region); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	level := catalog.LevelSearch
	if req.DetailLevel != "" {
		var err error
		level, err = catalog.ParseDetailLevel(req.DetailLevel)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	// Jobs outlive the request, so they run on a background context.
	job, err := h.jobs.Submit(context.Background(), req.Query, pages, region, level)
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{JobID: job.ID, Status: job.Status})
}

// GetJob handles job status retrieval.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.Get(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// GetJobResult returns the serialized collection of a completed job.
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	col, err := h.jobs.Result(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, col.ToDoc(true, false))
}

// ListJobs handles listing all jobs.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.List())
}

// GetStats handles statistics retrieval.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.GetStats())
}

// Health handles liveness checks.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) region(r *http.Request) string {
	if region := r.URL.Query().Get("region"); region != "" {
		return region
	}
	return h.defaultRegion
}

func (h *Handlers) parsePages(r *http.Request) ([]int, error) {
	raw := r.URL.Query().Get("pages")
	if raw == "" {
		return []int{1}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, errInvalidPages
	}
	if n > h.maxPages {
		n = h.maxPages
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages, nil
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
