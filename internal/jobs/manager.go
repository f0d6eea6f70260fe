// Package jobs runs search-and-enrich jobs in the background and keeps
// their state in memory.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amzgrab/amzgrab/internal/catalog"
)

// Job represents a search-and-enrich job.
type Job struct {
	ID            string     `json:"id"`
	Query         string     `json:"query"`
	Pages         []int      `json:"pages"`
	Region        string     `json:"region"`
	DetailLevel   string     `json:"detail_level"`
	Status        string     `json:"status"`
	ProductsFound int        `json:"products_found"`
	Enriched      int        `json:"enriched"`
	FetchErrors   int        `json:"fetch_errors"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Stats summarizes all jobs held by the manager.
type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	PendingJobs   int     `json:"pending_jobs"`
	RunningJobs   int     `json:"running_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	FailedJobs    int     `json:"failed_jobs"`
	TotalProducts int     `json:"total_products"`
	SuccessRate   float64 `json:"success_rate"`
}

// Manager creates and tracks jobs. Finished collections stay available
// until the process exits.
type Manager struct {
	fetcher         catalog.Fetcher
	logger          *slog.Logger
	concurrentLimit int

	mu      sync.RWMutex
	jobs    map[string]*Job
	results map[string]*catalog.Collection
}

func NewManager(fetcher catalog.Fetcher, concurrentLimit int, logger *slog.Logger) *Manager {
	if concurrentLimit < 1 {
		concurrentLimit = 1
	}
	return &Manager{
		fetcher:         fetcher,
		logger:          logger.With("component", "job_manager"),
		concurrentLimit: concurrentLimit,
		jobs:            make(map[string]*Job),
		results:         make(map[string]*catalog.Collection),
	}
}

// Submit registers a job and starts it in the background.
func (m *Manager) Submit(ctx context.Context, query string, pages []int, region string, level catalog.DetailLevel) (*Job, error) {
	if query == "" {
		return nil, fmt.Errorf("jobs: query must not be empty")
	}
	if len(pages) == 0 {
		pages = []int{1}
	}

	job := &Job{
		ID:          uuid.New().String(),
		Query:       query,
		Pages:       pages,
		Region:      region,
		DetailLevel: level.String(),
		Status:      "pending",
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("job created", "id", job.ID, "query", query)
	go m.run(ctx, job.ID, query, pages, region, level)

	return m.snapshot(job.ID), nil
}

// Get returns a copy of the job state.
func (m *Manager) Get(jobID string) (*Job, error) {
	if job := m.snapshot(jobID); job != nil {
		return job, nil
	}
	return nil, fmt.Errorf("job not found")
}

// List returns all jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for id := range m.jobs {
		jobs = append(jobs, m.copyLocked(id))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// Result returns the collection built by a completed job.
func (m *Manager) Result(jobID string) (*catalog.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found")
	}
	if job.Status != "completed" {
		return nil, fmt.Errorf("job is %s", job.Status)
	}
	return m.results[jobID], nil
}

// GetStats summarizes all jobs.
func (m *Manager) GetStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{}
	for _, job := range m.jobs {
		stats.TotalJobs++
		switch job.Status {
		case "pending":
			stats.PendingJobs++
		case "running":
			stats.RunningJobs++
		case "completed":
			stats.CompletedJobs++
		case "failed":
			stats.FailedJobs++
		}
		stats.TotalProducts += job.ProductsFound
	}
	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100
	}
	return stats
}

func (m *Manager) run(ctx context.Context, jobID, query string, pages []int, region string, level catalog.DetailLevel) {
	m.update(jobID, func(job *Job) {
		now := time.Now()
		job.Status = "running"
		job.StartedAt = &now
	})

	col, err := catalog.New(ctx,
		catalog.WithQuery(query),
		catalog.WithPages(pages...),
		catalog.WithRegion(region),
		catalog.WithFetcher(m.fetcher),
		catalog.WithLogger(m.logger),
	)
	if err != nil {
		m.fail(jobID, err)
		return
	}

	m.update(jobID, func(job *Job) {
		job.ProductsFound = col.Len()
	})

	if level > catalog.LevelSearch {
		m.enrich(ctx, jobID, col, level)
	}

	m.mu.Lock()
	m.results[jobID] = col
	m.mu.Unlock()

	m.update(jobID, func(job *Job) {
		now := time.Now()
		job.Status = "completed"
		job.CompletedAt = &now
	})
	m.logger.Info("job completed", "id", jobID, "products", col.Len())
}

// enrich fetches product detail pages with bounded concurrency. A failed
// fetch is recorded on the product, never on the job.
func (m *Manager) enrich(ctx context.Context, jobID string, col *catalog.Collection, level catalog.DetailLevel) {
	sem := make(chan struct{}, m.concurrentLimit)
	var wg sync.WaitGroup

	for _, p := range col.Products() {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *catalog.Product) {
			defer wg.Done()
			defer func() { <-sem }()

			// The collection was built with a validated region, so the
			// only failures here are fetch failures on the product.
			err := p.FetchDetails(ctx, m.fetcher, level, "")

			m.update(jobID, func(job *Job) {
				if err != nil || p.FetchError() != "" {
					job.FetchErrors++
				} else {
					job.Enriched++
				}
			})
		}(p)
	}
	wg.Wait()
}

func (m *Manager) fail(jobID string, err error) {
	m.logger.Error("job failed", "id", jobID, "error", err)
	m.update(jobID, func(job *Job) {
		now := time.Now()
		job.Status = "failed"
		job.CompletedAt = &now
		job.Error = err.Error()
	})
}

func (m *Manager) update(jobID string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		fn(job)
	}
}

func (m *Manager) snapshot(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked(jobID)
}

func (m *Manager) copyLocked(jobID string) *Job {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *job
	cp.Pages = append([]int(nil), job.Pages...)
	return &cp
}
