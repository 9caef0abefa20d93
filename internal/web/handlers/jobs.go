package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// WarmJob tracks one pass extracting features for the whole catalog.
type WarmJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Skipped     int        `json:"skipped"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	mu sync.RWMutex
}

func (j *WarmJob) snapshot() WarmJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return WarmJob{
		ID:          j.ID,
		Status:      j.Status,
		Total:       j.Total,
		Processed:   j.Processed,
		Skipped:     j.Skipped,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// JobManager manages async warm jobs.
type JobManager struct {
	jobs map[string]*WarmJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*WarmJob),
	}
}

// CreateJob registers a new pending warm job.
func (m *JobManager) CreateJob() *WarmJob {
	job := &WarmJob{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *WarmJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// WarmHandler runs cache warm jobs over the whole product store.
type WarmHandler struct {
	store     *catalog.Store
	resolver  *catalog.Resolver
	extractor *similarity.Extractor
	jobs      *JobManager
}

// NewWarmHandler creates a new warm handler.
func NewWarmHandler(store *catalog.Store, resolver *catalog.Resolver, extractor *similarity.Extractor, jobs *JobManager) *WarmHandler {
	return &WarmHandler{
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		jobs:      jobs,
	}
}

// Start kicks off an async warm job and returns its ID for polling.
func (h *WarmHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.extractor.Available() {
		respondError(w, http.StatusServiceUnavailable, "no vision provider configured")
		return
	}

	job := h.jobs.CreateJob()
	go h.run(job)

	respondJSON(w, http.StatusAccepted, job.snapshot())
}

// Status returns the current state of a warm job.
func (h *WarmHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusOK, job.snapshot())
}

// run walks the store and extracts features for every product that has an
// image. Products without a readable document or image are counted as
// skipped, never fatal.
func (h *WarmHandler) run(job *WarmJob) {
	ids, err := h.store.List()
	if err != nil {
		h.finish(job, JobStatusFailed, err.Error())
		return
	}

	job.mu.Lock()
	job.Status = JobStatusRunning
	job.Total = len(ids)
	job.mu.Unlock()

	ctx := context.Background()
	for _, id := range ids {
		rec, err := h.store.Read(id)
		if err != nil {
			log.Printf("warm: skipping unreadable document %s: %v", sanitizeForLog(id), err)
			h.bump(job, false)
			continue
		}

		imagePath, err := h.resolver.Resolve(rec, false)
		if err != nil {
			h.bump(job, false)
			continue
		}

		h.extractor.Extract(ctx, imagePath, id)
		h.bump(job, true)
	}

	h.finish(job, JobStatusCompleted, "")
}

func (h *WarmHandler) bump(job *WarmJob, processed bool) {
	job.mu.Lock()
	if processed {
		job.Processed++
	} else {
		job.Skipped++
	}
	job.mu.Unlock()
}

func (h *WarmHandler) finish(job *WarmJob, status JobStatus, errMsg string) {
	now := time.Now()
	job.mu.Lock()
	job.Status = status
	job.Error = errMsg
	job.CompletedAt = &now
	job.mu.Unlock()
}
