// Package service exposes search runs as asynchronous jobs over HTTP.
package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ckaraca/tyharvest/internal/pipeline"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is a snapshot of one search run's state. Registry methods return
// copies; callers never observe concurrent mutation.
type Job struct {
	ID          string         `json:"id"`
	Query       string         `json:"query"`
	VisitorName string         `json:"visitor_name,omitempty"`
	MaxPages    int            `json:"max_pages"`
	Status      Status         `json:"status"`
	Stage       pipeline.Stage `json:"stage,omitempty"`
	Current     int            `json:"current"`
	Total       int            `json:"total"`
	Message     string         `json:"message,omitempty"`
	RowCount    int            `json:"row_count"`
	Error       string         `json:"error,omitempty"`
	OutputPath  string         `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	FinishedAt  time.Time      `json:"finished_at,omitempty"`
}

// Registry tracks all jobs of a server process in memory.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns its snapshot.
func (r *Registry) Create(query, visitorName string, maxPages int) Job {
	job := &Job{
		ID:          uuid.NewString(),
		Query:       query,
		VisitorName: visitorName,
		MaxPages:    maxPages,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
	}
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return *job
}

// Get returns a snapshot of the job, if it exists.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Start marks the job as running.
func (r *Registry) Start(id string) {
	r.update(id, func(j *Job) {
		j.Status = StatusRunning
	})
}

// Progress records a progress event on a running job.
func (r *Registry) Progress(id string, current, total int, stage pipeline.Stage, message string) {
	r.update(id, func(j *Job) {
		j.Stage = stage
		j.Current = current
		if total > 0 {
			j.Total = total
		}
		j.Message = message
	})
}

// Complete marks the job finished with its result artifact.
func (r *Registry) Complete(id string, rowCount int, outputPath string) {
	r.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.RowCount = rowCount
		j.OutputPath = outputPath
		j.FinishedAt = time.Now()
	})
}

// Fail marks the job failed.
func (r *Registry) Fail(id string, err error) {
	r.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.FinishedAt = time.Now()
	})
}

func (r *Registry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}
