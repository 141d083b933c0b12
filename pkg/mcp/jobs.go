package mcp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a scrape job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents a background scrape run
type Job struct {
	ID           string    `json:"id"`
	Seed         string    `json:"seed"`
	Threads      int       `json:"threads"`
	Status       JobStatus `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	Stage        string    `json:"stage,omitempty"` // Current pipeline phase
	Done         int       `json:"done"`            // Items finished in the current phase
	Total        int       `json:"total"`           // Items in the current phase
	Message      string    `json:"message,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

func (j *Job) finished() bool {
	return j.Status != JobStatusPending && j.Status != JobStatusRunning
}

// JobManager tracks background scrape jobs. Accessors return copies.
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	bySeed map[string]string // seed -> jobID for unfinished jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:   make(map[string]*Job),
		bySeed: make(map[string]string),
	}
}

// CreateJob registers a pending job for seed. If one is already pending or
// running for the same seed it is returned instead and created is false.
func (m *JobManager) CreateJob(seed string, threads int) (job Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, ok := m.bySeed[seed]; ok {
		if existing := m.jobs[existingID]; existing != nil && !existing.finished() {
			return *existing, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.NewString(),
		Seed:      seed,
		Threads:   threads,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.jobs[j.ID] = j
	m.bySeed[seed] = j.ID
	return *j, true
}

// GetJob returns a snapshot of a job
func (m *JobManager) GetJob(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[jobID]; ok {
		return *j, true
	}
	return Job{}, false
}

// IsRunning reports whether an unfinished job exists for seed
func (m *JobManager) IsRunning(seed string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if jobID, ok := m.bySeed[seed]; ok {
		j := m.jobs[jobID]
		return j != nil && !j.finished()
	}
	return false
}

// Start marks a job running. It returns false when the job was cancelled first.
func (m *JobManager) Start(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != JobStatusPending {
		return false
	}
	j.Status = JobStatusRunning
	return true
}

// Finish records the outcome of a job. A cancelled job keeps its status.
func (m *JobManager) Finish(jobID string, status JobStatus, message, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok || j.finished() {
		return
	}
	j.Status = status
	j.CompletedAt = time.Now()
	j.Message = message
	j.ErrorMessage = errorMsg
	j.cancel()
	delete(m.bySeed, j.Seed)
}

// UpdateProgress records how far the current phase has got
func (m *JobManager) UpdateProgress(jobID, stage string, done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.Stage = stage
		j.Done = done
		j.Total = total
	}
}

// CancelJob cancels an unfinished job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok && !j.finished() {
		j.cancel()
		j.Status = JobStatusCancelled
		j.CompletedAt = time.Now()
		delete(m.bySeed, j.Seed)
		return true
	}
	return false
}

// CancelAll cancels every unfinished job
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if !j.finished() {
			j.cancel()
			j.Status = JobStatusCancelled
			j.CompletedAt = time.Now()
		}
	}
	m.bySeed = make(map[string]string)
}

// ListJobs returns snapshots of all jobs, newest first
func (m *JobManager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].StartedAt.After(jobs[b].StartedAt) })
	return jobs
}

// Context returns the context that cancels with the job
func (m *JobManager) Context(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[jobID]; ok {
		return j.ctx
	}
	return context.Background()
}
