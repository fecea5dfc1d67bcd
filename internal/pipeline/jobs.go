package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/lessondeck/internal/export"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusCapturing JobStatus = "capturing"
	StatusSaved     JobStatus = "saved"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job will not change again.
func (s JobStatus) Terminal() bool {
	return s == StatusSaved || s == StatusFailed
}

// Job tracks one asynchronous deck export.
type Job struct {
	mu sync.Mutex

	ID     string      `json:"job_id"`
	DeckID string      `json:"deck_id"`
	Mode   export.Mode `json:"mode"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	result *export.Result
	err    string
}

// Progress counts captured slides.
type Progress struct {
	TotalSlides    int `json:"total_slides"`
	SlidesCaptured int `json:"slides_captured"`
}

// NewJob returns a queued job with a fresh id.
func NewJob(deckID string, mode export.Mode) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DeckID:    deckID,
		Mode:      mode,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetProgress records captured slides out of total.
func (j *Job) SetProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SlidesCaptured = done
	j.Progress.TotalSlides = total
	j.UpdatedAt = time.Now()
}

// Finish records the export outcome and moves the job to a terminal status.
func (j *Job) Finish(res *export.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.Status = StatusFailed
		j.Phase = "failed"
		j.err = err.Error()
	} else {
		j.Status = StatusSaved
		j.Phase = "done"
		j.result = res
	}
	j.UpdatedAt = time.Now()
}

// Result returns the export result once saved.
func (j *Job) Result() *export.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string         `json:"job_id"`
	DeckID    string         `json:"deck_id"`
	Mode      export.Mode    `json:"mode"`
	Status    JobStatus      `json:"status"`
	Phase     string         `json:"phase"`
	Progress  Progress       `json:"progress"`
	Error     string         `json:"error,omitempty"`
	Result    *export.Result `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:        j.ID,
		DeckID:    j.DeckID,
		Mode:      j.Mode,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  j.Progress,
		Error:     j.err,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.result != nil {
		r := *j.result
		snap.Result = &r
	}
	return snap
}
