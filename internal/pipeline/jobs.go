package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued        JobStatus = "queued"
	StatusExtracting    JobStatus = "extracting"
	StatusExporting     JobStatus = "exporting"
	StatusDeduplicating JobStatus = "deduplicating"
	StatusUploading     JobStatus = "uploading"
	StatusCompleted     JobStatus = "completed"
	StatusFailed        JobStatus = "failed"
)

// Resource is the file description carried by an extraction request.
type Resource struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FileExt    string   `json:"file_ext"`
	Parent     Parent   `json:"parent"`
	LocalPaths []string `json:"local_paths,omitempty"`
}

// Parent identifies the dataset that owns the file.
type Parent struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`
}

// Output is one file published to the dataset for a job.
type Output struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// Job tracks the state of a single document extraction.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Resource Resource  `json:"resource"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`

	Progress Progress `json:"progress"`
	Messages []string `json:"messages"`
	Outputs  []Output `json:"outputs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	ownedInput string
	errors     []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages     int      `json:"total_pages"`
	PagesProcessed int      `json:"pages_processed"`
	Sentences      int      `json:"sentences"`
	SkippedPages   []int    `json:"skipped_pages"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for res with a fresh ID.
func NewJob(res Resource) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Resource:  res,
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Message appends a progress message to the job's status channel.
func (j *Job) Message(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Messages = append(j.Messages, msg)
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalPages records the page count of the opened document.
func (j *Job) SetTotalPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = n
	j.UpdatedAt = time.Now()
}

// IncrPagesProcessed counts one finished page and its sentences.
func (j *Job) IncrPagesProcessed(sentences int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesProcessed++
	j.Progress.Sentences += sentences
	j.UpdatedAt = time.Now()
}

// AddSkippedPage records a page left out under the skip policy.
func (j *Job) AddSkippedPage(page int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SkippedPages = append(j.Progress.SkippedPages, page)
	j.UpdatedAt = time.Now()
}

// AddOutput records a published output file.
func (j *Job) AddOutput(o Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Outputs = append(j.Outputs, o)
	j.UpdatedAt = time.Now()
}

// SetOwnedInput marks path as a temporary input file that the worker removes
// once the job ends.
func (j *Job) SetOwnedInput(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ownedInput = path
}

// OwnedInput returns the temporary input file, if any.
func (j *Job) OwnedInput() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ownedInput
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	FileID    string    `json:"file_id"`
	DatasetID string    `json:"dataset_id"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	Messages  []string  `json:"messages"`
	Outputs   []Output  `json:"outputs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		FileID:    j.Resource.ID,
		DatasetID: j.Resource.Parent.ID,
		Filename:  j.Resource.Name,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress: Progress{
			TotalPages:     j.Progress.TotalPages,
			PagesProcessed: j.Progress.PagesProcessed,
			Sentences:      j.Progress.Sentences,
			SkippedPages:   nonNil(j.Progress.SkippedPages),
			Errors:         nonNil(j.Progress.Errors),
		},
		Messages:  nonNil(j.Messages),
		Outputs:   nonNil(j.Outputs),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
