// Package scheduler runs recurring maintenance jobs on independent
// intervals. It is a recurring-job runner, not a general task queue: jobs
// are registered once, fire on their interval, and stay scheduled whether a
// run succeeds or fails.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobFunc is the body of a scheduled job. A returned error is logged and
// absorbed; it never stops the scheduler or other jobs.
type JobFunc func(ctx context.Context) error

// Job is a recurring job registered with the scheduler.
type Job struct {
	ID       string
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// JobStatus describes one registered job.
type JobStatus struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	NextRun *time.Time `json:"next_run"`
}

// Status is a read of scheduler state, safe to take concurrently with job
// execution.
type Status struct {
	IsRunning bool        `json:"is_running"`
	Timezone  string      `json:"timezone"`
	Jobs      []JobStatus `json:"jobs"`
}

// Scheduler triggers registered jobs on their intervals.
type Scheduler struct {
	enabled  bool
	location *time.Location

	mu      sync.Mutex
	jobs    []*Job
	nextRun map[string]time.Time
	running bool
	cancel  context.CancelFunc
}

// New creates a Scheduler. When enabled is false, Start is a no-op.
func New(enabled bool, timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Printf("unknown timezone %q, falling back to UTC: %v", timezone, err)
		loc = time.UTC
	}
	return &Scheduler{
		enabled:  enabled,
		location: loc,
		nextRun:  make(map[string]time.Time),
	}
}

// AddJob registers a job. Re-adding a job with the same id replaces it.
// Jobs must be registered before Start.
func (s *Scheduler) AddJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.jobs {
		if existing.ID == job.ID {
			s.jobs[i] = job
			return
		}
	}
	s.jobs = append(s.jobs, job)
}

// Start launches one trigger loop per registered job. It is a no-op when
// the scheduler is already running or disabled by configuration.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Println("scheduler is already running")
		return
	}
	if !s.enabled {
		log.Println("scheduler is disabled by configuration")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	now := time.Now().In(s.location)
	for _, job := range s.jobs {
		s.nextRun[job.ID] = now.Add(job.Interval)
		go s.runLoop(runCtx, job)
	}

	log.Printf("scheduler started with %d jobs", len(s.jobs))
}

// Stop cancels all pending triggers. It does not wait for an in-flight run
// to finish; each job is independently idempotent, so abandoning a run is
// safe.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		log.Println("scheduler is not running")
		return
	}

	s.cancel()
	s.running = false
	s.nextRun = make(map[string]time.Time)
	log.Println("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetStatus returns the scheduler state and per-job next-run times.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		js := JobStatus{ID: job.ID, Name: job.Name}
		if next, ok := s.nextRun[job.ID]; ok {
			nextCopy := next
			js.NextRun = &nextCopy
		}
		jobs = append(jobs, js)
	}

	return Status{
		IsRunning: s.running,
		Timezone:  s.location.String(),
		Jobs:      jobs,
	}
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.nextRun[job.ID] = time.Now().In(s.location).Add(job.Interval)
			s.mu.Unlock()

			if err := job.Run(ctx); err != nil {
				log.Printf("job %s failed: %v", job.ID, err)
			}
		}
	}
}
