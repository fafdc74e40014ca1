package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu           sync.RWMutex
	jobs         map[string]Job
	interactions map[string]Interaction
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		jobs:         make(map[string]Job),
		interactions: make(map[string]Interaction),
	}
}

func (s *InMemory) CreateJob(ctx context.Context, job Job) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Interactions = nil
	s.jobs[job.ID] = copyJob(job)
	job.Interactions = []Interaction{}
	return job, nil
}

func (s *InMemory) GetJob(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	out := copyJob(job)
	out.Interactions = s.interactionsLocked(id)
	return out, nil
}

func (s *InMemory) ListJobs(ctx context.Context, userID string, offset, limit int) ([]Job, error) {
	s.mu.RLock()
	var out []Job
	for _, job := range s.jobs {
		if job.UserID == userID {
			j := copyJob(job)
			j.Interactions = []Interaction{}
			out = append(out, j)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Job{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) UpdateJob(ctx context.Context, id string, upd JobUpdate, at time.Time) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	upd.apply(&job)
	job.UpdatedAt = at
	s.jobs[id] = job
	out := copyJob(job)
	out.Interactions = s.interactionsLocked(id)
	return out, nil
}

func (s *InMemory) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	for iid, in := range s.interactions {
		if in.JobID == id {
			delete(s.interactions, iid)
		}
	}
	return nil
}

func (s *InMemory) AddInteraction(ctx context.Context, in Interaction) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[in.JobID]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	s.interactions[in.ID] = in
	job.UpdatedAt = in.CreatedAt
	s.jobs[job.ID] = job
	return in, nil
}

func (s *InMemory) GetInteraction(ctx context.Context, id string) (Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.interactions[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	return in, nil
}

func (s *InMemory) ListInteractions(ctx context.Context, jobID string) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interactionsLocked(jobID), nil
}

func (s *InMemory) DeleteInteraction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interactions[id]; !ok {
		return ErrNotFound
	}
	delete(s.interactions, id)
	return nil
}

func (s *InMemory) CountByStatus(ctx context.Context, userID string) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Status]int)
	for _, job := range s.jobs {
		if job.UserID == userID {
			out[job.Status]++
		}
	}
	return out, nil
}

// interactionsLocked returns a job's interactions, most recent first.
func (s *InMemory) interactionsLocked(jobID string) []Interaction {
	out := []Interaction{}
	for _, in := range s.interactions {
		if in.JobID == jobID {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// copyJob detaches pointer fields so callers cannot mutate stored state.
func copyJob(j Job) Job {
	if j.SalaryMin != nil {
		v := *j.SalaryMin
		j.SalaryMin = &v
	}
	if j.SalaryMax != nil {
		v := *j.SalaryMax
		j.SalaryMax = &v
	}
	if j.AppliedDate != nil {
		v := *j.AppliedDate
		j.AppliedDate = &v
	}
	return j
}
