// Package jobs tracks job applications and their interactions. Every
// operation is scoped to the calling identity.
package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/ids"
	"jobtrack.dev/internal/validation"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Service applies validation and ownership on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new job owned by the session identity.
func (s *Service) Create(ctx context.Context, sess auth.Session, in JobInput) (Job, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.PositionTitle = strings.TrimSpace(in.PositionTitle)
	in.JobURL = strings.TrimSpace(in.JobURL)
	if err := validation.Struct(in); err != nil {
		return Job{}, err
	}
	if err := checkSalaryRange(in.SalaryMin, in.SalaryMax); err != nil {
		return Job{}, err
	}
	if in.Status == "" {
		in.Status = StatusApplied
	}
	now := s.now().UTC()
	return s.store.CreateJob(ctx, Job{
		ID:             ids.New(),
		UserID:         sess.Identity.ID,
		CompanyName:    in.CompanyName,
		PositionTitle:  in.PositionTitle,
		JobDescription: in.JobDescription,
		JobURL:         in.JobURL,
		Status:         in.Status,
		SalaryMin:      in.SalaryMin,
		SalaryMax:      in.SalaryMax,
		Location:       in.Location,
		RemoteType:     in.RemoteType,
		Notes:          in.Notes,
		AppliedDate:    in.AppliedDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// List pages through the caller's jobs, newest first.
func (s *Service) List(ctx context.Context, sess auth.Session, offset, limit int) ([]Job, error) {
	if offset < 0 {
		return nil, validation.Field("skip", "must be greater than or equal to 0")
	}
	switch {
	case limit < 0:
		return nil, validation.Field("limit", "must be greater than or equal to 0")
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return s.store.ListJobs(ctx, sess.Identity.ID, offset, limit)
}

// Get returns one of the caller's jobs with its interactions.
func (s *Service) Get(ctx context.Context, sess auth.Session, id string) (Job, error) {
	return s.owned(ctx, sess, id)
}

// Update applies a partial update to one of the caller's jobs.
func (s *Service) Update(ctx context.Context, sess auth.Session, id string, upd JobUpdate) (Job, error) {
	if upd.CompanyName != nil {
		v := strings.TrimSpace(*upd.CompanyName)
		upd.CompanyName = &v
	}
	if upd.PositionTitle != nil {
		v := strings.TrimSpace(*upd.PositionTitle)
		upd.PositionTitle = &v
	}
	if err := validation.Struct(upd); err != nil {
		return Job{}, err
	}
	job, err := s.owned(ctx, sess, id)
	if err != nil {
		return Job{}, err
	}
	merged := job
	upd.apply(&merged)
	if err := checkSalaryRange(merged.SalaryMin, merged.SalaryMax); err != nil {
		return Job{}, err
	}
	return s.store.UpdateJob(ctx, id, upd, s.now().UTC())
}

// Delete removes one of the caller's jobs and its interactions.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id string) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}
	return s.store.DeleteJob(ctx, id)
}

// AddInteraction records an interaction on one of the caller's jobs.
func (s *Service) AddInteraction(ctx context.Context, sess auth.Session, jobID string, in InteractionInput) (Interaction, error) {
	if err := validation.Struct(in); err != nil {
		return Interaction{}, err
	}
	if _, err := s.owned(ctx, sess, jobID); err != nil {
		return Interaction{}, err
	}
	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}
	return s.store.AddInteraction(ctx, Interaction{
		ID:        ids.New(),
		JobID:     jobID,
		Type:      in.Type,
		Date:      date,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ListInteractions returns the interactions of one of the caller's jobs.
func (s *Service) ListInteractions(ctx context.Context, sess auth.Session, jobID string) ([]Interaction, error) {
	if _, err := s.owned(ctx, sess, jobID); err != nil {
		return nil, err
	}
	return s.store.ListInteractions(ctx, jobID)
}

// DeleteInteraction removes an interaction that belongs to jobID.
func (s *Service) DeleteInteraction(ctx context.Context, sess auth.Session, jobID, interactionID string) error {
	if _, err := s.owned(ctx, sess, jobID); err != nil {
		return err
	}
	if !ids.Valid(interactionID) {
		return ErrNotFound
	}
	in, err := s.store.GetInteraction(ctx, interactionID)
	if err != nil {
		return err
	}
	if in.JobID != jobID {
		return ErrNotFound
	}
	return s.store.DeleteInteraction(ctx, interactionID)
}

// Stats counts the caller's jobs per status. Every status is present.
func (s *Service) Stats(ctx context.Context, sess auth.Session) (Stats, error) {
	counts, err := s.store.CountByStatus(ctx, sess.Identity.ID)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{ByStatus: make(map[Status]int, len(Statuses))}
	for _, st := range Statuses {
		out.ByStatus[st] = counts[st]
		out.Total += counts[st]
	}
	return out, nil
}

// owned loads a job and hides it unless the session owns it.
func (s *Service) owned(ctx context.Context, sess auth.Session, id string) (Job, error) {
	if !ids.Valid(id) {
		return Job{}, ErrNotFound
	}
	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	if err := auth.RequireOwner(sess, job.UserID); err != nil {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func checkSalaryRange(lo, hi *int) error {
	if lo != nil && hi != nil && *lo > *hi {
		return validation.Field("salary_max", "must not be less than salary_min")
	}
	return nil
}
