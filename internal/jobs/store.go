package jobs

import (
	"context"
	"time"
)

// Store persists jobs and their interactions. Lookups by id return
// ErrNotFound when nothing matches; ownership is the Service's concern.
type Store interface {
	CreateJob(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, id string) (Job, error)
	// ListJobs returns a user's jobs newest first, without interactions.
	ListJobs(ctx context.Context, userID string, offset, limit int) ([]Job, error)
	UpdateJob(ctx context.Context, id string, upd JobUpdate, at time.Time) (Job, error)
	DeleteJob(ctx context.Context, id string) error

	// AddInteraction stores the interaction and bumps the job's updated_at.
	AddInteraction(ctx context.Context, in Interaction) (Interaction, error)
	GetInteraction(ctx context.Context, id string) (Interaction, error)
	ListInteractions(ctx context.Context, jobID string) ([]Interaction, error)
	DeleteInteraction(ctx context.Context, id string) error

	CountByStatus(ctx context.Context, userID string) (map[Status]int, error)
}
