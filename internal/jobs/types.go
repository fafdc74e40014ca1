package jobs

import (
	"errors"
	"time"

	"jobtrack.dev/internal/validation"
)

var (
	// ErrNotFound covers both missing jobs and jobs owned by someone else.
	ErrNotFound   = errors.New("job not found")
	ErrValidation = validation.ErrInvalid
)

// Status is the stage of an application.
type Status string

const (
	StatusApplied       Status = "applied"
	StatusInterviewing  Status = "interviewing"
	StatusOfferReceived Status = "offer_received"
	StatusRejected      Status = "rejected"
	StatusAccepted      Status = "accepted"
	StatusWithdrawn     Status = "withdrawn"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusApplied, StatusInterviewing, StatusOfferReceived,
	StatusRejected, StatusAccepted, StatusWithdrawn,
}

// RemoteType describes the work arrangement.
type RemoteType string

const (
	RemoteOnSite RemoteType = "on-site"
	RemoteHybrid RemoteType = "hybrid"
	RemoteFull   RemoteType = "remote"
)

// InteractionType classifies a contact with the employer.
type InteractionType string

const (
	InteractionInterview InteractionType = "interview"
	InteractionFollowUp  InteractionType = "follow_up"
	InteractionOffer     InteractionType = "offer"
	InteractionRejection InteractionType = "rejection"
	InteractionOther     InteractionType = "other"
)

// Job is one tracked application.
type Job struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	CompanyName    string        `json:"company_name"`
	PositionTitle  string        `json:"position_title"`
	JobDescription string        `json:"job_description,omitempty"`
	JobURL         string        `json:"job_url,omitempty"`
	Status         Status        `json:"status"`
	SalaryMin      *int          `json:"salary_min,omitempty"`
	SalaryMax      *int          `json:"salary_max,omitempty"`
	Location       string        `json:"location,omitempty"`
	RemoteType     RemoteType    `json:"remote_type,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	AppliedDate    *time.Time    `json:"applied_date,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Interactions   []Interaction `json:"interactions"`
}

// Interaction is a dated event on a job, such as an interview.
type Interaction struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	Type      InteractionType `json:"interaction_type"`
	Date      time.Time       `json:"interaction_date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobInput creates a job. Status defaults to applied.
type JobInput struct {
	CompanyName    string     `json:"company_name" validate:"required,min=1,max=200"`
	PositionTitle  string     `json:"position_title" validate:"required,min=1,max=200"`
	JobDescription string     `json:"job_description" validate:"max=20000"`
	JobURL         string     `json:"job_url" validate:"omitempty,url,max=2048"`
	Status         Status     `json:"status" validate:"omitempty,oneof=applied interviewing offer_received rejected accepted withdrawn"`
	SalaryMin      *int       `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax      *int       `json:"salary_max" validate:"omitempty,gte=0"`
	Location       string     `json:"location" validate:"max=200"`
	RemoteType     RemoteType `json:"remote_type" validate:"omitempty,oneof=on-site hybrid remote"`
	Notes          string     `json:"notes" validate:"max=10000"`
	AppliedDate    *time.Time `json:"applied_date"`
}

// JobUpdate is a partial update; nil fields are left untouched.
type JobUpdate struct {
	CompanyName    *string     `json:"company_name" validate:"omitempty,min=1,max=200"`
	PositionTitle  *string     `json:"position_title" validate:"omitempty,min=1,max=200"`
	JobDescription *string     `json:"job_description" validate:"omitempty,max=20000"`
	JobURL         *string     `json:"job_url" validate:"omitempty,url,max=2048"`
	Status         *Status     `json:"status" validate:"omitempty,oneof=applied interviewing offer_received rejected accepted withdrawn"`
	SalaryMin      *int        `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax      *int        `json:"salary_max" validate:"omitempty,gte=0"`
	Location       *string     `json:"location" validate:"omitempty,max=200"`
	RemoteType     *RemoteType `json:"remote_type" validate:"omitempty,oneof=on-site hybrid remote"`
	Notes          *string     `json:"notes" validate:"omitempty,max=10000"`
	AppliedDate    *time.Time  `json:"applied_date"`
}

func (u JobUpdate) apply(j *Job) {
	if u.CompanyName != nil {
		j.CompanyName = *u.CompanyName
	}
	if u.PositionTitle != nil {
		j.PositionTitle = *u.PositionTitle
	}
	if u.JobDescription != nil {
		j.JobDescription = *u.JobDescription
	}
	if u.JobURL != nil {
		j.JobURL = *u.JobURL
	}
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.SalaryMin != nil {
		v := *u.SalaryMin
		j.SalaryMin = &v
	}
	if u.SalaryMax != nil {
		v := *u.SalaryMax
		j.SalaryMax = &v
	}
	if u.Location != nil {
		j.Location = *u.Location
	}
	if u.RemoteType != nil {
		j.RemoteType = *u.RemoteType
	}
	if u.Notes != nil {
		j.Notes = *u.Notes
	}
	if u.AppliedDate != nil {
		v := *u.AppliedDate
		j.AppliedDate = &v
	}
}

// InteractionInput records an interaction. Date defaults to now.
type InteractionInput struct {
	Type  InteractionType `json:"interaction_type" validate:"required,oneof=interview follow_up offer rejection other"`
	Date  *time.Time      `json:"interaction_date"`
	Notes string          `json:"notes" validate:"max=10000"`
}

// Stats summarizes one user's applications.
type Stats struct {
	Total    int            `json:"total_applications"`
	ByStatus map[Status]int `json:"status_breakdown"`
}
