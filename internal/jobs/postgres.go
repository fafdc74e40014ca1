package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobtrack.dev/internal/dbx"
)

var _ Store = (*PGStore)(nil)

const (
	jobColumns         = `id, user_id, company_name, position_title, job_description, job_url, status, salary_min, salary_max, location, remote_type, notes, applied_date, created_at, updated_at`
	interactionColumns = `id, job_id, interaction_type, interaction_date, notes, created_at, updated_at`
)

// PGStore implements Store on the jobs and job_interactions tables.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job       Job
		status    string
		remote    string
		salaryMin sql.NullInt64
		salaryMax sql.NullInt64
		appliedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.UserID, &job.CompanyName, &job.PositionTitle, &job.JobDescription, &job.JobURL,
		&status, &salaryMin, &salaryMax, &job.Location, &remote, &job.Notes, &appliedAt,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	job.RemoteType = RemoteType(remote)
	if salaryMin.Valid {
		v := int(salaryMin.Int64)
		job.SalaryMin = &v
	}
	if salaryMax.Valid {
		v := int(salaryMax.Int64)
		job.SalaryMax = &v
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		job.AppliedDate = &t
	}
	return job, nil
}

func scanInteraction(row rowScanner) (Interaction, error) {
	var (
		in  Interaction
		typ string
	)
	if err := row.Scan(&in.ID, &in.JobID, &typ, &in.Date, &in.Notes, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return Interaction{}, err
	}
	in.Type = InteractionType(typ)
	return in, nil
}

func (s *PGStore) CreateJob(ctx context.Context, job Job) (Job, error) {
	_, err := s.db.ExecContext(ctx,
		`insert into jobs(`+jobColumns+`) values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		job.ID, job.UserID, job.CompanyName, job.PositionTitle, job.JobDescription, job.JobURL,
		string(job.Status), job.SalaryMin, job.SalaryMax, job.Location, string(job.RemoteType), job.Notes,
		job.AppliedDate, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	job.Interactions = []Interaction{}
	return job, nil
}

func (s *PGStore) GetJob(ctx context.Context, id string) (Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `select `+jobColumns+` from jobs where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	job.Interactions, err = listInteractions(ctx, s.db, id)
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

func (s *PGStore) ListJobs(ctx context.Context, userID string, offset, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+jobColumns+` from jobs where user_id = $1 order by created_at desc, id desc offset $2 limit $3`,
		userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Interactions = []Interaction{}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

func (s *PGStore) UpdateJob(ctx context.Context, id string, upd JobUpdate, at time.Time) (Job, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.CompanyName != nil {
		set("company_name", *upd.CompanyName)
	}
	if upd.PositionTitle != nil {
		set("position_title", *upd.PositionTitle)
	}
	if upd.JobDescription != nil {
		set("job_description", *upd.JobDescription)
	}
	if upd.JobURL != nil {
		set("job_url", *upd.JobURL)
	}
	if upd.Status != nil {
		set("status", string(*upd.Status))
	}
	if upd.SalaryMin != nil {
		set("salary_min", *upd.SalaryMin)
	}
	if upd.SalaryMax != nil {
		set("salary_max", *upd.SalaryMax)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.RemoteType != nil {
		set("remote_type", string(*upd.RemoteType))
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}
	if upd.AppliedDate != nil {
		set("applied_date", *upd.AppliedDate)
	}
	set("updated_at", at)
	args = append(args, id)

	query := fmt.Sprintf(`update jobs set %s where id = $%d returning %s`,
		strings.Join(sets, ", "), len(args), jobColumns)
	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	job.Interactions, err = listInteractions(ctx, s.db, id)
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

func (s *PGStore) DeleteJob(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `delete from job_interactions where job_id = $1`, id); err != nil {
			return fmt.Errorf("delete interactions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `delete from jobs where id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		return expectOneRow(res)
	})
}

func (s *PGStore) AddInteraction(ctx context.Context, in Interaction) (Interaction, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `update jobs set updated_at = $1 where id = $2`, in.CreatedAt, in.JobID)
		if err != nil {
			return fmt.Errorf("touch job: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`insert into job_interactions(`+interactionColumns+`) values($1,$2,$3,$4,$5,$6,$7)`,
			in.ID, in.JobID, string(in.Type), in.Date, in.Notes, in.CreatedAt, in.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return Interaction{}, err
	}
	return in, nil
}

func (s *PGStore) GetInteraction(ctx context.Context, id string) (Interaction, error) {
	in, err := scanInteraction(s.db.QueryRowContext(ctx,
		`select `+interactionColumns+` from job_interactions where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, fmt.Errorf("get interaction: %w", err)
	}
	return in, nil
}

func (s *PGStore) ListInteractions(ctx context.Context, jobID string) ([]Interaction, error) {
	return listInteractions(ctx, s.db, jobID)
}

func (s *PGStore) DeleteInteraction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from job_interactions where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	return expectOneRow(res)
}

func (s *PGStore) CountByStatus(ctx context.Context, userID string) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`select status, count(*) from jobs where user_id = $1 group by status`, userID)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

func listInteractions(ctx context.Context, db dbx.DBTX, jobID string) ([]Interaction, error) {
	rows, err := db.QueryContext(ctx,
		`select `+interactionColumns+` from job_interactions where job_id = $1 order by interaction_date desc, id desc`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	out := make([]Interaction, 0)
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return out, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
