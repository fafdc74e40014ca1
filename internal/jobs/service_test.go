package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/validation"
)

var (
	alice = auth.Session{Identity: auth.User{ID: "alice"}, Role: auth.RoleUser}
	bob   = auth.Session{Identity: auth.User{ID: "bob"}, Role: auth.RoleUser}
	root  = auth.Session{Identity: auth.User{ID: "root"}, Role: auth.RoleAdmin}
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService() *Service {
	clk := &stepClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	return NewService(NewInMemory(), WithClock(clk.Now))
}

func intPtr(v int) *int { return &v }

func createJob(t *testing.T, svc *Service, sess auth.Session, company string) Job {
	t.Helper()
	job, err := svc.Create(context.Background(), sess, JobInput{CompanyName: company, PositionTitle: "Engineer"})
	require.NoError(t, err)
	return job
}

func TestCreateDefaultsAndOwnership(t *testing.T) {
	svc := newTestService()
	job := createJob(t, svc, alice, "  Acme ")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "alice", job.UserID)
	assert.Equal(t, "Acme", job.CompanyName)
	assert.Equal(t, StatusApplied, job.Status)
	assert.NotNil(t, job.Interactions)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), alice, JobInput{
		CompanyName: "", PositionTitle: "x", JobURL: "not a url", Status: "ghosted",
		RemoteType: "moon",
	})
	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "company_name")
	assert.Contains(t, verr.Fields, "job_url")
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "remote_type")

	_, err = svc.Create(context.Background(), alice, JobInput{
		CompanyName: "Acme", PositionTitle: "Eng", SalaryMin: intPtr(200), SalaryMax: intPtr(100),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestForeignJobLooksMissing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc, alice, "Acme")

	_, errForeign := svc.Get(ctx, bob, job.ID)
	_, errMissing := svc.Get(ctx, bob, "does-not-exist")
	require.ErrorIs(t, errForeign, ErrNotFound)
	require.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing.Error(), errForeign.Error())

	status := StatusRejected
	_, err := svc.Update(ctx, bob, job.ID, JobUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob, job.ID), ErrNotFound)
	_, err = svc.AddInteraction(ctx, bob, job.ID, InteractionInput{Type: InteractionInterview})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ListInteractions(ctx, bob, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, root, job.ID)
	assert.ErrorIs(t, err, ErrNotFound, "admins see only their own jobs")

	got, err := svc.Get(ctx, alice, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, got.Status)
}

func TestListIsScopedAndNewestFirst(t *testing.T) {
	svc := newTestService()
	first := createJob(t, svc, alice, "First")
	second := createJob(t, svc, alice, "Second")
	createJob(t, svc, bob, "Bob's")

	list, err := svc.List(context.Background(), alice, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	page, err := svc.List(context.Background(), alice, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	_, err = svc.List(context.Background(), alice, -1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService()
	job, err := svc.Create(context.Background(), alice, JobInput{
		CompanyName: "Acme", PositionTitle: "Eng", SalaryMin: intPtr(100), Notes: "keep me",
	})
	require.NoError(t, err)

	status := StatusInterviewing
	out, err := svc.Update(context.Background(), alice, job.ID, JobUpdate{Status: &status, SalaryMax: intPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, StatusInterviewing, out.Status)
	assert.Equal(t, "keep me", out.Notes)
	assert.Equal(t, 150, *out.SalaryMax)
	assert.True(t, out.UpdatedAt.After(job.UpdatedAt))

	_, err = svc.Update(context.Background(), alice, job.ID, JobUpdate{SalaryMax: intPtr(50)})
	assert.ErrorIs(t, err, ErrValidation, "merged range is checked")
}

func TestInteractionsLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc, alice, "Acme")
	other := createJob(t, svc, alice, "Other")

	when := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)
	in, err := svc.AddInteraction(ctx, alice, job.ID, InteractionInput{Type: InteractionInterview, Date: &when, Notes: "onsite"})
	require.NoError(t, err)
	assert.Equal(t, when, in.Date)

	_, err = svc.AddInteraction(ctx, alice, job.ID, InteractionInput{Type: "coffee"})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.Get(ctx, alice, job.ID)
	require.NoError(t, err)
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, in.ID, got.Interactions[0].ID)
	assert.Equal(t, in.CreatedAt, got.UpdatedAt, "adding an interaction touches the job")

	assert.ErrorIs(t, svc.DeleteInteraction(ctx, alice, other.ID, in.ID), ErrNotFound)
	require.NoError(t, svc.DeleteInteraction(ctx, alice, job.ID, in.ID))

	list, err := svc.ListInteractions(ctx, alice, job.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteRemovesInteractions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	job := createJob(t, svc, alice, "Acme")
	in, err := svc.AddInteraction(ctx, alice, job.ID, InteractionInput{Type: InteractionFollowUp})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, job.ID))
	_, err = svc.Get(ctx, alice, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.store.GetInteraction(ctx, in.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	createJob(t, svc, alice, "A")
	j := createJob(t, svc, alice, "B")
	createJob(t, svc, bob, "C")
	offer := StatusOfferReceived
	_, err := svc.Update(ctx, alice, j.ID, JobUpdate{Status: &offer})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusApplied])
	assert.Equal(t, 1, stats.ByStatus[StatusOfferReceived])
	assert.Len(t, stats.ByStatus, len(Statuses))
}
