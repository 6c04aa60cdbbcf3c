package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
	"github.com/trezcool/bunkmeter/storage/database/inmem"
	"github.com/trezcool/bunkmeter/tests"
)

func setup(t *testing.T) (*schedule.Resolver, *schedule.Service, schedule.Repository, subject.Repository) {
	db := inmemdb.Open()
	subjRepo := inmemdb.NewSubjectRepository(db)
	repo := inmemdb.NewScheduleRepository(db)
	return schedule.NewResolver(repo, subjRepo), schedule.NewService(repo, subjRepo), repo, subjRepo
}

func starts(views []schedule.ScheduleWithSubject) []string {
	res := make([]string, 0, len(views))
	for _, v := range views {
		res = append(res, v.Subject.Name+"@"+v.Start.String())
	}
	return res
}

func TestResolver_ForDay(t *testing.T) {
	ctx := context.Background()
	resolver, _, repo, subjRepo := setup(t)

	math := testutil.CreateSubject(t, subjRepo, "Math")
	art := testutil.CreateSubject(t, subjRepo, "Art")
	testutil.CreateSchedule(t, repo, math.ID, temporal.Monday, "13:15", "14:00")
	testutil.CreateSchedule(t, repo, art.ID, temporal.Monday, "09:30", "10:00")
	testutil.CreateSchedule(t, repo, math.ID, temporal.Monday, "09:05", "09:25")
	testutil.CreateSchedule(t, repo, art.ID, temporal.Tuesday, "08:00", "09:00")

	now := time.Date(2024, 3, 11, 9, 40, 0, 0, time.UTC) // a Monday
	views, err := resolver.ForDay(ctx, temporal.Monday, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Math@09:05", "Art@09:30", "Math@13:15"}, starts(views))
	assert.True(t, views[0].IsCompleted)
	assert.True(t, views[1].IsCurrent)
	assert.False(t, views[2].IsCurrent || views[2].IsCompleted)

	today, err := resolver.Today(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, views, today)

	views, err = resolver.ForDay(ctx, temporal.Wednesday, now)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = resolver.ForDay(ctx, 0, now)
	assert.Equal(t, temporal.ErrInvalidDay, err)
}

func TestResolver_Weekly(t *testing.T) {
	ctx := context.Background()
	resolver, _, repo, subjRepo := setup(t)

	math := testutil.CreateSubject(t, subjRepo, "Math")
	testutil.CreateSchedule(t, repo, math.ID, temporal.Sunday, "10:00", "11:00")
	testutil.CreateSchedule(t, repo, math.ID, temporal.Saturday, "12:00", "13:00")
	testutil.CreateSchedule(t, repo, math.ID, temporal.Saturday, "08:00", "09:00")

	now := time.Date(2024, 3, 16, 12, 30, 0, 0, time.UTC) // a Saturday
	week, err := resolver.Weekly(ctx, now)
	require.NoError(t, err)
	require.Len(t, week, temporal.DaysPerWeek)
	for _, day := range temporal.AllDays {
		assert.Contains(t, week, day)
	}
	assert.Equal(t, []string{"Math@10:00"}, starts(week[temporal.Sunday]))
	assert.Equal(t, []string{"Math@08:00", "Math@12:00"}, starts(week[temporal.Saturday]))
	assert.Empty(t, week[temporal.Monday])
	assert.False(t, week[temporal.Sunday][0].IsCompleted, "evaluated on its own day only")
	assert.True(t, week[temporal.Saturday][0].IsCompleted)
	assert.True(t, week[temporal.Saturday][1].IsCurrent)
}

func TestJoin_dropsOrphans(t *testing.T) {
	now := time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)
	subjects := subject.Index([]subject.Subject{{ID: 1, Name: "Math"}})
	schedules := []schedule.ClassSchedule{
		{ID: 1, SubjectID: 2, DayOfWeek: temporal.Monday, Start: temporal.NewTimeOfDay(8, 0), End: temporal.NewTimeOfDay(9, 0)},
		{ID: 2, SubjectID: 1, DayOfWeek: temporal.Monday, Start: temporal.NewTimeOfDay(9, 0), End: temporal.NewTimeOfDay(10, 0)},
	}

	views := schedule.Join(schedules, subjects, now)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].ID)
	assert.Equal(t, "Math", views[0].Subject.Name)
}

func TestService_ReplaceForSubject(t *testing.T) {
	ctx := context.Background()
	_, svc, repo, subjRepo := setup(t)

	math := testutil.CreateSubject(t, subjRepo, "Math")
	art := testutil.CreateSubject(t, subjRepo, "Art")
	old := testutil.CreateSchedule(t, repo, math.ID, temporal.Monday, "09:00", "10:00")
	keep := testutil.CreateSchedule(t, repo, art.ID, temporal.Monday, "09:00", "10:00")

	// one invalid entry leaves the previous set intact
	_, err := svc.ReplaceForSubject(ctx, math.ID, []schedule.NewSchedule{
		{DayOfWeek: 3, StartHour: 9, EndHour: 10},
		{DayOfWeek: 4, StartHour: 11, EndHour: 10},
	})
	require.Error(t, err)
	got, err := svc.QueryBySubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, []schedule.ClassSchedule{old}, got)

	created, err := svc.ReplaceForSubject(ctx, math.ID, []schedule.NewSchedule{
		{DayOfWeek: 3, StartHour: 9, EndHour: 10},
		{DayOfWeek: 5, StartHour: 14, StartMinute: 30, EndHour: 16},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	got, err = svc.QueryBySubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.GetByID(ctx, old.ID)
	assert.Equal(t, schedule.ErrNotFound, err)
	other, err := svc.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, keep, other)

	thursday, err := svc.QueryByDay(ctx, temporal.Thursday)
	require.NoError(t, err)
	require.Len(t, thursday, 1)
	assert.Equal(t, temporal.NewTimeOfDay(14, 30), thursday[0].Start)

	_, err = svc.ReplaceForSubject(ctx, 99, nil)
	assert.Equal(t, subject.ErrNotFound, err)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	_, svc, _, subjRepo := setup(t)
	math := testutil.CreateSubject(t, subjRepo, "Math")

	cs, err := svc.Create(ctx, schedule.NewSchedule{SubjectID: math.ID, DayOfWeek: 2, StartHour: 8, EndHour: 9, EndMinute: 15})
	require.NoError(t, err)
	assert.Equal(t, temporal.Monday, cs.DayOfWeek)
	assert.Equal(t, "09:15", cs.End.String())

	_, err = svc.Create(ctx, schedule.NewSchedule{SubjectID: 99, DayOfWeek: 2, StartHour: 8, EndHour: 9})
	assert.Equal(t, subject.ErrNotFound, err)

	require.NoError(t, svc.Delete(ctx, cs.ID))
	all, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
