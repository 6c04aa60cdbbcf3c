package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// WeeklySchedule maps every day of the week to its ordered classes; days without classes map to an empty slice.
type WeeklySchedule map[temporal.DayOfWeek][]ScheduleWithSubject

// Resolver derives day and week views from the stored recurring schedules.
type Resolver struct {
	repo     Repository
	subjRepo subject.Repository
}

func NewResolver(repo Repository, subjRepo subject.Repository) *Resolver {
	return &Resolver{repo: repo, subjRepo: subjRepo}
}

// ForDay returns the classes held on day, joined to their subjects and ordered by start time.
// Schedules whose subject no longer exists are left out.
func (r *Resolver) ForDay(ctx context.Context, day temporal.DayOfWeek, now time.Time) ([]ScheduleWithSubject, error) {
	if !day.Valid() {
		return nil, temporal.ErrInvalidDay
	}
	schedules, err := r.repo.QuerySchedules(ctx, &QueryFilter{DayOfWeek: day})
	if err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	subjects, err := r.subjRepo.QueryAllSubjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return Join(schedules, subject.Index(subjects), now), nil
}

// Today returns the classes held on now's day.
func (r *Resolver) Today(ctx context.Context, now time.Time) ([]ScheduleWithSubject, error) {
	return r.ForDay(ctx, temporal.DayOf(now), now)
}

// Weekly applies ForDay to all seven days.
func (r *Resolver) Weekly(ctx context.Context, now time.Time) (WeeklySchedule, error) {
	schedules, err := r.repo.QuerySchedules(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	subjects, err := r.subjRepo.QueryAllSubjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}

	byDay := make(map[temporal.DayOfWeek][]ClassSchedule, temporal.DaysPerWeek)
	for _, cs := range schedules {
		byDay[cs.DayOfWeek] = append(byDay[cs.DayOfWeek], cs)
	}

	idx := subject.Index(subjects)
	week := make(WeeklySchedule, temporal.DaysPerWeek)
	for _, day := range temporal.AllDays {
		week[day] = Join(byDay[day], idx, now)
	}
	return week, nil
}

// Join attaches subjects to schedules, drops orphans, evaluates current/completed at now
// and sorts by start time.
func Join(schedules []ClassSchedule, subjects map[int]subject.Subject, now time.Time) []ScheduleWithSubject {
	joined := make([]ScheduleWithSubject, 0, len(schedules))
	for _, cs := range schedules {
		subj, ok := subjects[cs.SubjectID]
		if !ok {
			continue
		}
		joined = append(joined, ScheduleWithSubject{
			ClassSchedule: cs,
			Subject:       subj,
			IsCurrent:     cs.IsCurrent(now),
			IsCompleted:   cs.IsCompleted(now),
		})
	}
	sort.SliceStable(joined, func(i, j int) bool {
		return joined[i].Start.Before(joined[j].Start)
	})
	return joined
}
