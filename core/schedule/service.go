package schedule

import (
	"context"
	"errors"

	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

var (
	// errors
	ErrNotFound = errors.New("schedule not found")
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, cs ClassSchedule) (ClassSchedule, error)
		GetScheduleByID(ctx context.Context, id int) (ClassSchedule, error)
		// QuerySchedules returns the schedules matching filter; a nil filter returns every schedule.
		QuerySchedules(ctx context.Context, filter *QueryFilter) ([]ClassSchedule, error)
		// ReplaceSubjectSchedules deletes the subject's schedules and inserts schedules as one unit.
		// On failure the previous set is left intact.
		ReplaceSubjectSchedules(ctx context.Context, subjectID int, schedules []ClassSchedule) ([]ClassSchedule, error)
		// DeleteSchedulesByID keeps the schedules' attendance records, detached from the schedule.
		DeleteSchedulesByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo     Repository
		subjRepo subject.Repository
	}
)

func NewService(repo Repository, subjRepo subject.Repository) *Service {
	return &Service{repo: repo, subjRepo: subjRepo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchedule) (ClassSchedule, error) {
	if err := ns.Validate(); err != nil {
		return ClassSchedule{}, err
	}
	if _, err := svc.subjRepo.GetSubjectByID(ctx, ns.SubjectID); err != nil {
		return ClassSchedule{}, err
	}
	return svc.repo.CreateSchedule(ctx, ns.toSchedule(ns.SubjectID))
}

func (svc *Service) GetByID(ctx context.Context, id int) (ClassSchedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]ClassSchedule, error) {
	return svc.repo.QuerySchedules(ctx, nil)
}

func (svc *Service) QueryByDay(ctx context.Context, day temporal.DayOfWeek) ([]ClassSchedule, error) {
	if !day.Valid() {
		return nil, temporal.ErrInvalidDay
	}
	return svc.repo.QuerySchedules(ctx, &QueryFilter{DayOfWeek: day})
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID int) ([]ClassSchedule, error) {
	return svc.repo.QuerySchedules(ctx, &QueryFilter{SubjectID: subjectID})
}

// ReplaceForSubject validates every schedule first, then atomically swaps the subject's schedules.
func (svc *Service) ReplaceForSubject(ctx context.Context, subjectID int, nss []NewSchedule) ([]ClassSchedule, error) {
	if _, err := svc.subjRepo.GetSubjectByID(ctx, subjectID); err != nil {
		return nil, err
	}
	schedules := make([]ClassSchedule, 0, len(nss))
	for _, ns := range nss {
		if err := ns.Validate(); err != nil {
			return nil, err
		}
		schedules = append(schedules, ns.toSchedule(subjectID))
	}
	return svc.repo.ReplaceSubjectSchedules(ctx, subjectID, schedules)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSchedulesByID(ctx, ids...)
}
