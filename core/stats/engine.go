package stats

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/subject"
)

type (
	// Counter provides the ledger aggregates the engine works from.
	Counter interface {
		CountClasses(ctx context.Context, subjectID ...int) (int, error)
		CountPresent(ctx context.Context, subjectID ...int) (int, error)
	}

	SubjectWithAttendance struct {
		subject.Subject
		TotalClasses int          `json:"total_classes"`
		Present      int          `json:"present"`
		Absent       int          `json:"absent"`
		Percentage   float64      `json:"percentage"`
		Analysis     BunkAnalysis `json:"analysis"`
	}

	AttendanceStatistics struct {
		TotalClasses      int     `json:"total_classes"`
		TotalPresent      int     `json:"total_present"`
		TotalAbsent       int     `json:"total_absent"`
		OverallPercentage float64 `json:"overall_percentage"`
		SubjectCount      int     `json:"subject_count"`
	}

	Engine struct {
		subjRepo subject.Repository
		counter  Counter
	}
)

var _ Counter = (*attendance.Ledger)(nil) // interface compliance check

func NewEngine(subjRepo subject.Repository, counter Counter) *Engine {
	return &Engine{subjRepo: subjRepo, counter: counter}
}

func (e *Engine) withAttendance(ctx context.Context, subj subject.Subject) (SubjectWithAttendance, error) {
	total, err := e.counter.CountClasses(ctx, subj.ID)
	if err != nil {
		return SubjectWithAttendance{}, errors.Wrap(err, "counting classes")
	}
	present, err := e.counter.CountPresent(ctx, subj.ID)
	if err != nil {
		return SubjectWithAttendance{}, errors.Wrap(err, "counting presents")
	}
	return SubjectWithAttendance{
		Subject:      subj,
		TotalClasses: total,
		Present:      present,
		Absent:       total - present,
		Percentage:   Percentage(present, total),
		Analysis:     Analyze(subj.TargetPercentage, total, present),
	}, nil
}

// Subject returns the attendance figures of one subject.
func (e *Engine) Subject(ctx context.Context, id int) (SubjectWithAttendance, error) {
	subj, err := e.subjRepo.GetSubjectByID(ctx, id)
	if err != nil {
		return SubjectWithAttendance{}, err
	}
	return e.withAttendance(ctx, subj)
}

// Subjects returns the attendance figures of every subject.
func (e *Engine) Subjects(ctx context.Context) ([]SubjectWithAttendance, error) {
	subjects, err := e.subjRepo.QueryAllSubjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	res := make([]SubjectWithAttendance, 0, len(subjects))
	for _, subj := range subjects {
		swa, err := e.withAttendance(ctx, subj)
		if err != nil {
			return nil, err
		}
		res = append(res, swa)
	}
	return res, nil
}

// Overall aggregates the counters across all subjects.
func (e *Engine) Overall(ctx context.Context) (AttendanceStatistics, error) {
	subjects, err := e.subjRepo.QueryAllSubjects(ctx)
	if err != nil {
		return AttendanceStatistics{}, errors.Wrap(err, "querying subjects")
	}
	total, err := e.counter.CountClasses(ctx)
	if err != nil {
		return AttendanceStatistics{}, errors.Wrap(err, "counting classes")
	}
	present, err := e.counter.CountPresent(ctx)
	if err != nil {
		return AttendanceStatistics{}, errors.Wrap(err, "counting presents")
	}
	return AttendanceStatistics{
		TotalClasses:      total,
		TotalPresent:      present,
		TotalAbsent:       total - present,
		OverallPercentage: overallPercentage(present, total),
		SubjectCount:      len(subjects),
	}, nil
}
