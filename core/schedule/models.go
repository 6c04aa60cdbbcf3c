package schedule

import (
	"time"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// ClassSchedule is a recurring weekly time slot of a subject.
type ClassSchedule struct {
	ID        int                `json:"id"`
	SubjectID int                `json:"subject_id"`
	DayOfWeek temporal.DayOfWeek `json:"day_of_week"`
	Start     temporal.TimeOfDay `json:"start"`
	End       temporal.TimeOfDay `json:"end"`
}

// IsCurrent reports whether the class is running at now: start < now < end, on the schedule's day.
func (cs ClassSchedule) IsCurrent(now time.Time) bool {
	if temporal.DayOf(now) != cs.DayOfWeek {
		return false
	}
	secs := temporal.SecondsIntoDay(now)
	return cs.Start.Seconds() < secs && secs < cs.End.Seconds()
}

// IsCompleted reports whether the class has ended at now (now >= end), on the schedule's day.
func (cs ClassSchedule) IsCompleted(now time.Time) bool {
	if temporal.DayOf(now) != cs.DayOfWeek {
		return false
	}
	return temporal.SecondsIntoDay(now) >= cs.End.Seconds()
}

// ScheduleWithSubject is a schedule joined with its subject, evaluated at a point in time.
type ScheduleWithSubject struct {
	ClassSchedule
	Subject     subject.Subject `json:"subject"`
	IsCurrent   bool            `json:"is_current"`
	IsCompleted bool            `json:"is_completed"`
}

// NewSchedule contains information needed to create a new ClassSchedule.
type NewSchedule struct {
	SubjectID   int `json:"subject_id" validate:"omitempty,min=1"`
	DayOfWeek   int `json:"day_of_week" validate:"required,weekday"`
	StartHour   int `json:"start_hour" validate:"min=0,max=23"`
	StartMinute int `json:"start_minute" validate:"min=0,max=59"`
	EndHour     int `json:"end_hour" validate:"min=0,max=23"`
	EndMinute   int `json:"end_minute" validate:"min=0,max=59"`
}

func (ns NewSchedule) Start() temporal.TimeOfDay {
	return temporal.NewTimeOfDay(ns.StartHour, ns.StartMinute)
}

func (ns NewSchedule) End() temporal.TimeOfDay {
	return temporal.NewTimeOfDay(ns.EndHour, ns.EndMinute)
}

// Validate rejects invalid days and ranges where start does not strictly precede end.
func (ns NewSchedule) Validate() error {
	return core.Validate.Struct(ns)
}

func (ns NewSchedule) toSchedule(subjectID int) ClassSchedule {
	return ClassSchedule{
		SubjectID: subjectID,
		DayOfWeek: temporal.DayOfWeek(ns.DayOfWeek),
		Start:     ns.Start(),
		End:       ns.End(),
	}
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	SubjectID int
	DayOfWeek temporal.DayOfWeek
}

func (qf QueryFilter) Match(cs ClassSchedule) bool {
	if qf.SubjectID != 0 && cs.SubjectID != qf.SubjectID {
		return false
	}
	if qf.DayOfWeek != 0 && cs.DayOfWeek != qf.DayOfWeek {
		return false
	}
	return true
}
