package attendance

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

type (
	Repository interface {
		// SaveRecord inserts rec. When rec has a schedule, any record with the same (schedule, date)
		// is replaced.
		SaveRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecords returns the matching records, most recent date first (ties: newest ID first).
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		CountRecords(ctx context.Context, filter QueryFilter) (int, error)
		DeleteRecords(ctx context.Context, filter QueryFilter) (int, error)
		// ReplaceHolidays replaces the HOLIDAY records of each rec's subject on date with recs, atomically.
		// It fails with subject.ErrNotFound, writing nothing, when one of the subjects does not exist.
		ReplaceHolidays(ctx context.Context, date temporal.EpochDay, recs []Record) ([]Record, error)
	}

	// Ledger is the store of dated attendance records. Reads always re-aggregate from the repository.
	Ledger struct {
		repo     Repository
		subjRepo subject.Repository
		schdRepo schedule.Repository
	}
)

func NewLedger(repo Repository, subjRepo subject.Repository, schdRepo schedule.Repository) *Ledger {
	return &Ledger{repo: repo, subjRepo: subjRepo, schdRepo: schdRepo}
}

// Record inserts or replaces the record keyed by (schedule, date).
func (l *Ledger) Record(ctx context.Context, m Mark) (Record, error) {
	if err := m.Validate(); err != nil {
		return Record{}, err
	}
	if _, err := l.subjRepo.GetSubjectByID(ctx, m.SubjectID); err != nil {
		return Record{}, err
	}
	if m.ScheduleID.Valid {
		cs, err := l.schdRepo.GetScheduleByID(ctx, m.ScheduleID.Int)
		if err != nil {
			return Record{}, err
		}
		if cs.SubjectID != m.SubjectID {
			return Record{}, schedule.ErrNotFound
		}
	}
	rec, err := l.repo.SaveRecord(ctx, m.toRecord())
	if err != nil {
		return Record{}, errors.Wrap(err, "saving record")
	}
	return rec, nil
}

// CancelClass marks the class of cs on date as cancelled; it no longer counts for or against attendance.
func (l *Ledger) CancelClass(ctx context.Context, cs schedule.ClassSchedule, date temporal.EpochDay, note string) (Record, error) {
	return l.Record(ctx, Mark{
		SubjectID:  cs.SubjectID,
		ScheduleID: null.IntFrom(cs.ID),
		Date:       date,
		Note:       note,
		Type:       TypeCancelled,
	})
}

// AddExtraClass records an ad hoc class that is not tied to a schedule.
func (l *Ledger) AddExtraClass(ctx context.Context, subjectID int, date temporal.EpochDay, isPresent bool, note string) (Record, error) {
	return l.Record(ctx, Mark{
		SubjectID: subjectID,
		Date:      date,
		IsPresent: isPresent,
		Note:      note,
		Type:      TypeManual,
	})
}

// MarkHoliday records date as a holiday for the given subjects, or for every subject when none is given.
// Existing holiday records of those subjects on date are replaced.
func (l *Ledger) MarkHoliday(ctx context.Context, date temporal.EpochDay, note string, subjectIDs ...int) ([]Record, error) {
	if len(subjectIDs) == 0 {
		subjects, err := l.subjRepo.QueryAllSubjects(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "querying subjects")
		}
		for _, s := range subjects {
			subjectIDs = append(subjectIDs, s.ID)
		}
	}

	recs := make([]Record, 0, len(subjectIDs))
	seen := make(map[int]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		m := Mark{SubjectID: id, Date: date, Note: note, Type: TypeHoliday}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		recs = append(recs, m.toRecord())
	}
	if len(recs) == 0 {
		return recs, nil
	}

	recs, err := l.repo.ReplaceHolidays(ctx, date, recs)
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return nil, subject.ErrNotFound
		}
		return nil, errors.Wrap(err, "saving holidays")
	}
	return recs, nil
}

// ClearHolidayOnDate removes only the HOLIDAY records of date.
func (l *Ledger) ClearHolidayOnDate(ctx context.Context, date temporal.EpochDay) (int, error) {
	return l.repo.DeleteRecords(ctx, QueryFilter{
		Date:  null.Int64From(int64(date)),
		Types: []RecordType{TypeHoliday},
	})
}

// ClearAttendanceOnDate removes every record of date except HOLIDAY ones.
func (l *Ledger) ClearAttendanceOnDate(ctx context.Context, date temporal.EpochDay) (int, error) {
	return l.repo.DeleteRecords(ctx, QueryFilter{
		Date:      null.Int64From(int64(date)),
		ExclTypes: []RecordType{TypeHoliday},
	})
}

// CountClasses counts the CLASS and MANUAL records, of one subject when subjectID is given.
// A non-positive subject id matches no record.
func (l *Ledger) CountClasses(ctx context.Context, subjectID ...int) (int, error) {
	return l.count(ctx, QueryFilter{Types: CountedTypes}, subjectID...)
}

// CountPresent counts the CLASS and MANUAL records marked present, of one subject when subjectID is given.
// A non-positive subject id matches no record.
func (l *Ledger) CountPresent(ctx context.Context, subjectID ...int) (int, error) {
	return l.count(ctx, QueryFilter{Types: CountedTypes, IsPresent: null.BoolFrom(true)}, subjectID...)
}

func (l *Ledger) count(ctx context.Context, filter QueryFilter, subjectID ...int) (int, error) {
	if len(subjectID) > 0 {
		if subjectID[0] <= 0 {
			return 0, nil
		}
		filter.SubjectID = subjectID[0]
	}
	return l.repo.CountRecords(ctx, filter)
}

// OnDate returns every record of date.
func (l *Ledger) OnDate(ctx context.Context, date temporal.EpochDay) ([]Record, error) {
	return l.repo.QueryRecords(ctx, QueryFilter{Date: null.Int64From(int64(date))})
}

// History returns the subject's records, most recent first.
func (l *Ledger) History(ctx context.Context, subjectID int) ([]Record, error) {
	if _, err := l.subjRepo.GetSubjectByID(ctx, subjectID); err != nil {
		return nil, err
	}
	return l.repo.QueryRecords(ctx, QueryFilter{SubjectID: subjectID})
}

// IsHoliday reports whether date is a holiday for the subject.
func (l *Ledger) IsHoliday(ctx context.Context, subjectID int, date temporal.EpochDay) (bool, error) {
	n, err := l.repo.CountRecords(ctx, QueryFilter{
		SubjectID: subjectID,
		Date:      null.Int64From(int64(date)),
		Types:     []RecordType{TypeHoliday},
	})
	return n > 0, err
}

// IsCancelled reports whether the class of the schedule is cancelled on date.
func (l *Ledger) IsCancelled(ctx context.Context, scheduleID int, date temporal.EpochDay) (bool, error) {
	n, err := l.repo.CountRecords(ctx, QueryFilter{
		ScheduleID: null.IntFrom(scheduleID),
		Date:       null.Int64From(int64(date)),
		Types:      []RecordType{TypeCancelled},
	})
	return n > 0, err
}
