package attendance

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// RecordType classifies an attendance entry and decides whether it counts in attendance math.
type RecordType string

// Record types
const (
	TypeClass     RecordType = "CLASS"     // regular recurring class instance
	TypeCancelled RecordType = "CANCELLED" // class explicitly cancelled for the day
	TypeHoliday   RecordType = "HOLIDAY"   // non-class day for a subject
	TypeManual    RecordType = "MANUAL"    // extra class not tied to a schedule
)

var (
	AllTypes = []RecordType{TypeClass, TypeCancelled, TypeHoliday, TypeManual}

	// CountedTypes are the only types included in totals and presents.
	CountedTypes = []RecordType{TypeClass, TypeManual}
)

func (t RecordType) Valid() bool {
	switch t {
	case TypeClass, TypeCancelled, TypeHoliday, TypeManual:
		return true
	}
	return false
}

// Counted reports whether records of type t count towards attendance.
func (t RecordType) Counted() bool {
	return t == TypeClass || t == TypeManual
}

func ParseRecordType(s string) (RecordType, bool) {
	t := RecordType(strings.ToUpper(core.CleanString(s)))
	return t, t.Valid()
}

type Record struct {
	ID         int               `json:"id"`
	SubjectID  int               `json:"subject_id"`
	ScheduleID null.Int          `json:"schedule_id"`
	Date       temporal.EpochDay `json:"date"`
	IsPresent  bool              `json:"is_present"`
	Note       string            `json:"note"`
	Type       RecordType        `json:"type"`
}

// Mark contains information needed to record attendance.
type Mark struct {
	SubjectID  int               `json:"subject_id" validate:"required,min=1"`
	ScheduleID null.Int          `json:"schedule_id"`
	Date       temporal.EpochDay `json:"date"`
	IsPresent  bool              `json:"is_present"`
	Note       string            `json:"note" validate:"max=500"`
	Type       RecordType        `json:"type" validate:"omitempty,oneof=CLASS CANCELLED HOLIDAY MANUAL"`
}

// Validate cleans m; a missing type defaults to CLASS when a schedule is set and MANUAL otherwise.
func (m *Mark) Validate() error {
	m.Note = core.CleanString(m.Note)
	if m.Type == "" {
		if m.ScheduleID.Valid {
			m.Type = TypeClass
		} else {
			m.Type = TypeManual
		}
	}
	if m.ScheduleID.Valid && m.ScheduleID.Int <= 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "schedule_id", Error: "invalid schedule"})
	}
	return core.Validate.Struct(m)
}

func (m Mark) toRecord() Record {
	return Record{
		SubjectID:  m.SubjectID,
		ScheduleID: m.ScheduleID,
		Date:       m.Date,
		IsPresent:  m.IsPresent,
		Note:       m.Note,
		Type:       m.Type,
	}
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	SubjectID  int
	ScheduleID null.Int
	Date       null.Int64 // temporal.EpochDay
	Types      []RecordType
	ExclTypes  []RecordType
	IsPresent  null.Bool
}

func (qf QueryFilter) Match(rec Record) bool {
	if qf.SubjectID != 0 && rec.SubjectID != qf.SubjectID {
		return false
	}
	if qf.ScheduleID.Valid && (!rec.ScheduleID.Valid || rec.ScheduleID.Int != qf.ScheduleID.Int) {
		return false
	}
	if qf.Date.Valid && int64(rec.Date) != qf.Date.Int64 {
		return false
	}
	if len(qf.Types) > 0 && !containsType(qf.Types, rec.Type) {
		return false
	}
	if len(qf.ExclTypes) > 0 && containsType(qf.ExclTypes, rec.Type) {
		return false
	}
	if qf.IsPresent.Valid && rec.IsPresent != qf.IsPresent.Bool {
		return false
	}
	return true
}

func containsType(types []RecordType, t RecordType) bool {
	for _, typ := range types {
		if typ == t {
			return true
		}
	}
	return false
}
