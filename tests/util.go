package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
	"github.com/trezcool/bunkmeter/storage/database"
	"github.com/trezcool/bunkmeter/storage/database/sqlx"
)

// PrepareDB opens a migrated in-memory SQLite database private to t.
func PrepareDB(t *testing.T) *sqlxrepos.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, t.Name())
	conf := core.DatabaseConfig{
		Engine: core.EngineSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return sqlxrepos.NewDB(db)
}

func CreateSubject(t *testing.T, repo subject.Repository, name string, target ...int) subject.Subject {
	t.Helper()

	tgt := subject.DefaultTargetPercentage
	if len(target) > 0 {
		tgt = target[0]
	}
	subj, err := repo.CreateSubject(context.Background(), subject.Subject{Name: name, TargetPercentage: tgt})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return subj
}

// CreateSchedule stores a class of subjectID on day from start to end ("HH:MM").
func CreateSchedule(t *testing.T, repo schedule.Repository, subjectID int, day temporal.DayOfWeek, start, end string) schedule.ClassSchedule {
	t.Helper()

	st, err := temporal.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	en, err := temporal.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	cs, err := repo.CreateSchedule(context.Background(), schedule.ClassSchedule{
		SubjectID: subjectID,
		DayOfWeek: day,
		Start:     st,
		End:       en,
	})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return cs
}

// SaveRecord stores a record; scheduleID 0 means no schedule.
func SaveRecord(
	t *testing.T,
	repo attendance.Repository,
	subjectID, scheduleID int,
	date temporal.EpochDay,
	isPresent bool,
	typ attendance.RecordType,
) attendance.Record {
	t.Helper()

	rec := attendance.Record{
		SubjectID: subjectID,
		Date:      date,
		IsPresent: isPresent,
		Type:      typ,
	}
	if scheduleID != 0 {
		rec.ScheduleID = null.IntFrom(scheduleID)
	}
	rec, err := repo.SaveRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("SaveRecord() failed: %v", err)
	}
	return rec
}
