package attendance_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
	"github.com/trezcool/bunkmeter/storage/database/inmem"
	"github.com/trezcool/bunkmeter/tests"
)

type fixture struct {
	ledger   *attendance.Ledger
	repo     attendance.Repository
	subjRepo subject.Repository
	schdRepo schedule.Repository
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	f := fixture{
		repo:     inmemdb.NewAttendanceRepository(db),
		subjRepo: inmemdb.NewSubjectRepository(db),
		schdRepo: inmemdb.NewScheduleRepository(db),
	}
	f.ledger = attendance.NewLedger(f.repo, f.subjRepo, f.schdRepo)
	return f
}

func TestLedger_Record_replacesOnScheduleAndDate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	var cs schedule.ClassSchedule
	for i := 0; i < 5; i++ { // schedule id 5
		cs = testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	}
	require.Equal(t, 5, cs.ID)

	date := temporal.EpochDay(20000)
	mark := attendance.Mark{SubjectID: subj.ID, ScheduleID: null.IntFrom(5), Date: date, IsPresent: true}
	_, err := f.ledger.Record(ctx, mark)
	require.NoError(t, err)

	mark.IsPresent = false
	latest, err := f.ledger.Record(ctx, mark)
	require.NoError(t, err)

	recs, err := f.repo.QueryRecords(ctx, attendance.QueryFilter{ScheduleID: null.IntFrom(5), Date: null.Int64From(20000)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, latest, recs[0])
	assert.False(t, recs[0].IsPresent)
	assert.Equal(t, attendance.TypeClass, recs[0].Type)

	// records without a schedule never replace each other
	_, err = f.ledger.AddExtraClass(ctx, subj.ID, date, true, "lab")
	require.NoError(t, err)
	_, err = f.ledger.AddExtraClass(ctx, subj.ID, date, true, "lab")
	require.NoError(t, err)
	n, err := f.ledger.CountClasses(ctx, subj.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLedger_Record_validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	math := testutil.CreateSubject(t, f.subjRepo, "Math")
	art := testutil.CreateSubject(t, f.subjRepo, "Art")
	artClass := testutil.CreateSchedule(t, f.schdRepo, art.ID, temporal.Friday, "13:00", "14:00")

	tests := []struct {
		name    string
		mark    attendance.Mark
		wantErr error
		isValid bool
	}{
		{name: "unknown subject", mark: attendance.Mark{SubjectID: 99}, wantErr: subject.ErrNotFound, isValid: true},
		{name: "unknown schedule", mark: attendance.Mark{SubjectID: math.ID, ScheduleID: null.IntFrom(99)}, wantErr: schedule.ErrNotFound, isValid: true},
		{name: "schedule of another subject", mark: attendance.Mark{SubjectID: math.ID, ScheduleID: null.IntFrom(artClass.ID)}, wantErr: schedule.ErrNotFound, isValid: true},
		{name: "no subject", mark: attendance.Mark{}},
		{name: "non-positive schedule", mark: attendance.Mark{SubjectID: math.ID, ScheduleID: null.IntFrom(0)}},
		{name: "unknown type", mark: attendance.Mark{SubjectID: math.ID, Type: "EXAM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Record(ctx, tt.mark)
			require.Error(t, err)
			if tt.isValid {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.True(t, core.IsValidationError(err) || isValidatorErr(err), "got %v", err)
			}
		})
	}
}

func TestMark_Validate_defaultsType(t *testing.T) {
	m := attendance.Mark{SubjectID: 1, ScheduleID: null.IntFrom(2), Note: "  late  "}
	require.NoError(t, m.Validate())
	assert.Equal(t, attendance.TypeClass, m.Type)
	assert.Equal(t, "late", m.Note)

	m = attendance.Mark{SubjectID: 1}
	require.NoError(t, m.Validate())
	assert.Equal(t, attendance.TypeManual, m.Type)
}

func TestLedger_clearsAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	cs := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	cs2 := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "11:00", "12:00")
	date := temporal.EpochDay(20000)
	other := date.AddDays(1)

	seed := func() {
		testutil.SaveRecord(t, f.repo, subj.ID, cs.ID, date, true, attendance.TypeClass)
		testutil.SaveRecord(t, f.repo, subj.ID, cs2.ID, date, false, attendance.TypeCancelled)
		testutil.SaveRecord(t, f.repo, subj.ID, 0, date, true, attendance.TypeManual)
		testutil.SaveRecord(t, f.repo, subj.ID, 0, date, false, attendance.TypeHoliday)
		testutil.SaveRecord(t, f.repo, subj.ID, 0, other, false, attendance.TypeHoliday)
	}
	types := func(d temporal.EpochDay) []attendance.RecordType {
		recs, err := f.ledger.OnDate(ctx, d)
		require.NoError(t, err)
		typs := make([]attendance.RecordType, 0, len(recs))
		for _, r := range recs {
			typs = append(typs, r.Type)
		}
		return typs
	}

	seed()
	n, err := f.ledger.ClearHolidayOnDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []attendance.RecordType{attendance.TypeClass, attendance.TypeCancelled, attendance.TypeManual}, types(date))
	assert.Equal(t, []attendance.RecordType{attendance.TypeHoliday}, types(other))

	n, err = f.ledger.ClearAttendanceOnDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, types(date))

	seed()
	_, err = f.ledger.ClearAttendanceOnDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, []attendance.RecordType{attendance.TypeHoliday}, types(date))
}

func TestLedger_counts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	math := testutil.CreateSubject(t, f.subjRepo, "Math")
	art := testutil.CreateSubject(t, f.subjRepo, "Art")
	cs := testutil.CreateSchedule(t, f.schdRepo, math.ID, temporal.Monday, "09:00", "10:00")
	date := temporal.EpochDay(20000)

	testutil.SaveRecord(t, f.repo, math.ID, cs.ID, date, true, attendance.TypeClass)
	testutil.SaveRecord(t, f.repo, math.ID, cs.ID, date.AddDays(7), false, attendance.TypeClass)
	testutil.SaveRecord(t, f.repo, math.ID, cs.ID, date.AddDays(14), true, attendance.TypeCancelled)
	testutil.SaveRecord(t, f.repo, math.ID, 0, date.AddDays(1), true, attendance.TypeManual)
	testutil.SaveRecord(t, f.repo, math.ID, 0, date.AddDays(2), true, attendance.TypeHoliday)
	testutil.SaveRecord(t, f.repo, art.ID, 0, date, true, attendance.TypeManual)

	tests := []struct {
		name        string
		subjectID   []int
		wantTotal   int
		wantPresent int
	}{
		{name: "math", subjectID: []int{math.ID}, wantTotal: 3, wantPresent: 2},
		{name: "art", subjectID: []int{art.ID}, wantTotal: 1, wantPresent: 1},
		{name: "overall", wantTotal: 4, wantPresent: 3},
		{name: "zero id", subjectID: []int{0}},
		{name: "negative id", subjectID: []int{-1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := f.ledger.CountClasses(ctx, tt.subjectID...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			present, err := f.ledger.CountPresent(ctx, tt.subjectID...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestLedger_MarkHoliday(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	math := testutil.CreateSubject(t, f.subjRepo, "Math")
	art := testutil.CreateSubject(t, f.subjRepo, "Art")
	date := temporal.EpochDay(20000)

	recs, err := f.ledger.MarkHoliday(ctx, date, "founders day")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// marking again replaces instead of piling up
	_, err = f.ledger.MarkHoliday(ctx, date, "founders day")
	require.NoError(t, err)
	onDate, err := f.ledger.OnDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, onDate, 2)

	for _, id := range []int{math.ID, art.ID} {
		ok, err := f.ledger.IsHoliday(ctx, id, date)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := f.ledger.IsHoliday(ctx, math.ID, date.AddDays(1))
	require.NoError(t, err)
	assert.False(t, ok)

	// single subject
	_, err = f.ledger.MarkHoliday(ctx, date.AddDays(1), "", art.ID)
	require.NoError(t, err)
	ok, err = f.ledger.IsHoliday(ctx, math.ID, date.AddDays(1))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.ledger.IsHoliday(ctx, art.ID, date.AddDays(1))
	require.NoError(t, err)
	assert.True(t, ok)

	total, err := f.ledger.CountClasses(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLedger_MarkHoliday_unknownSubject(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	math := testutil.CreateSubject(t, f.subjRepo, "Math")
	date := temporal.EpochDay(20000)
	testutil.SaveRecord(t, f.repo, math.ID, 0, date, false, attendance.TypeHoliday)

	recs, err := f.ledger.MarkHoliday(ctx, date, "strike", math.ID, 999)
	assert.Equal(t, subject.ErrNotFound, err)
	assert.Nil(t, recs)

	// the previous holiday is untouched and nothing was added
	onDate, err := f.ledger.OnDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, onDate, 1)
	assert.Equal(t, "", onDate[0].Note)

	recs, err = f.ledger.MarkHoliday(ctx, date, "strike", math.ID, math.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "strike", recs[0].Note)
	onDate, err = f.ledger.OnDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, onDate, 1)
}

func TestLedger_CancelClass(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	cs := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	date := temporal.EpochDay(20000)

	_, err := f.ledger.Record(ctx, attendance.Mark{SubjectID: subj.ID, ScheduleID: null.IntFrom(cs.ID), Date: date, IsPresent: true})
	require.NoError(t, err)

	rec, err := f.ledger.CancelClass(ctx, cs, date, "teacher sick")
	require.NoError(t, err)
	assert.Equal(t, attendance.TypeCancelled, rec.Type)

	ok, err := f.ledger.IsCancelled(ctx, cs.ID, date)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.ledger.IsCancelled(ctx, cs.ID, date.AddDays(7))
	require.NoError(t, err)
	assert.False(t, ok)

	total, err := f.ledger.CountClasses(ctx, subj.ID)
	require.NoError(t, err)
	assert.Zero(t, total, "the cancelled mark replaced the attendance")
}

func TestLedger_History(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	date := temporal.EpochDay(20000)
	first := testutil.SaveRecord(t, f.repo, subj.ID, 0, date, true, attendance.TypeManual)
	latest := testutil.SaveRecord(t, f.repo, subj.ID, 0, date.AddDays(3), true, attendance.TypeManual)
	sameDay := testutil.SaveRecord(t, f.repo, subj.ID, 0, date, false, attendance.TypeManual)

	recs, err := f.ledger.History(ctx, subj.ID)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Record{latest, sameDay, first}, recs)

	_, err = f.ledger.History(ctx, 99)
	assert.Equal(t, subject.ErrNotFound, err)
}

func isValidatorErr(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}
