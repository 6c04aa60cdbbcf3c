package schedule

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkmeter/core/temporal"
)

func TestClassSchedule_IsCurrent_IsCompleted(t *testing.T) {
	cs := ClassSchedule{
		DayOfWeek: temporal.Monday,
		Start:     temporal.NewTimeOfDay(9, 0),
		End:       temporal.NewTimeOfDay(10, 30),
	}
	monday := func(h, m, s int) time.Time { return time.Date(2024, 3, 11, h, m, s, 0, time.UTC) }

	tests := []struct {
		name          string
		now           time.Time
		wantCurrent   bool
		wantCompleted bool
	}{
		{name: "before start", now: monday(8, 59, 59)},
		{name: "at start", now: monday(9, 0, 0)},
		{name: "just after start", now: monday(9, 0, 1), wantCurrent: true},
		{name: "midway", now: monday(9, 45, 0), wantCurrent: true},
		{name: "just before end", now: monday(10, 29, 59), wantCurrent: true},
		{name: "at end", now: monday(10, 30, 0), wantCompleted: true},
		{name: "after end", now: monday(18, 0, 0), wantCompleted: true},
		{name: "other day", now: monday(9, 45, 0).AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCurrent, cs.IsCurrent(tt.now))
			assert.Equal(t, tt.wantCompleted, cs.IsCompleted(tt.now))
		})
	}
}

func TestNewSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ns      NewSchedule
		wantTag string
	}{
		{name: "valid", ns: NewSchedule{DayOfWeek: 2, StartHour: 9, EndHour: 10}},
		{name: "one minute long", ns: NewSchedule{DayOfWeek: 7, StartHour: 23, StartMinute: 58, EndHour: 23, EndMinute: 59}},
		{name: "missing day", ns: NewSchedule{StartHour: 9, EndHour: 10}, wantTag: "required"},
		{name: "day too large", ns: NewSchedule{DayOfWeek: 8, StartHour: 9, EndHour: 10}, wantTag: "weekday"},
		{name: "negative day", ns: NewSchedule{DayOfWeek: -1, StartHour: 9, EndHour: 10}, wantTag: "weekday"},
		{name: "hour out of range", ns: NewSchedule{DayOfWeek: 2, StartHour: 9, EndHour: 24}, wantTag: "max"},
		{name: "minute out of range", ns: NewSchedule{DayOfWeek: 2, StartHour: 9, StartMinute: 60, EndHour: 10}, wantTag: "max"},
		{name: "empty range", ns: NewSchedule{DayOfWeek: 2, StartHour: 9, EndHour: 9}, wantTag: timeRangeTag},
		{name: "inverted range", ns: NewSchedule{DayOfWeek: 2, StartHour: 10, EndHour: 9, EndMinute: 59}, wantTag: timeRangeTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate()
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			tags := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				tags = append(tags, fe.Tag())
			}
			assert.Contains(t, tags, tt.wantTag)
		})
	}
}

func TestQueryFilter_Match(t *testing.T) {
	cs := ClassSchedule{SubjectID: 3, DayOfWeek: temporal.Friday}
	assert.True(t, QueryFilter{}.Match(cs))
	assert.True(t, QueryFilter{SubjectID: 3, DayOfWeek: temporal.Friday}.Match(cs))
	assert.False(t, QueryFilter{SubjectID: 4}.Match(cs))
	assert.False(t, QueryFilter{DayOfWeek: temporal.Monday}.Match(cs))
}
