package reminder

import (
	"time"

	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// NextFireInstant returns when the reminder of cs should next fire: the schedule's day and start time in
// now's week (seconds truncated), or the same slot one week later when that instant is not after now.
func NextFireInstant(cs schedule.ClassSchedule, now time.Time) time.Time {
	candidate := temporal.At(temporal.StartOfWeek(now), cs.DayOfWeek, cs.Start)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, temporal.DaysPerWeek)
	}
	return candidate
}
