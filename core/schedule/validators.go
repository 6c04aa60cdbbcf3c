package schedule

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkmeter/core"
)

var (
	timeRangeTag  = "timerange"
	timeRangeText = "class must end after it starts"
)

func init() {
	core.Validate.RegisterStructValidation(scheduleStructValidation, NewSchedule{})
	core.RegisterCustomTranslation(timeRangeTag, timeRangeText)
}

// scheduleStructValidation checks that a class starts strictly before it ends, within the same day.
func scheduleStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewSchedule)
	if !ok {
		return
	}
	if !ns.Start().Valid() || !ns.End().Valid() {
		return // reported by field validation
	}
	if !ns.Start().Before(ns.End()) {
		sl.ReportError(ns.EndHour, "end_hour", "EndHour", timeRangeTag, "")
	}
}
