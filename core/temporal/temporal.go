// Package temporal holds the calendar arithmetic shared by schedules, the ledger and reminders:
// weekly days (1 = Sunday .. 7 = Saturday), wall-clock times of day and calendar dates stored as
// day counts since the Unix epoch.
package temporal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

const (
	Sunday DayOfWeek = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const DaysPerWeek = 7

var (
	ErrInvalidDay       = errors.New("day of week must be between 1 (Sunday) and 7 (Saturday)")
	ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM within 00:00 and 23:59")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
)

// DayOfWeek is a weekly recurrence day, 1 (Sunday) through 7 (Saturday).
type DayOfWeek int

// AllDays lists every day of the week in order.
var AllDays = []DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (d DayOfWeek) Valid() bool { return d >= Sunday && d <= Saturday }

// Weekday converts d to a time.Weekday. d must be valid.
func (d DayOfWeek) Weekday() time.Weekday { return time.Weekday(d - 1) }

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return "DayOfWeek(" + strconv.Itoa(int(d)) + ")"
	}
	return d.Weekday().String()
}

// DayOf returns the day of week of t in t's location.
func DayOf(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday() + 1)
}

// ParseDayOfWeek accepts "1".."7" or an English day name or 3-letter abbreviation.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := DayOfWeek(n)
		if !d.Valid() {
			return 0, ErrInvalidDay
		}
		return d, nil
	}
	for _, d := range AllDays {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, ErrInvalidDay
}

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay{Hour: hour, Minute: minute} }

// TimeOfDayOf returns the hour and minute of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay { return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()} }

func (tod TimeOfDay) Valid() bool {
	return tod.Hour >= 0 && tod.Hour < 24 && tod.Minute >= 0 && tod.Minute < 60
}

// Minutes returns the number of minutes since midnight.
func (tod TimeOfDay) Minutes() int { return tod.Hour*60 + tod.Minute }

// Seconds returns the number of seconds since midnight.
func (tod TimeOfDay) Seconds() int { return tod.Minutes() * 60 }

func (tod TimeOfDay) Before(other TimeOfDay) bool { return tod.Minutes() < other.Minutes() }

func (tod TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", tod.Hour, tod.Minute) }

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	tod := TimeOfDay{Hour: h, Minute: m}
	if !tod.Valid() {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	return tod, nil
}

// SecondsIntoDay returns the number of seconds elapsed since midnight of t in t's location.
func SecondsIntoDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// EpochDay is a calendar date stored as the number of days since 1970-01-01.
type EpochDay int64

const dateLayout = "2006-01-02"

// EpochDayOf returns the calendar date of t as seen in t's location.
func EpochDayOf(t time.Time) EpochDay {
	y, m, d := t.Date()
	return EpochDay(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) EpochDay {
	return EpochDayOf(NowFunc().In(loc))
}

// Time returns midnight of the date in loc.
func (d EpochDay) Time(loc *time.Location) time.Time {
	utc := time.Unix(int64(d)*86400, 0).UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, loc)
}

func (d EpochDay) DayOfWeek() DayOfWeek { return DayOf(d.Time(time.UTC)) }

func (d EpochDay) AddDays(n int) EpochDay { return d + EpochDay(n) }

func (d EpochDay) String() string { return d.Time(time.UTC).Format(dateLayout) }

// ParseEpochDay parses a YYYY-MM-DD date.
func ParseEpochDay(s string) (EpochDay, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidDate
	}
	return EpochDayOf(t), nil
}

// StartOfWeek returns Sunday 00:00 of the week containing t, in t's location.
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

// At returns the instant of day/tod within the week starting at weekStart. Seconds are zero.
func At(weekStart time.Time, day DayOfWeek, tod TimeOfDay) time.Time {
	y, m, d := weekStart.Date()
	return time.Date(y, m, d+int(day-Sunday), tod.Hour, tod.Minute, 0, 0, weekStart.Location())
}
