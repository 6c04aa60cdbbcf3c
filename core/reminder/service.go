package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

type (
	// Alarm is the payload handed to the alarm collaborator; it is delivered back to Fire at or after FireAt.
	Alarm struct {
		ID         uuid.UUID `json:"id"`
		SubjectID  int       `json:"subject_id"`
		ScheduleID int       `json:"schedule_id"`
		FireAt     time.Time `json:"fire_at"`
	}

	// AlarmScheduler registers one pending alarm per schedule. Scheduling a schedule again replaces its alarm.
	AlarmScheduler interface {
		Schedule(alarm Alarm) error
		Cancel(scheduleID int)
		CancelAll()
	}

	Reminder struct {
		Subject  subject.Subject
		Schedule schedule.ClassSchedule
		Date     temporal.EpochDay
		FireAt   time.Time
	}

	Notifier interface {
		Notify(ctx context.Context, r Reminder) error
	}

	// SkipChecker tells whether a class does not take place on a date.
	SkipChecker interface {
		IsHoliday(ctx context.Context, subjectID int, date temporal.EpochDay) (bool, error)
		IsCancelled(ctx context.Context, scheduleID int, date temporal.EpochDay) (bool, error)
	}

	firedKey struct {
		scheduleID int
		date       temporal.EpochDay
	}

	Service struct {
		schdRepo schedule.Repository
		subjRepo subject.Repository
		skips    SkipChecker
		alarms   AlarmScheduler
		notifier Notifier
		logger   core.Logger
		loc      *time.Location

		mu    sync.Mutex
		fired map[firedKey]struct{}
	}
)

func NewService(
	schdRepo schedule.Repository,
	subjRepo subject.Repository,
	skips SkipChecker,
	alarms AlarmScheduler,
	notifier Notifier,
	logger core.Logger,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		schdRepo: schdRepo,
		subjRepo: subjRepo,
		skips:    skips,
		alarms:   alarms,
		notifier: notifier,
		logger:   logger,
		loc:      loc,
		fired:    make(map[firedKey]struct{}),
	}
}

func (svc *Service) now() time.Time {
	return temporal.NowFunc().In(svc.loc)
}

// Next returns the next fire instant of cs from now.
func (svc *Service) Next(cs schedule.ClassSchedule) time.Time {
	return NextFireInstant(cs, svc.now())
}

// Register (re-)registers the alarm of cs at its next fire instant.
func (svc *Service) Register(ctx context.Context, cs schedule.ClassSchedule) (Alarm, error) {
	return svc.registerFrom(cs, svc.now())
}

func (svc *Service) registerFrom(cs schedule.ClassSchedule, from time.Time) (Alarm, error) {
	alarm := Alarm{
		ID:         uuid.New(),
		SubjectID:  cs.SubjectID,
		ScheduleID: cs.ID,
		FireAt:     NextFireInstant(cs, from),
	}
	if err := svc.alarms.Schedule(alarm); err != nil {
		return Alarm{}, errors.Wrapf(err, "scheduling alarm of schedule %d", cs.ID)
	}
	return alarm, nil
}

// Cancel drops the pending alarm of a schedule.
func (svc *Service) Cancel(scheduleID int) {
	svc.alarms.Cancel(scheduleID)
}

// RegisterAll drops every pending alarm and registers one per stored schedule.
// It runs at boot and whenever the schedules change.
func (svc *Service) RegisterAll(ctx context.Context) (int, error) {
	schedules, err := svc.schdRepo.QuerySchedules(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying schedules")
	}
	svc.alarms.CancelAll()

	now := svc.now()
	for _, cs := range schedules {
		if _, err := svc.registerFrom(cs, now); err != nil {
			return 0, err
		}
	}
	return len(schedules), nil
}

// Fire handles a delivered alarm. Repeated deliveries for the same schedule and date notify once.
// Holidays and cancelled classes are not notified. The next week's alarm is always registered.
func (svc *Service) Fire(ctx context.Context, alarm Alarm) error {
	cs, err := svc.schdRepo.GetScheduleByID(ctx, alarm.ScheduleID)
	if err != nil {
		if errors.Cause(err) == schedule.ErrNotFound {
			svc.alarms.Cancel(alarm.ScheduleID)
			return nil
		}
		return errors.Wrap(err, "getting schedule")
	}
	subj, err := svc.subjRepo.GetSubjectByID(ctx, cs.SubjectID)
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			svc.alarms.Cancel(alarm.ScheduleID)
			return nil
		}
		return errors.Wrap(err, "getting subject")
	}

	fireAt := alarm.FireAt.In(svc.loc)
	date := temporal.EpochDayOf(fireAt)

	// the next alarm is computed from the later of now and the delivered instant
	from := svc.now()
	if fireAt.After(from) {
		from = fireAt
	}
	defer func() {
		if _, err := svc.registerFrom(cs, from); err != nil {
			svc.logger.Error(fmt.Sprintf("re-registering reminder: %v", err), err)
		}
	}()

	if !svc.markFired(firedKey{scheduleID: cs.ID, date: date}) {
		return nil
	}

	skip, err := svc.skipped(ctx, cs, date)
	if err != nil {
		svc.unmarkFired(firedKey{scheduleID: cs.ID, date: date})
		return err
	}
	if skip {
		svc.logger.Debug(fmt.Sprintf("reminder of %s on %s skipped", subj.Name, date))
		return nil
	}

	if err := svc.notifier.Notify(ctx, Reminder{Subject: subj, Schedule: cs, Date: date, FireAt: fireAt}); err != nil {
		svc.unmarkFired(firedKey{scheduleID: cs.ID, date: date})
		return errors.Wrap(err, "notifying")
	}
	return nil
}

func (svc *Service) skipped(ctx context.Context, cs schedule.ClassSchedule, date temporal.EpochDay) (bool, error) {
	if svc.skips == nil {
		return false, nil
	}
	holiday, err := svc.skips.IsHoliday(ctx, cs.SubjectID, date)
	if err != nil {
		return false, errors.Wrap(err, "checking holiday")
	}
	if holiday {
		return true, nil
	}
	cancelled, err := svc.skips.IsCancelled(ctx, cs.ID, date)
	if err != nil {
		return false, errors.Wrap(err, "checking cancellation")
	}
	return cancelled, nil
}

// markFired records key and reports whether it was new. Entries older than a week are pruned.
func (svc *Service) markFired(key firedKey) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.fired[key]; ok {
		return false
	}
	for k := range svc.fired {
		if k.date < key.date-temporal.DaysPerWeek {
			delete(svc.fired, k)
		}
	}
	svc.fired[key] = struct{}{}
	return true
}

func (svc *Service) unmarkFired(key firedKey) {
	svc.mu.Lock()
	delete(svc.fired, key)
	svc.mu.Unlock()
}

// StartResync re-registers every reminder on the given cron spec (e.g. "@hourly").
// The returned cron must be stopped by the caller.
func (svc *Service) StartResync(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(svc.loc))
	_, err := c.AddFunc(spec, func() {
		n, err := svc.RegisterAll(context.Background())
		if err != nil {
			svc.logger.Error(fmt.Sprintf("re-registering reminders: %v", err), err)
			return
		}
		svc.logger.Debug(fmt.Sprintf("%d reminders re-registered", n))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "parsing cron spec %q", spec)
	}
	c.Start()
	return c, nil
}
