package reminder_test

import (
	"context"
	"errors"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/reminder"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
	"github.com/trezcool/bunkmeter/storage/database/inmem"
	"github.com/trezcool/bunkmeter/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type alarmsMock struct {
	mu      sync.Mutex
	pending map[int]reminder.Alarm
}

func (m *alarmsMock) Schedule(alarm reminder.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[alarm.ScheduleID] = alarm
	return nil
}

func (m *alarmsMock) Cancel(scheduleID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, scheduleID)
}

func (m *alarmsMock) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[int]reminder.Alarm)
}

func (m *alarmsMock) get(scheduleID int) (reminder.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alarm, ok := m.pending[scheduleID]
	return alarm, ok
}

type notifierMock struct {
	sent []reminder.Reminder
	err  error
}

func (m *notifierMock) Notify(_ context.Context, r reminder.Reminder) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, r)
	return nil
}

type fixture struct {
	svc      *reminder.Service
	alarms   *alarmsMock
	notifier *notifierMock
	ledger   *attendance.Ledger
	subjRepo subject.Repository
	schdRepo schedule.Repository
}

func setup(t *testing.T, now time.Time) fixture {
	temporal.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { temporal.NowFunc = time.Now })

	db := inmemdb.Open()
	f := fixture{
		alarms:   &alarmsMock{pending: make(map[int]reminder.Alarm)},
		notifier: &notifierMock{},
		subjRepo: inmemdb.NewSubjectRepository(db),
		schdRepo: inmemdb.NewScheduleRepository(db),
	}
	f.ledger = attendance.NewLedger(inmemdb.NewAttendanceRepository(db), f.subjRepo, f.schdRepo)
	f.svc = reminder.NewService(f.schdRepo, f.subjRepo, f.ledger, f.alarms, f.notifier, nopLogger{}, time.UTC)
	return f
}

var monday = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func TestService_RegisterAll(t *testing.T) {
	ctx := context.Background()
	f := setup(t, monday)

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	mon := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	sun := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Sunday, "09:00", "10:00")
	f.alarms.pending[42] = reminder.Alarm{ScheduleID: 42}

	n, err := f.svc.RegisterAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	alarm, ok := f.alarms.get(mon.ID)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), alarm.FireAt)
	assert.Equal(t, subj.ID, alarm.SubjectID)

	alarm, ok = f.alarms.get(sun.ID)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC), alarm.FireAt)

	_, ok = f.alarms.get(42)
	assert.False(t, ok, "stale alarms are dropped")

	f.svc.Cancel(mon.ID)
	_, ok = f.alarms.get(mon.ID)
	assert.False(t, ok)
}

func TestService_Fire(t *testing.T) {
	ctx := context.Background()
	f := setup(t, monday.Add(time.Hour)) // delivered at 09:00

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	cs := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	alarm := reminder.Alarm{SubjectID: subj.ID, ScheduleID: cs.ID, FireAt: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)}

	require.NoError(t, f.svc.Fire(ctx, alarm))
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, temporal.EpochDayOf(alarm.FireAt), f.notifier.sent[0].Date)
	assert.Equal(t, "Math", f.notifier.sent[0].Subject.Name)

	next, ok := f.alarms.get(cs.ID)
	require.True(t, ok)
	assert.Equal(t, alarm.FireAt.AddDate(0, 0, 7), next.FireAt)

	// at-least-once delivery
	require.NoError(t, f.svc.Fire(ctx, alarm))
	assert.Len(t, f.notifier.sent, 1)
}

func TestService_Fire_skips(t *testing.T) {
	ctx := context.Background()
	f := setup(t, monday.Add(time.Hour))

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	holiday := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	cancelled := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "11:00", "12:00")
	date := temporal.EpochDayOf(monday)

	_, err := f.ledger.MarkHoliday(ctx, date, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Fire(ctx, reminder.Alarm{ScheduleID: holiday.ID, FireAt: monday.Add(time.Hour)}))

	_, err = f.ledger.ClearHolidayOnDate(ctx, date)
	require.NoError(t, err)
	_, err = f.ledger.CancelClass(ctx, cancelled, date, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Fire(ctx, reminder.Alarm{ScheduleID: cancelled.ID, FireAt: monday.Add(3 * time.Hour)}))

	assert.Empty(t, f.notifier.sent)
	for _, id := range []int{holiday.ID, cancelled.ID} {
		_, ok := f.alarms.get(id)
		assert.True(t, ok, "next week is registered anyway")
	}
}

func TestService_Fire_deletedSchedule(t *testing.T) {
	ctx := context.Background()
	f := setup(t, monday)

	f.alarms.pending[7] = reminder.Alarm{ScheduleID: 7}
	require.NoError(t, f.svc.Fire(ctx, reminder.Alarm{ScheduleID: 7, FireAt: monday}))
	_, ok := f.alarms.get(7)
	assert.False(t, ok)
	assert.Empty(t, f.notifier.sent)
}

func TestService_Fire_retriesFailedNotification(t *testing.T) {
	ctx := context.Background()
	f := setup(t, monday.Add(time.Hour))

	subj := testutil.CreateSubject(t, f.subjRepo, "Math")
	cs := testutil.CreateSchedule(t, f.schdRepo, subj.ID, temporal.Monday, "09:00", "10:00")
	alarm := reminder.Alarm{ScheduleID: cs.ID, FireAt: monday.Add(time.Hour)}

	f.notifier.err = errors.New("smtp down")
	assert.Error(t, f.svc.Fire(ctx, alarm))

	f.notifier.err = nil
	require.NoError(t, f.svc.Fire(ctx, alarm))
	assert.Len(t, f.notifier.sent, 1)
}

type mailMock struct {
	messages []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = msg.Render()
		m.messages = append(m.messages, msg)
	}
}

func TestEmailNotifier(t *testing.T) {
	ctx := context.Background()
	mailSvc := &mailMock{}
	to := mail.Address{Name: "Ada", Address: "ada@example.com"}
	n := reminder.NewEmailNotifier(mailSvc, to,
		func(context.Context, int) (float64, error) { return 82.5, nil },
		func(context.Context) string { return "Ada" },
	)

	err := n.Notify(ctx, reminder.Reminder{
		Subject: subject.Subject{ID: 1, Name: "Math"},
		Schedule: schedule.ClassSchedule{
			Start: temporal.NewTimeOfDay(9, 0),
			End:   temporal.NewTimeOfDay(10, 0),
		},
		Date: temporal.EpochDay(20000),
	})
	require.NoError(t, err)
	require.Len(t, mailSvc.messages, 1)

	msg := mailSvc.messages[0]
	assert.Equal(t, []mail.Address{to}, msg.To)
	assert.Equal(t, "Math at 09:00", msg.Subject)
	assert.Contains(t, msg.TextContent, "Hi Ada,")
	assert.Contains(t, msg.TextContent, "Math starts at 09:00 (until 10:00) today, 2024-10-04.")
	assert.Contains(t, msg.TextContent, "82.5%")
	assert.Contains(t, msg.HTMLContent, "<strong>Math</strong>")
}
