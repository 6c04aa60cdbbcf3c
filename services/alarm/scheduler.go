package alarmsvc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/reminder"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// Handler receives due alarms.
type Handler func(ctx context.Context, alarm reminder.Alarm) error

type pending struct {
	alarm reminder.Alarm
	timer *time.Timer
}

// Scheduler delivers alarms in-process with one timer per schedule.
type Scheduler struct {
	logger  core.Logger
	mu      sync.Mutex
	handler Handler
	pending map[int]*pending // {scheduleID: pending}
}

var _ reminder.AlarmScheduler = (*Scheduler)(nil) // interface compliance check

func NewScheduler(logger core.Logger) *Scheduler {
	return &Scheduler{logger: logger, pending: make(map[int]*pending)}
}

// Handle sets the handler of due alarms. Alarms due before a handler is set are dropped.
func (s *Scheduler) Handle(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func (s *Scheduler) Schedule(alarm reminder.Alarm) error {
	delay := alarm.FireAt.Sub(temporal.NowFunc())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[alarm.ScheduleID]; ok {
		p.timer.Stop()
	}
	s.pending[alarm.ScheduleID] = &pending{
		alarm: alarm,
		timer: time.AfterFunc(delay, func() { s.fire(alarm) }),
	}
	return nil
}

func (s *Scheduler) Cancel(scheduleID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[scheduleID]; ok {
		p.timer.Stop()
		delete(s.pending, scheduleID)
	}
}

func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Pending returns the registered alarms by fire time.
func (s *Scheduler) Pending() []reminder.Alarm {
	s.mu.Lock()
	alarms := make([]reminder.Alarm, 0, len(s.pending))
	for _, p := range s.pending {
		alarms = append(alarms, p.alarm)
	}
	s.mu.Unlock()

	sort.Slice(alarms, func(i, j int) bool { return alarms[i].FireAt.Before(alarms[j].FireAt) })
	return alarms
}

func (s *Scheduler) fire(alarm reminder.Alarm) {
	s.mu.Lock()
	if p, ok := s.pending[alarm.ScheduleID]; ok && p.alarm.ID == alarm.ID {
		delete(s.pending, alarm.ScheduleID)
	}
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		s.logger.Warn(fmt.Sprintf("alarm of schedule %d dropped: no handler", alarm.ScheduleID))
		return
	}
	if err := handler(context.Background(), alarm); err != nil {
		s.logger.Error(fmt.Sprintf("firing alarm of schedule %d: %v", alarm.ScheduleID, err), err)
	}
}
