package dig_container

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/dig"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/reminder"
	alarmsvc "github.com/trezcool/bunkmeter/services/alarm"
)

type ReminderParams struct {
	dig.In

	Conf      *core.Config
	Logger    core.Logger
	Reminders *reminder.Service
	Alarms    *alarmsvc.Scheduler
	Changes   core.ChangeSubscriber
}

// StartReminders registers every reminder, then re-registers them whenever subjects or schedules change
// and on the `reminders.resync` cron spec. stop releases all of it.
func StartReminders(ctx context.Context, p ReminderParams) (stop func(), err error) {
	n, err := p.Reminders.RegisterAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "registering reminders")
	}
	p.Logger.Info(fmt.Sprintf("%d reminders registered", n))

	unsubscribe := p.Changes.Subscribe(func(ch core.Change) {
		if ch.Table != core.TableSchedule && ch.Table != core.TableSubject {
			return
		}
		if _, err := p.Reminders.RegisterAll(context.Background()); err != nil {
			p.Logger.Error(fmt.Sprintf("re-registering reminders: %v", err), err)
		}
	})

	var resync *cron.Cron
	if p.Conf.Reminders.Resync != "" {
		if resync, err = p.Reminders.StartResync(p.Conf.Reminders.Resync); err != nil {
			unsubscribe()
			return nil, err
		}
	}

	return func() {
		unsubscribe()
		if resync != nil {
			<-resync.Stop().Done()
		}
		p.Alarms.CancelAll()
	}, nil
}
