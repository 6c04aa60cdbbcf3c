package dig_container

import (
	"context"
	"io"
	"log"
	"net/mail"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bunkmeter/apps/api/echo"
	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/reminder"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/settings"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
	alarmsvc "github.com/trezcool/bunkmeter/services/alarm"
	emailsvc "github.com/trezcool/bunkmeter/services/email"
	logsvc "github.com/trezcool/bunkmeter/services/logger"
	"github.com/trezcool/bunkmeter/storage/database"
	inmemdb "github.com/trezcool/bunkmeter/storage/database/inmem"
	sqlxrepos "github.com/trezcool/bunkmeter/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage holds the repositories of the configured database engine.
type Storage struct {
	dig.Out

	SubjRepo subject.Repository
	SchdRepo schedule.Repository
	RecRepo  attendance.Repository
	SetRepo  settings.Repository
	Changes  core.ChangeSubscriber
	DB       io.Closer `name:"db"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) (Storage, error) {
	if conf.Database.Engine == core.EngineMemory {
		db := inmemdb.Open()
		loggerParam.Logger.Info("using in-memory storage; data is lost on exit")
		return Storage{
			SubjRepo: inmemdb.NewSubjectRepository(db),
			SchdRepo: inmemdb.NewScheduleRepository(db),
			RecRepo:  inmemdb.NewAttendanceRepository(db),
			SetRepo:  inmemdb.NewSettingsRepository(db),
			Changes:  db,
			DB:       nopCloser{},
		}, nil
	}

	sdb, err := database.Open(conf.Database)
	if err != nil {
		return Storage{}, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(sdb); err != nil {
		_ = sdb.Close()
		return Storage{}, errors.Wrap(err, "migrating database")
	}
	loggerParam.Logger.Info("using " + conf.Database.Engine + " storage")

	db := sqlxrepos.NewDB(sdb)
	return Storage{
		SubjRepo: sqlxrepos.NewSubjectRepository(db),
		SchdRepo: sqlxrepos.NewScheduleRepository(db),
		RecRepo:  sqlxrepos.NewAttendanceRepository(db),
		SetRepo:  sqlxrepos.NewSettingsRepository(db),
		Changes:  db,
		DB:       db,
	}, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(log.New(os.Stdout, "", 0), logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newSubjectService(conf *core.Config, repo subject.Repository) *subject.Service {
	return subject.NewService(repo, conf.DefaultTargetPercentage)
}

// newReminderService sends reminders by email to `reminders.email`, or to the console when it is not set.
func newReminderService(
	conf *core.Config,
	logger core.Logger,
	mailSvc core.EmailService,
	schdRepo schedule.Repository,
	subjRepo subject.Repository,
	ledger *attendance.Ledger,
	engine *stats.Engine,
	settingsSvc *settings.Service,
	alarms *alarmsvc.Scheduler,
) (*reminder.Service, error) {
	to := conf.DefaultFromEmail()
	if conf.Reminders.Email == "" {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "", 0), logger, conf)
	} else {
		addr, err := mail.ParseAddress(conf.Reminders.Email)
		if err != nil {
			return nil, errors.Wrap(err, "parsing reminders.email")
		}
		to = *addr
	}

	percentage := func(ctx context.Context, subjectID int) (float64, error) {
		swa, err := engine.Subject(ctx, subjectID)
		return swa.Percentage, err
	}
	notifier := reminder.NewEmailNotifier(mailSvc, to, percentage, settingsSvc.UserName)

	svc := reminder.NewService(schdRepo, subjRepo, ledger, alarms, notifier, logger, conf.Location)
	alarms.Handle(svc.Fire)
	return svc, nil
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(newSubjectService))
	must(c.Provide(schedule.NewService))
	must(c.Provide(schedule.NewResolver))
	must(c.Provide(attendance.NewLedger))
	must(c.Provide(func(subjRepo subject.Repository, ledger *attendance.Ledger) *stats.Engine {
		return stats.NewEngine(subjRepo, ledger)
	}))
	must(c.Provide(settings.NewService))
	must(c.Provide(alarmsvc.NewScheduler))
	must(c.Provide(newReminderService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
