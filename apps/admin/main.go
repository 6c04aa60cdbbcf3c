package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/services/logger"
	"github.com/trezcool/bunkmeter/storage/database"
	"github.com/trezcool/bunkmeter/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	if conf.Database.Engine == core.EngineMemory {
		logger.Fatal("the admin CLI needs a SQL database: set db.engine to sqlite3 or postgres")
	}

	// set up DB
	sdb, err := database.Open(conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if len(os.Args) > 1 && os.Args[1] != "migrate" {
		if err = database.Migrate(sdb); err != nil {
			_ = sdb.Close()
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
	}
	db := sqlxrepos.NewDB(sdb)

	subjRepo := sqlxrepos.NewSubjectRepository(db)
	schdRepo := sqlxrepos.NewScheduleRepository(db)
	ledger := attendance.NewLedger(sqlxrepos.NewAttendanceRepository(db), subjRepo, schdRepo)

	// start CLI
	cli := commandLine{
		db:       sdb,
		out:      os.Stdout,
		loc:      conf.Location,
		subjSvc:  subject.NewService(subjRepo, conf.DefaultTargetPercentage),
		schdSvc:  schedule.NewService(schdRepo, subjRepo),
		resolver: schedule.NewResolver(schdRepo, subjRepo),
		ledger:   ledger,
		stats:    stats.NewEngine(subjRepo, ledger),
	}
	err = cli.run(os.Args)
	_ = sdb.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
