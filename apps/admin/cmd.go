package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	out      io.Writer
	loc      *time.Location
	subjSvc  *subject.Service
	schdSvc  *schedule.Service
	resolver *schedule.Resolver
	ledger   *attendance.Ledger
	stats    *stats.Engine
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  today - list today's classes")
	fmt.Fprintln(cli.out, "  week - list the classes of every day of the week")
	fmt.Fprintln(cli.out, "  stats - print attendance statistics")
	fmt.Fprintln(cli.out, "  mark -subject ID [-schedule ID] [-date YYYY-MM-DD] [-absent] [-type CLASS|MANUAL|CANCELLED] [-note NOTE] - record attendance")
	fmt.Fprintln(cli.out, "  holiday -date YYYY-MM-DD [-clear] [-subject ID] - mark or clear a holiday")
	fmt.Fprintln(cli.out, "  reminders - list the next reminder of every class")
}

func (cli *commandLine) now() time.Time {
	return temporal.NowFunc().In(cli.loc)
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	markCmd := cli.newFlagSet("mark")
	markSubject := markCmd.Int("subject", 0, "The subject ID.")
	markSchedule := markCmd.Int("schedule", 0, "The class schedule ID, if the class is a scheduled one.")
	markDate := markCmd.String("date", "", "The date of the class (YYYY-MM-DD). Defaults to today.")
	markAbsent := markCmd.Bool("absent", false, "Record an absence instead of a presence.")
	markType := markCmd.String("type", "", "CLASS, MANUAL or CANCELLED. Defaults to CLASS with -schedule, MANUAL otherwise.")
	markNote := markCmd.String("note", "", "An optional note.")

	holidayCmd := cli.newFlagSet("holiday")
	holidayDate := holidayCmd.String("date", "", "The date of the holiday (YYYY-MM-DD).")
	holidayClear := holidayCmd.Bool("clear", false, "Clear the holiday instead of marking it.")
	holidaySubject := holidayCmd.Int("subject", 0, "Limit the holiday to one subject. Defaults to every subject.")
	holidayNote := holidayCmd.String("note", "", "An optional note.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "today":
		return cli.today()
	case "week":
		return cli.week()
	case "stats":
		return cli.printStats()
	case "reminders":
		return cli.reminders()
	case "mark":
		if err := markCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *markSubject == 0 {
			markCmd.Usage()
			return errHelp
		}
		return cli.mark(*markSubject, *markSchedule, *markDate, !*markAbsent, *markType, *markNote)
	case "holiday":
		if err := holidayCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *holidayDate == "" {
			holidayCmd.Usage()
			return errHelp
		}
		return cli.holiday(*holidayDate, *holidayClear, *holidaySubject, *holidayNote)
	default:
		cli.printUsage()
		return errHelp
	}
}
