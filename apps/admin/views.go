package main

import (
	"context"
	"fmt"

	"github.com/trezcool/bunkmeter/core/reminder"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

const timestampLayout = "Mon 2006-01-02 15:04"

func (cli *commandLine) printClass(sws schedule.ScheduleWithSubject) {
	var status string
	switch {
	case sws.IsCurrent:
		status = " (now)"
	case sws.IsCompleted:
		status = " (done)"
	}
	fmt.Fprintf(cli.out, "  %s-%s  %s%s\n", sws.Start, sws.End, sws.Subject.Name, status)
}

func (cli *commandLine) today() error {
	now := cli.now()
	classes, err := cli.resolver.Today(context.Background(), now)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s, %s:\n", temporal.DayOf(now), temporal.EpochDayOf(now))
	if len(classes) == 0 {
		fmt.Fprintln(cli.out, "  no classes")
	}
	for _, sws := range classes {
		cli.printClass(sws)
	}
	return nil
}

func (cli *commandLine) week() error {
	weekly, err := cli.resolver.Weekly(context.Background(), cli.now())
	if err != nil {
		return err
	}
	for _, day := range temporal.AllDays {
		fmt.Fprintf(cli.out, "%s:\n", day)
		if len(weekly[day]) == 0 {
			fmt.Fprintln(cli.out, "  -")
		}
		for _, sws := range weekly[day] {
			cli.printClass(sws)
		}
	}
	return nil
}

func analysisText(ba stats.BunkAnalysis) string {
	switch {
	case ba.Unlimited:
		return "no limit"
	case ba.Unreachable:
		return "target unreachable"
	case ba.ClassesToAttend > 0:
		return fmt.Sprintf("must attend %d", ba.ClassesToAttend)
	default:
		return fmt.Sprintf("can bunk %d", ba.ClassesToBunk)
	}
}

func (cli *commandLine) printStats() error {
	ctx := context.Background()
	overall, err := cli.stats.Overall(ctx)
	if err != nil {
		return err
	}
	subjects, err := cli.stats.Subjects(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Overall: %d/%d (%.1f%%) across %d subjects\n",
		overall.TotalPresent, overall.TotalClasses, overall.OverallPercentage, overall.SubjectCount)
	for _, swa := range subjects {
		fmt.Fprintf(cli.out, "  #%d %s: %d/%d (%.1f%%), target %d%%: %s\n",
			swa.ID, swa.Name, swa.Present, swa.TotalClasses, swa.Percentage, swa.TargetPercentage, analysisText(swa.Analysis))
	}
	return nil
}

func (cli *commandLine) reminders() error {
	ctx := context.Background()
	schedules, err := cli.schdSvc.QueryAll(ctx)
	if err != nil {
		return err
	}
	subjects, err := cli.subjSvc.QueryAll(ctx)
	if err != nil {
		return err
	}

	now := cli.now()
	classes := schedule.Join(schedules, subject.Index(subjects), now)
	if len(classes) == 0 {
		fmt.Fprintln(cli.out, "no reminders")
	}
	for _, sws := range classes {
		fireAt := reminder.NextFireInstant(sws.ClassSchedule, now)
		fmt.Fprintf(cli.out, "#%d %s (%s %s): %s\n",
			sws.ID, sws.Subject.Name, sws.DayOfWeek, sws.Start, fireAt.Format(timestampLayout))
	}
	return nil
}
