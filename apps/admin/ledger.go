package main

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/temporal"
)

func (cli *commandLine) parseDate(s string) (temporal.EpochDay, error) {
	if s == "" {
		return temporal.EpochDayOf(cli.now()), nil
	}
	return temporal.ParseEpochDay(s)
}

func (cli *commandLine) mark(subjectID, scheduleID int, date string, isPresent bool, typ, note string) error {
	day, err := cli.parseDate(date)
	if err != nil {
		return err
	}
	m := attendance.Mark{
		SubjectID: subjectID,
		Date:      day,
		IsPresent: isPresent,
		Note:      note,
	}
	if scheduleID != 0 {
		m.ScheduleID = null.IntFrom(scheduleID)
	}
	if typ != "" {
		m.Type, _ = attendance.ParseRecordType(typ)
	}

	rec, err := cli.ledger.Record(context.Background(), m)
	if err != nil {
		return err
	}
	status := "absent"
	if rec.IsPresent {
		status = "present"
	}
	fmt.Fprintf(cli.out, "recorded #%d: subject %d on %s, %s (%s)\n", rec.ID, rec.SubjectID, rec.Date, status, rec.Type)
	return nil
}

func (cli *commandLine) holiday(date string, clear bool, subjectID int, note string) error {
	day, err := cli.parseDate(date)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if clear {
		n, err := cli.ledger.ClearHolidayOnDate(ctx, day)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "cleared %d holiday records on %s\n", n, day)
		return nil
	}

	var subjectIDs []int
	if subjectID != 0 {
		subjectIDs = append(subjectIDs, subjectID)
	}
	recs, err := cli.ledger.MarkHoliday(ctx, day, note, subjectIDs...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "marked %s as holiday for %d subjects\n", day, len(recs))
	return nil
}
