package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/temporal"
)

const scheduleColumns = `id, subject_id, day_of_week, start_hour, start_minute, end_hour, end_minute`

type (
	scheduleRow struct {
		ID          int `db:"id"`
		SubjectID   int `db:"subject_id"`
		DayOfWeek   int `db:"day_of_week"`
		StartHour   int `db:"start_hour"`
		StartMinute int `db:"start_minute"`
		EndHour     int `db:"end_hour"`
		EndMinute   int `db:"end_minute"`
	}

	scheduleRepository struct {
		db *DB
	}
)

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (r scheduleRow) toSchedule() schedule.ClassSchedule {
	return schedule.ClassSchedule{
		ID:        r.ID,
		SubjectID: r.SubjectID,
		DayOfWeek: temporal.DayOfWeek(r.DayOfWeek),
		Start:     temporal.NewTimeOfDay(r.StartHour, r.StartMinute),
		End:       temporal.NewTimeOfDay(r.EndHour, r.EndMinute),
	}
}

func insertSchedule(ctx context.Context, exec sqlx.ExtContext, cs schedule.ClassSchedule) (schedule.ClassSchedule, error) {
	id, err := insertReturningID(ctx, exec,
		`INSERT INTO class_schedule (subject_id, day_of_week, start_hour, start_minute, end_hour, end_minute)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		cs.SubjectID, int(cs.DayOfWeek), cs.Start.Hour, cs.Start.Minute, cs.End.Hour, cs.End.Minute)
	if err != nil {
		return schedule.ClassSchedule{}, errors.Wrap(err, "inserting schedule")
	}
	cs.ID = id
	return cs, nil
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, cs schedule.ClassSchedule) (schedule.ClassSchedule, error) {
	err := repo.db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getSubject(ctx, tx, cs.SubjectID); err != nil {
			return err
		}
		var err error
		cs, err = insertSchedule(ctx, tx, cs)
		return err
	})
	if err != nil {
		return schedule.ClassSchedule{}, err
	}
	repo.db.Publish(core.TableSchedule, cs.ID)
	return cs, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id int) (schedule.ClassSchedule, error) {
	var row scheduleRow
	q := repo.db.Rebind(`SELECT ` + scheduleColumns + ` FROM class_schedule WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return schedule.ClassSchedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "getting schedule")
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, filter *schedule.QueryFilter) ([]schedule.ClassSchedule, error) {
	var where []string
	var args []interface{}
	if filter != nil {
		if filter.SubjectID != 0 {
			where = append(where, "subject_id = ?")
			args = append(args, filter.SubjectID)
		}
		if filter.DayOfWeek != 0 {
			where = append(where, "day_of_week = ?")
			args = append(args, int(filter.DayOfWeek))
		}
	}

	q := `SELECT ` + scheduleColumns + ` FROM class_schedule`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	schedules := make([]schedule.ClassSchedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, row.toSchedule())
	}
	return schedules, nil
}

func (repo *scheduleRepository) ReplaceSubjectSchedules(
	ctx context.Context,
	subjectID int,
	schedules []schedule.ClassSchedule,
) ([]schedule.ClassSchedule, error) {
	created := make([]schedule.ClassSchedule, 0, len(schedules))
	err := repo.db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getSubject(ctx, tx, subjectID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM class_schedule WHERE subject_id = ?`), subjectID); err != nil {
			return errors.Wrap(err, "deleting schedules")
		}
		for _, cs := range schedules {
			cs.SubjectID = subjectID
			inserted, err := insertSchedule(ctx, tx, cs)
			if err != nil {
				return err
			}
			created = append(created, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(created))
	for _, cs := range created {
		ids = append(ids, cs.ID)
	}
	repo.db.Publish(core.TableSchedule, ids...)
	return created, nil
}

// DeleteSchedulesByID relies on ON DELETE SET NULL to detach the schedules' records.
func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM class_schedule WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting schedules")
	}
	repo.db.Publish(core.TableSchedule, ids...)
	return nil
}
