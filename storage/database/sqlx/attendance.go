package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/temporal"
)

const recordColumns = `id, subject_id, schedule_id, date, is_present, note, type`

type (
	recordRow struct {
		ID         int      `db:"id"`
		SubjectID  int      `db:"subject_id"`
		ScheduleID null.Int `db:"schedule_id"`
		Date       int64    `db:"date"`
		IsPresent  bool     `db:"is_present"`
		Note       string   `db:"note"`
		Type       string   `db:"type"`
	}

	attendanceRepository struct {
		db *DB
	}
)

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (r recordRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:         r.ID,
		SubjectID:  r.SubjectID,
		ScheduleID: r.ScheduleID,
		Date:       temporal.EpochDay(r.Date),
		IsPresent:  r.IsPresent,
		Note:       r.Note,
		Type:       attendance.RecordType(r.Type),
	}
}

func typeStrings(types []attendance.RecordType) []string {
	strs := make([]string, 0, len(types))
	for _, t := range types {
		strs = append(strs, string(t))
	}
	return strs
}

// where renders the filter as an AND-ed WHERE clause with its arguments.
func where(exec sqlx.ExtContext, filter attendance.QueryFilter) (string, []interface{}, error) {
	var conds []string
	var args []interface{}

	if filter.SubjectID != 0 {
		conds = append(conds, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.ScheduleID.Valid {
		conds = append(conds, "schedule_id = ?")
		args = append(args, filter.ScheduleID.Int)
	}
	if filter.Date.Valid {
		conds = append(conds, "date = ?")
		args = append(args, filter.Date.Int64)
	}
	if len(filter.Types) > 0 {
		conds = append(conds, "type IN (?)")
		args = append(args, typeStrings(filter.Types))
	}
	if len(filter.ExclTypes) > 0 {
		conds = append(conds, "type NOT IN (?)")
		args = append(args, typeStrings(filter.ExclTypes))
	}
	if filter.IsPresent.Valid {
		conds = append(conds, "is_present = ?")
		args = append(args, filter.IsPresent.Bool)
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	clause := " WHERE " + strings.Join(conds, " AND ")
	if len(filter.Types) == 0 && len(filter.ExclTypes) == 0 {
		return exec.Rebind(clause), args, nil
	}
	return in(exec, clause, args...)
}

// SaveRecord replaces any record with the same (schedule, date) in the same transaction.
func (repo *attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	err := repo.db.inTx(ctx, func(tx *sqlx.Tx) error {
		if rec.ScheduleID.Valid {
			if _, err := tx.ExecContext(ctx,
				tx.Rebind(`DELETE FROM attendance_record WHERE schedule_id = ? AND date = ?`),
				rec.ScheduleID.Int, int64(rec.Date)); err != nil {
				return errors.Wrap(err, "deleting previous record")
			}
		}
		id, err := insertReturningID(ctx, tx,
			`INSERT INTO attendance_record (subject_id, schedule_id, date, is_present, note, type)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			rec.SubjectID, rec.ScheduleID, int64(rec.Date), rec.IsPresent, rec.Note, string(rec.Type))
		if err != nil {
			return errors.Wrap(err, "inserting record")
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	repo.db.Publish(core.TableRecord, rec.ID)
	return rec, nil
}

func (repo *attendanceRepository) ReplaceHolidays(
	ctx context.Context,
	date temporal.EpochDay,
	recs []attendance.Record,
) ([]attendance.Record, error) {
	saved := make([]attendance.Record, 0, len(recs))
	err := repo.db.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range recs {
			if _, err := getSubject(ctx, tx, rec.SubjectID); err != nil {
				return err
			}
		}
		for _, rec := range recs {
			if _, err := tx.ExecContext(ctx,
				tx.Rebind(`DELETE FROM attendance_record WHERE subject_id = ? AND date = ? AND type = ?`),
				rec.SubjectID, int64(date), string(attendance.TypeHoliday)); err != nil {
				return errors.Wrap(err, "deleting previous holiday")
			}
			id, err := insertReturningID(ctx, tx,
				`INSERT INTO attendance_record (subject_id, schedule_id, date, is_present, note, type)
				VALUES (?, NULL, ?, ?, ?, ?) RETURNING id`,
				rec.SubjectID, int64(date), rec.IsPresent, rec.Note, string(attendance.TypeHoliday))
			if err != nil {
				return errors.Wrap(err, "inserting holiday")
			}
			rec.ID = id
			rec.ScheduleID = null.Int{}
			rec.Date = date
			rec.Type = attendance.TypeHoliday
			saved = append(saved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(saved))
	for _, rec := range saved {
		ids = append(ids, rec.ID)
	}
	repo.db.Publish(core.TableRecord, ids...)
	return saved, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	clause, args, err := where(repo.db, filter)
	if err != nil {
		return nil, err
	}
	var rows []recordRow
	q := `SELECT ` + recordColumns + ` FROM attendance_record` + clause + ` ORDER BY date DESC, id DESC`
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, filter attendance.QueryFilter) (int, error) {
	clause, args, err := where(repo.db, filter)
	if err != nil {
		return 0, err
	}
	var n int
	if err = repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM attendance_record`+clause, args...); err != nil {
		return 0, errors.Wrap(err, "counting records")
	}
	return n, nil
}

func (repo *attendanceRepository) DeleteRecords(ctx context.Context, filter attendance.QueryFilter) (int, error) {
	clause, args, err := where(repo.db, filter)
	if err != nil {
		return 0, err
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_record`+clause, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted records")
	}
	if n > 0 {
		repo.db.Publish(core.TableRecord)
	}
	return int(n), nil
}
