package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) SaveRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	tbl := repo.db.record
	if rec.ScheduleID.Valid {
		for id, r := range tbl.table {
			if r.ScheduleID.Valid && r.ScheduleID.Int == rec.ScheduleID.Int && r.Date == rec.Date {
				delete(tbl.table, id)
			}
		}
	}
	tbl.pkCount++
	rec.ID = tbl.pkCount
	tbl.table[rec.ID] = &rec
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableRecord, rec.ID)
	return rec, nil
}

func (repo *attendanceRepository) ReplaceHolidays(
	_ context.Context,
	date temporal.EpochDay,
	recs []attendance.Record,
) ([]attendance.Record, error) {
	repo.db.mu.Lock()
	for _, rec := range recs {
		if _, ok := repo.db.subject.table[rec.SubjectID]; !ok {
			repo.db.mu.Unlock()
			return nil, subject.ErrNotFound
		}
	}

	tbl := repo.db.record
	saved := make([]attendance.Record, 0, len(recs))
	ids := make([]int, 0, len(recs))
	for _, rec := range recs {
		for id, r := range tbl.table {
			if r.SubjectID == rec.SubjectID && r.Date == date && r.Type == attendance.TypeHoliday {
				delete(tbl.table, id)
			}
		}
		rec.ScheduleID = null.Int{}
		rec.Date = date
		rec.Type = attendance.TypeHoliday
		tbl.pkCount++
		rec.ID = tbl.pkCount
		r := rec
		tbl.table[rec.ID] = &r
		saved = append(saved, rec)
		ids = append(ids, rec.ID)
	}
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableRecord, ids...)
	return saved, nil
}

func (repo *attendanceRepository) query(filter attendance.QueryFilter) []attendance.Record {
	recs := make([]attendance.Record, 0)
	for _, r := range repo.db.record.table {
		if filter.Match(*r) {
			recs = append(recs, *r)
		}
	}
	return recs
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	recs := repo.query(filter)
	repo.db.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date > recs[j].Date
		}
		return recs[i].ID > recs[j].ID
	})
	return recs, nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, filter attendance.QueryFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for _, r := range repo.db.record.table {
		if filter.Match(*r) {
			n++
		}
	}
	return n, nil
}

func (repo *attendanceRepository) DeleteRecords(_ context.Context, filter attendance.QueryFilter) (int, error) {
	repo.db.mu.Lock()
	ids := make([]int, 0)
	for id, r := range repo.db.record.table {
		if filter.Match(*r) {
			ids = append(ids, id)
			delete(repo.db.record.table, id)
		}
	}
	repo.db.mu.Unlock()

	if len(ids) > 0 {
		repo.db.Publish(core.TableRecord, ids...)
	}
	return len(ids), nil
}
