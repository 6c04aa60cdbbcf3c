package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// insert stores cs under a new primary key. Callers must hold the write lock.
func (repo *scheduleRepository) insert(cs schedule.ClassSchedule) schedule.ClassSchedule {
	tbl := repo.db.schedule
	tbl.pkCount++
	cs.ID = tbl.pkCount
	tbl.table[cs.ID] = &cs
	return cs
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, cs schedule.ClassSchedule) (schedule.ClassSchedule, error) {
	repo.db.mu.Lock()
	if _, ok := repo.db.subject.table[cs.SubjectID]; !ok {
		repo.db.mu.Unlock()
		return schedule.ClassSchedule{}, subject.ErrNotFound
	}
	cs = repo.insert(cs)
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSchedule, cs.ID)
	return cs, nil
}

func (repo *scheduleRepository) GetScheduleByID(_ context.Context, id int) (schedule.ClassSchedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cs, ok := repo.db.schedule.table[id]; ok {
		return *cs, nil
	}
	return schedule.ClassSchedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QuerySchedules(_ context.Context, filter *schedule.QueryFilter) ([]schedule.ClassSchedule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schedules := make([]schedule.ClassSchedule, 0)
	for _, cs := range repo.db.schedule.table {
		if filter == nil || filter.Match(*cs) {
			schedules = append(schedules, *cs)
		}
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].ID < schedules[j].ID })
	return schedules, nil
}

func (repo *scheduleRepository) ReplaceSubjectSchedules(
	_ context.Context,
	subjectID int,
	schedules []schedule.ClassSchedule,
) ([]schedule.ClassSchedule, error) {
	repo.db.mu.Lock()
	if _, ok := repo.db.subject.table[subjectID]; !ok {
		repo.db.mu.Unlock()
		return nil, subject.ErrNotFound
	}

	old := make(map[int]bool)
	for id, cs := range repo.db.schedule.table {
		if cs.SubjectID == subjectID {
			old[id] = true
		}
	}
	repo.db.deleteSchedules(old)

	created := make([]schedule.ClassSchedule, 0, len(schedules))
	for _, cs := range schedules {
		cs.SubjectID = subjectID
		created = append(created, repo.insert(cs))
	}
	repo.db.mu.Unlock()

	ids := make([]int, 0, len(created))
	for _, cs := range created {
		ids = append(ids, cs.ID)
	}
	repo.db.Publish(core.TableSchedule, ids...)
	return created, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(_ context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}

	repo.db.mu.Lock()
	toDel := make(map[int]bool, len(ids))
	for _, id := range ids {
		toDel[id] = true
	}
	repo.db.deleteSchedules(toDel)
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSchedule, ids...)
	return nil
}
