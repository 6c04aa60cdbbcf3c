package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	tbl := repo.db.subject
	tbl.pkCount++
	subj.ID = tbl.pkCount
	tbl.table[subj.ID] = &subj
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSubject, subj.ID)
	return subj, nil
}

func (repo *subjectRepository) QueryAllSubjects(_ context.Context) ([]subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.subject.table))
	for _, s := range repo.db.subject.table {
		subjects = append(subjects, *s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (repo *subjectRepository) GetSubjectByID(_ context.Context, id int) (subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.subject.table[id]; ok {
		return *s, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	if _, ok := repo.db.subject.table[subj.ID]; !ok {
		repo.db.mu.Unlock()
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.subject.table[subj.ID] = &subj
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSubject, subj.ID)
	return subj, nil
}

func (repo *subjectRepository) DeleteSubjectsByID(_ context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}

	repo.db.mu.Lock()
	subjIDs := make(map[int]bool, len(ids))
	for _, id := range ids {
		subjIDs[id] = true
		delete(repo.db.subject.table, id)
	}
	schdIDs := make(map[int]bool)
	for id, cs := range repo.db.schedule.table {
		if subjIDs[cs.SubjectID] {
			schdIDs[id] = true
		}
	}
	repo.db.deleteSchedules(schdIDs)
	for id, rec := range repo.db.record.table {
		if subjIDs[rec.SubjectID] {
			delete(repo.db.record.table, id)
		}
	}
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSubject, ids...)
	return nil
}
