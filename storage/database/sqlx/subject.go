package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/subject"
)

type (
	subjectRow struct {
		ID               int    `db:"id"`
		Name             string `db:"name"`
		Color            string `db:"color"`
		TargetPercentage int    `db:"target_percentage"`
	}

	subjectRepository struct {
		db *DB
	}
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (r subjectRow) toSubject() subject.Subject {
	return subject.Subject{ID: r.ID, Name: r.Name, Color: r.Color, TargetPercentage: r.TargetPercentage}
}

func getSubject(ctx context.Context, exec sqlx.ExtContext, id int) (subject.Subject, error) {
	var row subjectRow
	q := exec.Rebind(`SELECT id, name, color, target_percentage FROM subject WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exec, &row, q, id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "getting subject")
	}
	return row.toSubject(), nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	id, err := insertReturningID(ctx, repo.db,
		`INSERT INTO subject (name, color, target_percentage) VALUES (?, ?, ?) RETURNING id`,
		subj.Name, subj.Color, subj.TargetPercentage)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	subj.ID = id
	repo.db.Publish(core.TableSubject, id)
	return subj, nil
}

func (repo *subjectRepository) QueryAllSubjects(ctx context.Context) ([]subject.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, color, target_percentage FROM subject ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.toSubject())
	}
	return subjects, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	return getSubject(ctx, repo.db, id)
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	res, err := repo.db.ExecContext(ctx,
		repo.db.Rebind(`UPDATE subject SET name = ?, color = ?, target_percentage = ? WHERE id = ?`),
		subj.Name, subj.Color, subj.TargetPercentage, subj.ID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.Publish(core.TableSubject, subj.ID)
	return subj, nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE for schedules and records.
func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM subject WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	repo.db.Publish(core.TableSubject, ids...)
	return nil
}
