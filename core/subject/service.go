package subject

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound = errors.New("subject not found")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, subj Subject) (Subject, error)
		// DeleteSubjectsByID also deletes the subjects' schedules and attendance records.
		DeleteSubjectsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo          Repository
		defaultTarget int
	}
)

func NewService(repo Repository, defaultTarget ...int) *Service {
	target := DefaultTargetPercentage
	if len(defaultTarget) > 0 {
		target = defaultTarget[0]
	}
	return &Service{repo: repo, defaultTarget: target}
}

func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := ns.Validate(svc.defaultTarget); err != nil {
		return Subject{}, err
	}
	return svc.repo.CreateSubject(ctx, Subject{
		Name:             ns.Name,
		Color:            ns.Color,
		TargetPercentage: *ns.TargetPercentage,
	})
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	if err := us.Validate(); err != nil {
		return Subject{}, err
	}
	orig, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubject(ctx, us.Apply(orig))
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}

// Index maps subjects by ID.
func Index(subjects []Subject) map[int]Subject {
	idx := make(map[int]Subject, len(subjects))
	for _, s := range subjects {
		idx[s.ID] = s
	}
	return idx
}
