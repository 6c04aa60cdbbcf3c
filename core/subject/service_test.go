package subject_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/storage/database/inmem"
)

func intPtr(i int) *int { return &i }
func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		defaults   []int
		ns         subject.NewSubject
		wantTarget int
		wantErr    bool
	}{
		{name: "default target", ns: subject.NewSubject{Name: " Math "}, wantTarget: 75},
		{name: "configured default", defaults: []int{80}, ns: subject.NewSubject{Name: "Math"}, wantTarget: 80},
		{name: "explicit target", ns: subject.NewSubject{Name: "Math", TargetPercentage: intPtr(0)}, wantTarget: 0},
		{name: "blank name", ns: subject.NewSubject{Name: "   "}, wantErr: true},
		{name: "target above 100", ns: subject.NewSubject{Name: "Math", TargetPercentage: intPtr(101)}, wantErr: true},
		{name: "negative target", ns: subject.NewSubject{Name: "Math", TargetPercentage: intPtr(-1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := subject.NewService(inmemdb.NewSubjectRepository(inmemdb.Open()), tt.defaults...)
			subj, err := svc.Create(ctx, tt.ns)
			if tt.wantErr {
				var vErrs validator.ValidationErrors
				assert.ErrorAs(t, err, &vErrs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Math", subj.Name)
			assert.Equal(t, tt.wantTarget, subj.TargetPercentage)

			got, err := svc.GetByID(ctx, subj.ID)
			require.NoError(t, err)
			assert.Equal(t, subj, got)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := subject.NewService(inmemdb.NewSubjectRepository(inmemdb.Open()))

	subj, err := svc.Create(ctx, subject.NewSubject{Name: "Math", Color: "#ff0000"})
	require.NoError(t, err)

	subj, err = svc.Update(ctx, subj.ID, subject.UpdateSubject{TargetPercentage: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, subject.Subject{ID: subj.ID, Name: "Math", Color: "#ff0000", TargetPercentage: 60}, subj)

	subj, err = svc.Update(ctx, subj.ID, subject.UpdateSubject{Name: "Algebra", Color: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, subject.Subject{ID: subj.ID, Name: "Algebra", TargetPercentage: 60}, subj)

	_, err = svc.Update(ctx, subj.ID, subject.UpdateSubject{TargetPercentage: intPtr(150)})
	assert.Error(t, err)

	_, err = svc.Update(ctx, 99, subject.UpdateSubject{Name: "Nope"})
	assert.Equal(t, subject.ErrNotFound, err)

	require.NoError(t, svc.Delete(ctx, subj.ID))
	all, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
