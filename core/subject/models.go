package subject

import (
	"github.com/trezcool/bunkmeter/core"
)

const DefaultTargetPercentage = 75

type Subject struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Color            string `json:"color"` // opaque display tag
	TargetPercentage int    `json:"target_percentage"`
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name             string `json:"name" validate:"required,notblank,max=100"`
	Color            string `json:"color" validate:"max=32"`
	TargetPercentage *int   `json:"target_percentage" validate:"omitempty,min=0,max=100"`
}

// Validate cleans nu and applies defaultTarget when no target was provided.
func (nu *NewSubject) Validate(defaultTarget ...int) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Color = core.CleanString(nu.Color)
	if nu.TargetPercentage == nil {
		target := DefaultTargetPercentage
		if len(defaultTarget) > 0 {
			target = defaultTarget[0]
		}
		nu.TargetPercentage = &target
	}
	return core.Validate.Struct(nu)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	Name             string  `json:"name" validate:"omitempty,max=100"`
	Color            *string `json:"color" validate:"omitempty,max=32"`
	TargetPercentage *int    `json:"target_percentage" validate:"omitempty,min=0,max=100"`
}

func (us *UpdateSubject) Validate() error {
	us.Name = core.CleanString(us.Name)
	if us.Color != nil {
		c := core.CleanString(*us.Color)
		us.Color = &c
	}
	return core.Validate.Struct(us)
}

// Apply returns orig with the provided fields of us set.
func (us UpdateSubject) Apply(orig Subject) Subject {
	if us.Name != "" {
		orig.Name = us.Name
	}
	if us.Color != nil {
		orig.Color = *us.Color
	}
	if us.TargetPercentage != nil {
		orig.TargetPercentage = *us.TargetPercentage
	}
	return orig
}
