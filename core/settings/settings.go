package settings

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core"
)

// Keys
const (
	KeyUserName = "user_name"
	KeyTheme    = "theme"
)

// Themes
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

var Keys = []string{KeyUserName, KeyTheme}

type (
	Settings struct {
		UserName string `json:"user_name"`
		Theme    string `json:"theme"`
	}

	// Update defines what information may be provided to modify the Settings.
	Update struct {
		UserName *string `json:"user_name" validate:"omitempty,max=50"`
		Theme    *string `json:"theme" validate:"omitempty,oneof=system light dark"`
	}

	// Repository stores settings as key/value pairs.
	Repository interface {
		GetSettings(ctx context.Context) (map[string]string, error)
		SaveSettings(ctx context.Context, values map[string]string) error
	}

	Service struct {
		repo Repository
	}
)

func (u *Update) Validate() error {
	if u.UserName != nil {
		name := core.CleanString(*u.UserName)
		u.UserName = &name
	}
	if u.Theme != nil {
		theme := core.CleanString(*u.Theme, true)
		u.Theme = &theme
	}
	return core.Validate.Struct(u)
}

func (u Update) values() map[string]string {
	values := make(map[string]string, 2)
	if u.UserName != nil {
		values[KeyUserName] = *u.UserName
	}
	if u.Theme != nil {
		values[KeyTheme] = *u.Theme
	}
	return values
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored settings; unset keys hold their defaults.
func (svc *Service) Get(ctx context.Context) (Settings, error) {
	values, err := svc.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, errors.Wrap(err, "getting settings")
	}
	s := Settings{UserName: values[KeyUserName], Theme: values[KeyTheme]}
	if s.Theme == "" {
		s.Theme = ThemeSystem
	}
	return s, nil
}

func (svc *Service) Update(ctx context.Context, u Update) (Settings, error) {
	if err := u.Validate(); err != nil {
		return Settings{}, err
	}
	if values := u.values(); len(values) > 0 {
		if err := svc.repo.SaveSettings(ctx, values); err != nil {
			return Settings{}, errors.Wrap(err, "saving settings")
		}
	}
	return svc.Get(ctx)
}

// UserName returns the stored user name, or "" when it cannot be read.
func (svc *Service) UserName(ctx context.Context) string {
	s, err := svc.Get(ctx)
	if err != nil {
		return ""
	}
	return s.UserName
}
