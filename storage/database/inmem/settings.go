package inmemdb

import (
	"context"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/settings"
)

type settingsRepository struct {
	db *DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(_ context.Context) (map[string]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	values := make(map[string]string, len(repo.db.setting))
	for k, v := range repo.db.setting {
		values[k] = v
	}
	return values, nil
}

func (repo *settingsRepository) SaveSettings(_ context.Context, values map[string]string) error {
	repo.db.mu.Lock()
	for k, v := range values {
		repo.db.setting[k] = v
	}
	repo.db.mu.Unlock()

	repo.db.Publish(core.TableSetting)
	return nil
}
