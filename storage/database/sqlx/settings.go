package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

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

func (repo *settingsRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := repo.db.SelectContext(ctx, &rows, `SELECT key, value FROM setting`); err != nil {
		return nil, errors.Wrap(err, "querying settings")
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, values map[string]string) error {
	err := repo.db.inTx(ctx, func(tx *sqlx.Tx) error {
		q := tx.Rebind(`INSERT INTO setting (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, q, k, v); err != nil {
				return errors.Wrapf(err, "saving setting %s", k)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	repo.db.Publish(core.TableSetting)
	return nil
}
