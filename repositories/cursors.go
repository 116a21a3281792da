package repositories

import (
	"context"
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/repositories/dbmodels"

	"github.com/Masterminds/squirrel"
)

func (repo *HublensDbRepository) GetCursor(ctx context.Context, exec Executor, key string) (*models.Cursor, error) {
	if err := validateDbExecutor(exec); err != nil {
		return nil, err
	}

	query := NewQueryBuilder().
		Select(dbmodels.SelectCursorColumn...).
		From(dbmodels.TABLE_CURSORS).
		Where(squirrel.Eq{"key": key})

	return SqlToOptionalModel(ctx, exec, query, dbmodels.AdaptCursor)
}

func (repo *HublensDbRepository) SaveCursor(ctx context.Context, exec Executor, key, value string) error {
	if err := validateDbExecutor(exec); err != nil {
		return err
	}

	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_CURSORS).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now()).
		Suffix("on conflict (key) do update set").
		Suffix("value = excluded.value,").
		Suffix("updated_at = excluded.updated_at")

	return ExecBuilder(ctx, exec, query)
}
