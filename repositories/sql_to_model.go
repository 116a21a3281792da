package repositories

import (
	"context"
	"fmt"

	"github.com/hublens/hublens-backend/models"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

func NewQueryBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ExecBuilder executes a statement that returns no rows.
func ExecBuilder(ctx context.Context, exec Executor, builder squirrel.Sqlizer) error {
	sql, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	_, err = exec.Exec(ctx, sql, args...)
	return err
}

// SqlToModel executes the query and adapts the single expected row; a missing
// row is a NotFoundError.
func SqlToModel[DBModel, Model any](ctx context.Context, exec Executor, query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) (Model, error) {
	var zero Model

	model, err := SqlToOptionalModel(ctx, exec, query, adapter)
	if err != nil {
		return zero, err
	}
	if model == nil {
		return zero, errors.Wrap(models.NotFoundError, fmt.Sprintf("found no object of type %T", zero))
	}
	return *model, nil
}

// SqlToOptionalModel is SqlToModel returning nil instead of NotFoundError.
func SqlToOptionalModel[DBModel, Model any](ctx context.Context, exec Executor, query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) (*Model, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "can't build sql query")
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing sql query")
	}

	dbModel, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[DBModel])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("error scanning row to struct %T", dbModel))
	}

	model, err := adapter(dbModel)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func SqlToListOfModels[DBModel, Model any](ctx context.Context, exec Executor, query squirrel.Sqlizer,
	adapter func(dbModel DBModel) (Model, error),
) ([]Model, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "can't build sql query")
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing sql query")
	}

	dbModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[DBModel])
	if err != nil {
		var zero DBModel
		return nil, errors.Wrap(err, fmt.Sprintf("error scanning rows to struct %T", zero))
	}

	out := make([]Model, 0, len(dbModels))
	for _, dbModel := range dbModels {
		model, err := adapter(dbModel)
		if err != nil {
			return nil, err
		}
		out = append(out, model)
	}
	return out, nil
}
