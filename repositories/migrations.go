package repositories

import (
	"context"
	"database/sql"
	"embed"

	"github.com/hublens/hublens-backend/infra"
	"github.com/hublens/hublens-backend/utils"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Migrater struct {
	pgConfig infra.PgConfig
}

func NewMigrater(pgConfig infra.PgConfig) *Migrater {
	return &Migrater{
		pgConfig: pgConfig,
	}
}

// Run applies the application schema with goose, then brings the job queue
// schema up to date. Both are idempotent.
func (m *Migrater) Run(ctx context.Context) error {
	logger := utils.LoggerFromContext(ctx)

	db, err := sql.Open("pgx", m.pgConfig.GetConnectionString())
	if err != nil {
		return errors.Wrap(err, "unable to open database connection")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "unable to ping database")
	}

	logger.InfoContext(ctx, "running schema migrations")
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Wrap(err, "unable to run migrations")
	}

	return m.runRiverMigrations(ctx)
}

func (m *Migrater) runRiverMigrations(ctx context.Context) error {
	logger := utils.LoggerFromContext(ctx)

	pool, err := infra.NewPostgresConnectionPool(ctx, m.pgConfig.GetConnectionString(), 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return errors.Wrap(err, "unable to create river migrator")
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return errors.Wrap(err, "unable to run river migrations")
	}
	for _, version := range res.Versions {
		logger.InfoContext(ctx, "applied river migration", "version", version.Version)
	}
	return nil
}
