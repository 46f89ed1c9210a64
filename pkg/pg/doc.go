// Package pg bootstraps PostgreSQL access on top of pgx/v5: a retrying pool
// constructor, goose migrations from an fs.FS, a readiness check and helpers
// that classify *pgconn.PgError values.
//
//	cfg, err := config.Load[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
//	    return err
//	}
//
// Store code relies on IsDuplicateKeyError and ConstraintName to turn unique
// constraint violations into domain errors, e.g. a second trial claim for the
// same owner and plugin.
package pg
