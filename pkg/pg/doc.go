// Package pg bootstraps the PostgreSQL layer of the billing service on
// top of github.com/jackc/pgx/v5.
//
// Connect opens a pgxpool.Pool from Config and retries until the database
// answers a ping. Migrate applies goose migrations from an fs.FS, so the
// schema ships inside the binary:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//
// InTx wraps a unit of work in a transaction, and the Is* helpers classify
// *pgconn.PgError values, for example IsDuplicateKeyError for unique index
// violations that the ledger store maps to domain errors.
package pg
