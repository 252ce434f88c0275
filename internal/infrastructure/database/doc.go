// Package database provides SQLite connectivity for Feedline Core.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Schema migrations from an fs.FS (usually the embedded migrations package)
//   - Connection pooling and lifecycle management
//
// All queries elsewhere use parameterised statements. The database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:       cfg.Database.Path,
//	    WALMode:    true,
//	    Migrations: migrations.FS,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
