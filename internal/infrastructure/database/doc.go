// Package database provides SQLite connectivity for the EcoRent core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations (YYYYMMDD_HHMMSS_name.up.sql / .down.sql)
//   - Transaction helper used by the repositories
//
// All queries use parameterised statements. Database files are created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
