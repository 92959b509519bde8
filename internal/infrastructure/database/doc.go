// Package database provides SQLite connectivity for the PhotoLive host.
//
// The only consumer is the lifecycle journal, so the package stays small:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying embedded schema migrations in version order
//   - A health check for the host API
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql and are read
// from whatever fs.FS the caller passes to Migrate (normally the embedded
// migrations package).
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/photolive.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
