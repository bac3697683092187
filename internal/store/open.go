package store

import (
	"database/sql"
	"fmt"

	"places-api/internal/migrate"
	"places-api/internal/utils"
)

// Open connects with driver ("sqlite" path or "postgres" DSN) and ensures the schema.
func Open(driver, dsn string) (*Store, error) {
	var db *sql.DB
	var err error
	if driver == string(DialectPostgres) {
		db, err = sql.Open("postgres", dsn)
	} else {
		driver = string(DialectSQLite)
		db, err = utils.OpenSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}
	return attachWithSchema(db, driver)
}

// OpenFromEnv: same as Open, configured by PLACES_DB_DRIVER / PLACES_DB_PATH / PG_*.
func OpenFromEnv() (*Store, error) {
	db, driver, err := utils.OpenFromEnv()
	if err != nil {
		return nil, err
	}
	return attachWithSchema(db, driver)
}

func attachWithSchema(db *sql.DB, driver string) (*Store, error) {
	if err := migrate.EnsureSchema(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return AttachDB(db, Dialect(driver)), nil
}
