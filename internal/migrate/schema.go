package migrate

import (
	"database/sql"
	"fmt"

	"places-api/internal/logger"
)

// EnsureSchema creates the places table and its lookup indexes when they are missing.
// Constraint: IF NOT EXISTS throughout, so it runs on every start; driver is "sqlite" or "postgres".
func EnsureSchema(db *sql.DB, driver string) error {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		idCol = "id SERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS places (
            ` + idCol + `,
            name TEXT,
            category TEXT,
            address TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_places_name ON places(name)`,
		`CREATE INDEX IF NOT EXISTS idx_places_address ON places(address)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i, "driver", driver)
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
