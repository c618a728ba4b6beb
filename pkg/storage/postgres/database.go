package postgres

import (
	"database/sql"
	"fmt"
	"regexp"

	"marketbeat/config"

	_ "github.com/lib/pq"
)

var validDBName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CreateDatabase connects to the postgres server and creates a new database if it doesn't exist.
func CreateDatabase(cfg config.PostgresConfig) error {
	if !validDBName.MatchString(cfg.DBName) {
		return fmt.Errorf("invalid database name %q", cfg.DBName)
	}

	db, err := sql.Open("postgres", cfg.AdminDSN())
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer db.Close()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1);`
	if err := db.QueryRow(query, cfg.DBName).Scan(&exists); err != nil {
		return fmt.Errorf("check db exists failed: %w", err)
	}

	if exists {
		return nil // DB already exists
	}

	// CREATE DATABASE takes no bind parameters; the name is validated above.
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", cfg.DBName)); err != nil {
		return fmt.Errorf("create db failed: %w", err)
	}

	return nil
}
