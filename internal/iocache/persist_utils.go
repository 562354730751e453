package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"github.com/huangsam/trustscore/schema"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// placeholder returns the n-th (1-based) bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholders returns count comma-separated bind parameters.
func placeholders(backend schema.DatabaseBackend, count int) string {
	out := ""
	for i := 1; i <= count; i++ {
		if i > 1 {
			out += ", "
		}
		out += placeholder(backend, i)
	}
	return out
}

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// openDatabase opens and pings a database for the backend. For SQLite an
// empty connStr falls back to defaultPath.
func openDatabase(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = defaultPath
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Ensure the directory is writable", dsn, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		default:
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}
