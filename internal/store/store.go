package store

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database drivers. SQLite is the embedded default and what the
// test suite runs against; MySQL is what production deployments use.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Store is the relational backend for the whole application: admins,
// categories, products, and enquiries. All queries are parameterized.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// Open connects to the database identified by driver and dsn and applies
// migrations. For SQLite an empty dsn opens an in-memory database.
func Open(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
	case DriverMySQL:
		// time.Time scanning requires parseTime on the MySQL driver.
		if !strings.Contains(dsn, "parseTime") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "parseTime=true"
		}
	}

	db, err := sqlx.Connect(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders into the driver's bindvar form. It is a
// no-op for SQLite and MySQL.
func (s *Store) rebind(q string) string {
	return s.db.Rebind(q)
}

// insertID executes an INSERT written with ? placeholders and returns the
// new row's id. Postgres has no LastInsertId, so the query is extended with
// a RETURNING clause there.
func (s *Store) insertID(ctx context.Context, q string, args ...interface{}) (int64, error) {
	if s.dialect.name == DriverPostgres {
		var id int64
		if err := s.db.GetContext(ctx, &id, s.rebind(q+" RETURNING id"), args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
