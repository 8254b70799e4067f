package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite" // Pure Go sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"foodgram/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "postgres"

	pgUniqueViolation = "23505"
)

// DB provides a centralized database connection together with the goqu
// dialect matching the driver.
type DB struct {
	SQL     *sqlx.DB
	Dialect goqu.DialectWrapper
	driver  string
}

// NewDB opens the configured database and runs migrations.
func NewDB(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err = OpenPostgres(cfg.PostgresDSN)
	default:
		db, err = OpenSQLite(cfg.DatabasePath)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database ready", zap.String("driver", db.driver))
	return db, nil
}

// OpenSQLite opens (creating if needed) an SQLite database file.
func OpenSQLite(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection keeps pragmas and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{SQL: db, Dialect: goqu.Dialect(dialectSQLite), driver: config.DriverSQLite}, nil
}

// OpenPostgres opens a Postgres database through the pgx stdlib driver.
func OpenPostgres(dsn string) (*DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{SQL: db, Dialect: goqu.Dialect(dialectPostgres), driver: config.DriverPostgres}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.SQL.Close()
}

// Migrate applies the embedded migrations for the current driver.
func (d *DB) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	var target migratedb.Driver
	switch d.driver {
	case config.DriverPostgres:
		target, err = migratepgx.WithInstance(d.SQL.DB, &migratepgx.Config{})
	default:
		target, err = migratesqlite.WithInstance(d.SQL.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.driver, target)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// m.Close would close the shared *sql.DB, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (d *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.SQL.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InsertID executes an insert and returns the generated id. Postgres reports
// it through RETURNING, SQLite through LastInsertId.
func (d *DB) InsertID(ctx context.Context, q sqlx.ExtContext, ds *goqu.InsertDataset) (int64, error) {
	if d.driver == config.DriverPostgres {
		query, args, err := ds.Returning("id").Prepared(true).ToSQL()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert query: %w", err)
		}
		var id int64
		if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := d.Exec(ctx, q, ds.Prepared(true))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// Exec builds and executes an insert, update or delete statement. Callers pass
// prepared datasets so values travel as bind arguments.
func (d *DB) Exec(ctx context.Context, q sqlx.ExecerContext, ds interface {
	ToSQL() (string, []interface{}, error)
}) (sql.Result, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.ExecContext(ctx, query, args...)
}

// Select builds a select statement and scans every row into dest.
func (d *DB) Select(ctx context.Context, q sqlx.QueryerContext, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build select query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// Get builds a select statement and scans a single row into dest.
// It returns sql.ErrNoRows when nothing matches.
func (d *DB) Get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build select query: %w", err)
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

// IsUniqueViolation reports whether err was caused by a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
