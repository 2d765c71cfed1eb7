// Package db is the persistence layer for users, diaries and entries.
// It speaks database/sql to MySQL in production and SQLite for development and tests.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"vociary/db/migrations"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DBTX is the subset of database/sql used by Queries.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs every read and write against a DBTX.
type Queries struct {
	db     DBTX
	driver string
}

// Store owns the connection pool. Its embedded Queries run outside any transaction.
type Store struct {
	*Queries
	conn   *sql.DB
	driver string
}

// Open connects and pings the database. A failure here should abort startup.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY inside transactions
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &Store{Queries: &Queries{db: conn, driver: driver}, conn: conn, driver: driver}, nil
}

// Migrate applies the embedded migrations for the store's dialect.
// Migration progress is written to log.
func (s *Store) Migrate(ctx context.Context, log *zap.Logger) error {
	goose.SetLogger(gooseLogger{log.Named("migrate").Sugar()})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(s.driver); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.conn, s.driver); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// WithTx runs fn inside a transaction and commits on success.
// It rolls back on error or panic; panics are rethrown.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(&Queries{db: tx, driver: s.driver})
}

type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a unique constraint violation in either dialect.
func isUniqueViolation(err error) bool {
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == 1062
	}
	var lite sqlite3.Error
	if errors.As(err, &lite) {
		return lite.ExtendedCode == sqlite3.ErrConstraintUnique ||
			lite.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
