// Package store persists pipeline run summaries in SQLite or MySQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-txchain/pipeline"

	// Blind import support for sqlite3.
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("store: run not found")

const (
	sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS runs (
		id          TEXT NOT NULL PRIMARY KEY,
		created     INTEGER NOT NULL,
		scheme      TEXT NOT NULL,
		modulation  TEXT NOT NULL,
		demod       TEXT NOT NULL,
		noise       REAL,
		bits        TEXT NOT NULL,
		recovered   TEXT NOT NULL,
		errors      INTEGER,
		period      REAL
	);`
	mysqlCreateTableTmpl = `CREATE TABLE IF NOT EXISTS runs (
		id          VARCHAR(36) NOT NULL PRIMARY KEY,
		created     BIGINT NOT NULL,
		scheme      VARCHAR(16) NOT NULL,
		modulation  VARCHAR(16) NOT NULL,
		demod       VARCHAR(16) NOT NULL,
		noise       DOUBLE,
		bits        MEDIUMTEXT NOT NULL,
		recovered   MEDIUMTEXT NOT NULL,
		errors      INTEGER,
		period      DOUBLE
	);`
	insertRunTmpl = `INSERT INTO runs (
		id,
		created,
		scheme,
		modulation,
		demod,
		noise,
		bits,
		recovered,
		errors,
		period
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	selectRunTmpl = `SELECT id, created, scheme, modulation, demod, noise, bits, recovered, errors, period FROM runs`
)

// Run is the stored summary of one pipeline run.
type Run struct {
	ID         string    `json:"id"`
	Created    time.Time `json:"created"`
	Scheme     string    `json:"scheme"`
	Modulation string    `json:"modulation"`
	Demod      string    `json:"demod"`
	Noise      float64   `json:"noise"`
	Bits       string    `json:"bits"`
	Recovered  string    `json:"recovered"`
	Errors     int       `json:"errors"`
	// Period is the recovered symbol period in seconds, 0 when clock
	// recovery failed.
	Period float64 `json:"period"`
}

// NewRun summarizes res under a fresh random id.
func NewRun(res *pipeline.Result) Run {
	return Run{
		ID:         uuid.NewString(),
		Created:    time.Now().UTC().Truncate(time.Millisecond),
		Scheme:     res.Config.LineCode.Scheme.String(),
		Modulation: res.Config.Modulation.Scheme.String(),
		Demod:      res.Config.Demod.Method.String(),
		Noise:      res.Config.Channel.NoiseLevel,
		Bits:       res.Bits.String(),
		Recovered:  res.Recovered.String(),
		Errors:     res.BitErrors,
		Period:     res.Clock.Period,
	}
}

// Store keeps runs in a SQL database.
type Store struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite DB %q: %w", path, err)
	}
	return open(db, sqliteCreateTableTmpl)
}

// MySQLConfig locates a MySQL database.
type MySQLConfig struct {
	Addr     string
	User     string
	Password string
	DBName   string
}

// DSN returns the driver connection string for c.
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Addr
	cfg.DBName = c.DBName
	return cfg.FormatDSN()
}

// OpenMySQL connects to the MySQL database described by c.
func OpenMySQL(c MySQLConfig) (*Store, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open MySQL DB %q: %w", c.Addr, err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	return open(db, mysqlCreateTableTmpl)
}

func open(db *sql.DB, createTable string) (*Store, error) {
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: unable to create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts r.
func (s *Store) Put(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, insertRunTmpl,
		r.ID, r.Created.UnixMilli(), r.Scheme, r.Modulation, r.Demod, r.Noise,
		r.Bits, r.Recovered, r.Errors, r.Period)
	if err != nil {
		return fmt.Errorf("store: insert run %s: %w", r.ID, err)
	}
	glog.V(2).Infof("store: saved run %s", r.ID)
	return nil
}

// Get returns the run with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRunTmpl+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: get run %s: %w", id, err)
	}
	return r, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRunTmpl+` ORDER BY created DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		created int64
	)
	err := sc.Scan(&r.ID, &created, &r.Scheme, &r.Modulation, &r.Demod, &r.Noise,
		&r.Bits, &r.Recovered, &r.Errors, &r.Period)
	if err != nil {
		return Run{}, err
	}
	r.Created = time.UnixMilli(created).UTC()
	return r, nil
}
