package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("not found")
)

// Driver record statuses.
const (
	StatusLive      = "live"
	StatusDismissed = "dismissed"
	StatusDead      = "dead"
	// StatusOrphaned marks records left live by a previous daemon process.
	StatusOrphaned = "orphaned"
)

// isBusyLock reports whether err indicates SQLite database lock (SQLITE_BUSY).
// Handles wrapped errors from database/sql.
func isBusyLock(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "database is locked") || strings.Contains(s, "SQLITE_BUSY")
}

// retryOnBusy runs fn and retries on SQLITE_BUSY with exponential backoff.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 4
	backoff := 25 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isBusyLock(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return lastErr
}

// Driver is the ledger record of one pooled driver.
type Driver struct {
	ID           string     `json:"id"`
	Fingerprint  string     `json:"fingerprint"`
	Browser      string     `json:"browser"`
	Capabilities string     `json:"capabilities"` // canonical JSON
	ContainerID  string     `json:"container_id,omitempty"`
	Endpoint     string     `json:"endpoint,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

type Store struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS drivers (
	id            TEXT PRIMARY KEY,
	fingerprint   TEXT NOT NULL,
	browser       TEXT NOT NULL DEFAULT '',
	capabilities  TEXT NOT NULL DEFAULT '{}',
	container_id  TEXT NOT NULL DEFAULT '',
	endpoint      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'live',
	created_at    DATETIME NOT NULL,
	ended_at      DATETIME
);
CREATE INDEX IF NOT EXISTS idx_drivers_status ON drivers(status);
CREATE INDEX IF NOT EXISTS idx_drivers_fingerprint ON drivers(fingerprint);
`

// DefaultMaxOpenConns is the default connection pool size for concurrent reads.
const DefaultMaxOpenConns = 4

// dsnWithPragmas returns a connection string with WAL, busy_timeout, and perf
// pragmas applied to every new connection.
func dsnWithPragmas(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(15000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"
}

// New opens the store. maxOpenConns controls the connection pool size (0 = default 4).
// An in-memory database is private to one connection, so ":memory:" always uses one.
func New(dbPath string, maxOpenConns int) (*Store, error) {
	db, err := sql.Open("sqlite", dsnWithPragmas(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = DefaultMaxOpenConns
	}
	if dbPath == ":memory:" {
		maxOpenConns = 1
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateDriver(d *Driver) error {
	err := retryOnBusy(func() error {
		_, e := s.db.Exec(
			`INSERT INTO drivers (id, fingerprint, browser, capabilities, container_id, endpoint, status, created_at, ended_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Fingerprint, d.Browser, d.Capabilities, d.ContainerID, d.Endpoint, d.Status,
			d.CreatedAt.UTC(), nullTime(d.EndedAt),
		)
		return e
	})
	if err != nil {
		return fmt.Errorf("inserting driver: %w", err)
	}
	return nil
}

// GetDriver returns the record with the given ID, or nil if there is none.
func (s *Store) GetDriver(id string) (*Driver, error) {
	row := s.db.QueryRow(
		`SELECT id, fingerprint, browser, capabilities, container_id, endpoint, status, created_at, ended_at
		 FROM drivers WHERE id = ?`, id,
	)
	return scanDriver(row)
}

func (s *Store) ListDrivers() ([]*Driver, error) {
	rows, err := s.db.Query(
		`SELECT id, fingerprint, browser, capabilities, container_id, endpoint, status, created_at, ended_at
		 FROM drivers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drivers: %w", err)
	}
	defer rows.Close()
	return scanDrivers(rows)
}

func (s *Store) ListLiveDrivers() ([]*Driver, error) {
	rows, err := s.db.Query(
		`SELECT id, fingerprint, browser, capabilities, container_id, endpoint, status, created_at, ended_at
		 FROM drivers WHERE status = ? ORDER BY created_at`, StatusLive,
	)
	if err != nil {
		return nil, fmt.Errorf("listing live drivers: %w", err)
	}
	defer rows.Close()
	return scanDrivers(rows)
}

// MarkEnded sets a terminal status and the end time on a record.
func (s *Store) MarkEnded(id string, status string) error {
	var result sql.Result
	err := retryOnBusy(func() error {
		var e error
		result, e = s.db.Exec(
			`UPDATE drivers SET status = ?, ended_at = ? WHERE id = ?`,
			status, time.Now().UTC(), id,
		)
		return e
	})
	if err != nil {
		return fmt.Errorf("updating driver status: %w", err)
	}
	return checkRowAffected(result, id)
}

func (s *Store) DeleteDriver(id string) error {
	var result sql.Result
	err := retryOnBusy(func() error {
		var e error
		result, e = s.db.Exec(`DELETE FROM drivers WHERE id = ?`, id)
		return e
	})
	if err != nil {
		return fmt.Errorf("deleting driver: %w", err)
	}
	return checkRowAffected(result, id)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDriver(row scannable) (*Driver, error) {
	var d Driver
	var endedAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.Fingerprint, &d.Browser, &d.Capabilities, &d.ContainerID, &d.Endpoint,
		&d.Status, &d.CreatedAt, &endedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning driver: %w", err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		d.EndedAt = &t
	}
	return &d, nil
}

func scanDrivers(rows *sql.Rows) ([]*Driver, error) {
	var drivers []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drivers: %w", err)
	}
	return drivers, nil
}

func checkRowAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("driver %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
