package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/ruvasqm/rate-tray/common"
)

var log = logger.GetOrCreate("storage")

// sqliteStorage is the sqlite implementation for the readings history store
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage opens (or creates) the database, verifies its integrity,
// ensures the schema and starts the retention cleaner
func NewSQLiteStorage(dbPath string, retentionSeconds int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = checkIntegrity(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}

func checkIntegrity(db *sql.DB) error {
	var result string
	err := db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: integrity_check reported '%s'", ErrCorrupt, result)
	}

	return nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		value       REAL    NOT NULL,
		observed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_readings_observed_at ON readings(observed_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Append durably inserts a new reading and returns the stored entry with its
// assigned sequence id. The insert is a single statement, so either the entry
// is fully durable or not recorded at all.
func (s *sqliteStorage) Append(ctx context.Context, reading common.Reading) (common.HistoryEntry, error) {
	observedAt := reading.ObservedAt.Unix()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (value, observed_at)
		VALUES (?, ?)
	`, reading.Value, observedAt)
	if err != nil {
		return common.HistoryEntry{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return common.HistoryEntry{}, fmt.Errorf("failed to read assigned sequence id: %w", err)
	}

	return common.HistoryEntry{
		Seq:        seq,
		Value:      reading.Value,
		ObservedAt: observedAt,
	}, nil
}

// Latest returns the most recent entry or nil when the history is empty
func (s *sqliteStorage) Latest(ctx context.Context) (*common.HistoryEntry, error) {
	var entry common.HistoryEntry

	err := s.db.QueryRowContext(ctx, `
		SELECT seq, value, observed_at
		FROM readings
		ORDER BY observed_at DESC, seq DESC
		LIMIT 1
	`).Scan(&entry.Seq, &entry.Value, &entry.ObservedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}

	return &entry, nil
}

// Recent returns up to n entries, most recent first
func (s *sqliteStorage) Recent(ctx context.Context, n int) ([]common.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, value, observed_at
		FROM readings
		ORDER BY observed_at DESC, seq DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []common.HistoryEntry
	for rows.Next() {
		var entry common.HistoryEntry
		err = rows.Scan(&entry.Seq, &entry.Value, &entry.ObservedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// cleanRetainedReadings executes the retention cleanup query synchronously
func (s *sqliteStorage) cleanRetainedReadings(ctx context.Context) error {
	nowSec := time.Now().Unix()
	cutoff := nowSec - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM readings WHERE observed_at < ?", cutoff)
	return err
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedReadings(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained readings", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
