package deadletter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/database"
)

// schema is created on open. The spool is append-mostly; operators
// inspect and purge it out of band.
const schema = `
CREATE TABLE IF NOT EXISTS dead_letters (
	id           TEXT PRIMARY KEY,
	destination  TEXT NOT NULL,
	payload      TEXT NOT NULL,
	reason       TEXT NOT NULL,
	captured_at  INTEGER NOT NULL,
	spooled_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dead_letters_destination ON dead_letters(destination);
`

// Entry is one spooled record.
type Entry struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
	Payload     string `json:"payload"`
	Reason      string `json:"reason"`
	CapturedAt  int64  `json:"captured_at"`
	SpooledAt   int64  `json:"spooled_at"`
}

// Store is the local spool for records abandoned after exhausting
// delivery retries. It satisfies uplink.Spool.
//
// Thread Safety: safe for concurrent use; the database layer serializes
// writes.
type Store struct {
	db *database.DB
}

// Open opens (and if needed creates) the spool database.
func Open(cfg config.DeadLetterConfig) (*Store, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening dead-letter spool: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating dead-letter schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert spools one abandoned record.
func (s *Store) Insert(destination, payload, reason string, capturedAt int64) error {
	_, err := s.db.Exec(
		`INSERT INTO dead_letters (id, destination, payload, reason, captured_at, spooled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), destination, payload, reason, capturedAt, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("spooling record: %w", err)
	}
	return nil
}

// Count returns the number of spooled records for a destination.
// An empty destination counts everything.
func (s *Store) Count(destination string) (int, error) {
	var (
		n   int
		err error
	)
	if destination == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM dead_letters`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM dead_letters WHERE destination = ?`, destination).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting spooled records: %w", err)
	}
	return n, nil
}

// Recent returns the most recently spooled entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, destination, payload, reason, captured_at, spooled_at
		 FROM dead_letters ORDER BY spooled_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("reading spooled records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Destination, &e.Payload, &e.Reason, &e.CapturedAt, &e.SpooledAt); err != nil {
			return nil, fmt.Errorf("scanning spooled record: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spooled records: %w", err)
	}
	return entries, nil
}

// Purge deletes entries spooled before the cutoff and returns how many
// were removed.
func (s *Store) Purge(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM dead_letters WHERE spooled_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging spooled records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the spool database.
func (s *Store) Close() error {
	return s.db.Close()
}
