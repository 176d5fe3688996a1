// Package sqlite stores the event journal in a local SQLite file, for
// kiosks that run without a database server.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

// Client stores the event journal in SQLite.
type Client struct {
	db     *sql.DB
	showID string
}

// Open opens (creating if needed) the journal database at path. Use
// ":memory:" for a throwaway journal.
func Open(path, showID string) (*Client, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS presentation_events (
			event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			ts         TEXT NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     TEXT,
			show_id    TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_presentation_events_show ON presentation_events(show_id, event_id);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return &Client{db: db, showID: showID}, nil
}

// Append records one event.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	encoded, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`
		INSERT INTO presentation_events (ts, level, event, msg, fields, show_id, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), level, event,
		storage.Null(msg), encoded, c.showID, storage.Null(sessionID),
	)
	return err
}

// Query returns up to limit events of this show, newest first.
func (c *Client) Query(limit int) ([]storage.EventRow, error) {
	rows, err := c.db.Query(`
		SELECT event_id, ts, level, event, msg, fields, show_id, session_id
		FROM presentation_events
		WHERE show_id = ?
		ORDER BY event_id DESC
		LIMIT ?`, c.showID, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.EventRow
	for rows.Next() {
		var e storage.EventRow
		var ts string
		var msg, fields, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &ts, &e.Level, &e.Event, &msg, &fields, &e.ShowID, &sessionID); err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("event %d: bad timestamp: %w", e.EventID, err)
		}
		if err := e.Fill(msg, fields, sessionID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (c *Client) Close() error {
	return c.db.Close()
}
