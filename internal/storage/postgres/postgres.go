// Package postgres stores the event journal in a shared Postgres database,
// so several kiosks can report into one place.
package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/SentientPlayer/internal/config"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS presentation_events (
	event_id   BIGSERIAL PRIMARY KEY,
	ts         TIMESTAMPTZ NOT NULL,
	level      TEXT NOT NULL,
	event      TEXT NOT NULL,
	msg        TEXT,
	fields     JSONB,
	show_id    TEXT NOT NULL,
	session_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_presentation_events_show
	ON presentation_events(show_id, ts DESC, event_id DESC);
`

const insertEvent = `
INSERT INTO presentation_events (ts, level, event, msg, fields, show_id, session_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const recentEvents = `
SELECT event_id, ts, level, event, msg, fields::text, show_id, session_id
FROM presentation_events
WHERE show_id = $1
ORDER BY ts DESC, event_id DESC
LIMIT $2`

// Client is a journal backed by Postgres.
type Client struct {
	db     *sql.DB
	showID string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DSN builds a postgres:// URL from PGHOST, PGPORT, PGUSER, PGDATABASE
// and PGSSLMODE. PGPASSWORD may come from PGPASSWORD_FILE.
func DSN() (string, error) {
	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return "", err
	}
	u := &url.URL{
		Scheme:   "postgres",
		Host:     envOr("PGHOST", "127.0.0.1") + ":" + envOr("PGPORT", "5432"),
		Path:     "/" + envOr("PGDATABASE", "sentient"),
		RawQuery: url.Values{"sslmode": {envOr("PGSSLMODE", "disable")}}.Encode(),
	}
	if password != "" {
		u.User = url.UserPassword(envOr("PGUSER", "sentient"), password)
	} else {
		u.User = url.User(envOr("PGUSER", "sentient"))
	}
	return u.String(), nil
}

// New connects with the PG* environment and creates the table if needed.
func New(showID string) (*Client, error) {
	dsn, err := DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	return &Client{db: db, showID: showID}, nil
}

// Append records one event.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	encoded, err := storage.EncodeFields(fields)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(insertEvent, ts, level, event, storage.Null(msg), encoded, c.showID, storage.Null(sessionID))
	return err
}

// Query returns up to limit events of this show, newest first.
func (c *Client) Query(limit int) ([]storage.EventRow, error) {
	rows, err := c.db.Query(recentEvents, c.showID, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.EventRow
	for rows.Next() {
		var e storage.EventRow
		var msg, fields, sessionID sql.NullString
		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fields, &e.ShowID, &sessionID); err != nil {
			return nil, err
		}
		if err := e.Fill(msg, fields, sessionID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *Client) Close() error {
	return c.db.Close()
}
