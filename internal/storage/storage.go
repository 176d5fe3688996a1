// Package storage defines the journal interface shared by the event stores.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventRow is an event read back from a journal store.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	ShowID    string                 `json:"show_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// Journal persists presentation events.
type Journal interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
	// Query returns the most recent events, newest first.
	Query(limit int) ([]EventRow, error)
	Close() error
}

// ClampLimit bounds a query limit to [1, 10000], defaulting to 200.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

// EncodeFields renders fields as JSON, or NULL when there are none.
func EncodeFields(fields map[string]interface{}) (sql.NullString, error) {
	if fields == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode fields: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Fill copies the nullable columns shared by every store into e.
func (e *EventRow) Fill(msg, fields, sessionID sql.NullString) error {
	if msg.Valid {
		e.Message = &msg.String
	}
	if sessionID.Valid {
		e.SessionID = &sessionID.String
	}
	if !fields.Valid || fields.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(fields.String), &e.Fields); err != nil {
		return fmt.Errorf("event %d: decode fields: %w", e.EventID, err)
	}
	return nil
}

// Null maps the empty string to NULL.
func Null(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
