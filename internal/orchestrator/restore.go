package orchestrator

import (
	"fmt"

	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 1000

// RestoredState is the minimal presentation state reconstructed from the
// journal.
type RestoredState struct {
	SessionActive bool
	Subject       string
	Variables     map[string]string
}

// RestoreFromEvents loads recent journal events and reconstructs the last
// playing subject and variable values. Returns nil state if the journal is
// nil or empty.
func RestoreFromEvents(journal storage.Journal, limit int) (*RestoredState, int, error) {
	if journal == nil {
		return nil, 0, nil
	}

	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := journal.Query(limit)
	if err != nil {
		return nil, 0, err
	}

	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Reverse to chronological order (Query returns DESC)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	state := &RestoredState{Variables: make(map[string]string)}

	for _, row := range rows {
		switch row.Event {
		case "subject.playing":
			if subject, ok := row.Fields["subject"].(string); ok {
				state.SessionActive = true
				state.Subject = subject
			}

		case "player.stop":
			state.SessionActive = false
			state.Subject = ""
			// Stop emits player.stop and then re-initialises the
			// variables, so the following variable.updated events
			// repopulate them.
			state.Variables = make(map[string]string)

		case "variable.updated":
			id, ok := row.Fields["id"].(string)
			if !ok {
				continue
			}
			switch v := row.Fields["value"].(type) {
			case string:
				state.Variables[id] = v
			case float64:
				state.Variables[id] = formatNumber(v)
			case nil:
			default:
				state.Variables[id] = fmt.Sprint(v)
			}
		}
	}

	return state, len(rows), nil
}

// ApplyRestoredState seeds the variables and location from a restored
// state so that Play resumes at the restored subject. It does not emit
// events or start playback.
func (p *Player) ApplyRestoredState(state *RestoredState) error {
	if state == nil || !state.SessionActive || state.Subject == "" {
		return nil
	}
	if p.state != StateStopped {
		return fmt.Errorf("restore: player is %s", p.state)
	}
	if _, err := p.doc.Lookup(state.Subject); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	vars := p.vars.Snapshot()
	for id, v := range state.Variables {
		vars[id] = v
	}
	p.vars.Restore(vars)
	p.history.Clear()
	p.history.Seed(state.Subject)
	return nil
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, showID, subject string) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"restored": restored,
		"show_id":  showID,
		"subject":  subject,
	})
}
