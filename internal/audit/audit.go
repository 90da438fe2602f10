// Package audit keeps the append-only action log: who did what to which
// item, when. Entries are never rewritten; the log file is a JSON array
// snapshotted on every append, in the same style as the main store.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action types recorded in the log.
const (
	ActionPlacement  = "placement"
	ActionRetrieval  = "retrieval"
	ActionUndocking  = "undocking"
	ActionImport     = "import"
	ActionSimulation = "simulation"
	ActionDisposal   = "disposal"
)

// Entry is one audit record.
type Entry struct {
	LogID      string    `json:"logId"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"userId,omitempty"`
	ActionType string    `json:"actionType"`
	ItemID     string    `json:"itemId,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// Query filters log reads. Zero fields match everything.
type Query struct {
	From       time.Time
	To         time.Time
	ItemID     string
	UserID     string
	ActionType string
}

// Log is the append-only audit log.
type Log struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// Open loads the log at path, or starts empty if the file does not exist.
func Open(path string) (*Log, error) {
	l := &Log{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// OpenMemory returns a log that never touches disk.
func OpenMemory() *Log {
	return &Log{}
}

// Append records an action. The entry id and timestamp are assigned here.
func (l *Log) Append(userID, actionType, itemID, details string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		LogID:      uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
		ActionType: actionType,
		ItemID:     itemID,
		Details:    details,
	})
	return l.save()
}

// save writes the whole log. Callers must hold the write lock.
func (l *Log) save() error {
	if l.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

// Filter returns matching entries, newest first.
func (l *Log) Filter(q Query) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if !q.From.IsZero() && e.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && e.Timestamp.After(q.To) {
			continue
		}
		if q.ItemID != "" && e.ItemID != q.ItemID {
			continue
		}
		if q.UserID != "" && e.UserID != q.UserID {
			continue
		}
		if q.ActionType != "" && e.ActionType != q.ActionType {
			continue
		}
		out = append(out, e)
	}
	return out
}
