// Package history maintains the append-only, capacity-bounded record of past
// recognition results, persisted on every mutation.
package history

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kuzamma/surah-recognition-go/internal/datastore"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/logging"
	"github.com/kuzamma/surah-recognition-go/internal/recognition"
)

// StorageKey is the fixed name the serialized entry sequence is stored under.
const StorageKey = "recording-storage"

// Capacity bounds the ledger; the oldest entries beyond it are silently
// evicted.
const Capacity = 50

// Entry is one recorded recognition outcome. Immutable once appended.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Recognized bool      `json:"recognized"`
	SurahID    *int      `json:"surahId,omitempty"`
	SurahName  string    `json:"surahName,omitempty"`
	Confidence float64   `json:"confidence"`
}

// EntryInput carries the fields of an entry before the ledger assigns its
// identity and timestamp.
type EntryInput struct {
	Recognized bool
	SurahID    *int
	SurahName  string
	Confidence float64
}

// FromResult converts a finalized recognition result into ledger input. The
// provenance tag is deliberately not recorded; history does not carry a
// separate trust signal.
func FromResult(result *recognition.Result) EntryInput {
	input := EntryInput{
		Recognized: result.Recognized,
		Confidence: result.Confidence,
	}
	if result.Recognized && result.SurahID != nil {
		id := *result.SurahID
		input.SurahID = &id
		input.SurahName = result.SurahName
	}
	return input
}

// Ledger is the ordered (most recent first) sequence of entries. Append and
// Clear are serialized by a mutex; there is at most one active recognition
// cycle, so a single-writer discipline suffices.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	store   datastore.Store
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewLedger creates a ledger backed by store, loading any previously
// persisted sequence. A corrupt stored sequence is discarded with a warning
// rather than failing startup.
func NewLedger(store datastore.Store) (*Ledger, error) {
	ledger := &Ledger{
		store:  store,
		logger: logging.ForService("history"),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	raw, found, err := store.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if found && len(raw) > 0 {
		if err := json.Unmarshal(raw, &ledger.entries); err != nil {
			ledger.logger.Warn("Discarding unreadable history", "error", err)
			ledger.entries = nil
		}
		if len(ledger.entries) > Capacity {
			ledger.entries = ledger.entries[:Capacity]
		}
	}

	return ledger, nil
}

// Append assigns a unique id and creation timestamp, prepends the entry and
// truncates to capacity, then persists the sequence.
func (l *Ledger) Append(input EntryInput) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:         l.newID(),
		Timestamp:  l.now(),
		Recognized: input.Recognized,
		SurahID:    input.SurahID,
		SurahName:  input.SurahName,
		Confidence: input.Confidence,
	}

	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > Capacity {
		l.entries = l.entries[:Capacity]
	}

	if err := l.persistLocked(); err != nil {
		// The in-memory sequence stays authoritative for this process.
		l.logger.Error("Failed to persist history append", "error", err)
		return entry, err
	}

	l.logger.Debug("History entry appended",
		"id", entry.ID, "recognized", entry.Recognized, "entries", len(l.entries))
	return entry, nil
}

// Clear empties the sequence unconditionally and persists the empty state.
// Clearing an already-empty ledger is a no-op success.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	if err := l.persistLocked(); err != nil {
		l.logger.Error("Failed to persist history clear", "error", err)
		return err
	}
	return nil
}

// All returns a snapshot copy, most recent first.
func (l *Ledger) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Ledger) persistLocked() error {
	data, err := json.Marshal(l.entries)
	if err != nil {
		return errors.New(err).
			Component("history").
			Category(errors.CategoryDatabase).
			Build()
	}
	return l.store.Set(StorageKey, data)
}
