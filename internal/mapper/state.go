package mapper

import (
	"sync"

	"github.com/oakline/assessmap/internal/corpus"
)

// openState records the question currently awaiting an option answer.
type openState struct {
	category corpus.Category
	question string
}

// stateTable holds per-conversation state. Each conversation id owns a
// stateEntry whose mutex is held across the full read-decide-write of one
// request, so concurrent requests for the same id cannot race on the open
// question.
type stateTable struct {
	mu      sync.Mutex
	entries map[string]*stateEntry
}

type stateEntry struct {
	mu   sync.Mutex
	open *openState
}

func newStateTable() *stateTable {
	return &stateTable{entries: make(map[string]*stateEntry)}
}

// get returns the entry for id, creating it on first use. Entries are never
// removed; a nil open pointer is the Idle state. The table is bounded by
// the number of distinct conversation ids seen in the process lifetime.
func (t *stateTable) get(id string) *stateEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		e = &stateEntry{}
		t.entries[id] = e
	}
	return e
}

// snapshot returns the open state for id without creating an entry.
// Intended for tests and introspection.
func (t *stateTable) snapshot(id string) (corpus.Category, string, bool) {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return "", "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open == nil {
		return "", "", false
	}
	return e.open.category, e.open.question, true
}
