package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/signalatlas/pointfield/model"
)

// HistoryCapacity bounds the selection history. Eviction is FIFO by
// insertion order so memory stays bounded deterministically.
const HistoryCapacity = 50

// HistoryMutation describes a change to the history for observers.
type HistoryMutation int

const (
	HistoryAppended HistoryMutation = iota
	HistoryRemoved
	HistoryCleared
)

// History is an append-only ring of completed selections. Single-writer on
// the interaction goroutine.
type History struct {
	entries   []model.HistoryEntry
	onMutated func(HistoryMutation, model.HistoryEntry)
}

// NewHistory builds an empty history.
func NewHistory() *History {
	return &History{entries: make([]model.HistoryEntry, 0, HistoryCapacity)}
}

// OnMutated registers a single observer notified on every mutation. The
// entry argument is zero-valued for HistoryCleared.
func (h *History) OnMutated(fn func(HistoryMutation, model.HistoryEntry)) {
	h.onMutated = fn
}

// Append records one completed selection, evicting the oldest entry when at
// capacity, and returns the stored entry.
func (h *History) Append(entityIDs []string, geometry model.SelectionGeometry, mode model.SelectionMode, at time.Time) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: at,
		EntityIDs: append([]string(nil), entityIDs...),
		Geometry:  geometry.Clone(),
		Mode:      mode,
	}

	if len(h.entries) == HistoryCapacity {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:HistoryCapacity-1]
	}
	h.entries = append(h.entries, entry)

	if h.onMutated != nil {
		h.onMutated(HistoryAppended, entry)
	}
	return entry
}

// Remove deletes the entry with the given id, preserving order. It returns
// false when no such entry exists.
func (h *History) Remove(id string) bool {
	for i := range h.entries {
		if h.entries[i].ID == id {
			removed := h.entries[i]
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			if h.onMutated != nil {
				h.onMutated(HistoryRemoved, removed)
			}
			return true
		}
	}
	return false
}

// Clear drops all entries.
func (h *History) Clear() {
	h.entries = h.entries[:0]
	if h.onMutated != nil {
		h.onMutated(HistoryCleared, model.HistoryEntry{})
	}
}

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Entries returns the stored entries oldest-first. The returned slice is a
// copy; callers may retain it.
func (h *History) Entries() []model.HistoryEntry {
	out := make([]model.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
