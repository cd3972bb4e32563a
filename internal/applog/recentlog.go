// Package applog wires the gateway's structured logging into an
// in-memory tail buffer surfaced at /health, so an operator can see
// recent activity without shipping to an external log sink.
//
// The circular buffer and chronological-ordering logic is adapted from
// a reference in-memory logrus hook, trimmed from that hook's full
// filter surface (tee-to-multiple-writers, level-range queries) down to
// the single "give me the last N entries as JSON" query /health
// actually needs.
package applog

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is the JSON-serializable shape of one tail-buffer log entry.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  logrus.Fields  `json:"fields,omitempty"`
}

// RecentHook is a logrus hook that retains the last N log entries in a
// circular buffer, read by the /health handler.
type RecentHook struct {
	mu       sync.RWMutex
	entries  []Entry
	writeIdx int
	count    int
	capacity int
}

// NewRecentHook builds a hook retaining up to capacity entries.
func NewRecentHook(capacity int) *RecentHook {
	if capacity <= 0 {
		capacity = 200
	}
	return &RecentHook{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Levels reports that this hook fires for every level.
func (h *RecentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire stores a copy of entry's message, level, time and fields.
func (h *RecentHook) Fire(entry *logrus.Entry) error {
	fields := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		fields[k] = v
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.writeIdx] = Entry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  fields,
	}
	h.writeIdx = (h.writeIdx + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
	return nil
}

// Latest returns the newest n entries, oldest first, capped at the
// number actually retained.
func (h *RecentHook) Latest(n int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || n <= 0 {
		return []Entry{}
	}
	if n > h.count {
		n = h.count
	}

	ordered := make([]Entry, 0, h.count)
	if h.count < h.capacity {
		ordered = append(ordered, h.entries[:h.count]...)
	} else {
		for i := 0; i < h.capacity; i++ {
			idx := (h.writeIdx + i) % h.capacity
			ordered = append(ordered, h.entries[idx])
		}
	}
	return ordered[len(ordered)-n:]
}

// Size returns the number of entries currently retained.
func (h *RecentHook) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
