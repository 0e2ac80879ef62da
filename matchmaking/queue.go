package matchmaking

import (
	"fmt"
	"strings"
	"time"
)

// WaitingEntry is a connection that asked to play and has no seat yet.
type WaitingEntry struct {
	ConnectionID string
	DisplayName  string
	JoinedAt     time.Time
}

// Queue is the FIFO list of waiting players. It is not safe for concurrent
// use; Service owns it and touches it from a single goroutine.
type Queue struct {
	entries []WaitingEntry
	now     func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Admit appends connID to the back of the queue and returns its 1-based
// position. A blank name is replaced by Player<N>. A connection that is
// already queued keeps its place: admitted is false and its current position
// is returned.
func (q *Queue) Admit(connID, name string) (position int, admitted bool) {
	if pos := q.Position(connID); pos > 0 {
		return pos, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player%d", len(q.entries)+1)
	}

	q.entries = append(q.entries, WaitingEntry{
		ConnectionID: connID,
		DisplayName:  name,
		JoinedAt:     q.now(),
	})
	return len(q.entries), true
}

// Remove drops the entry for connID and reports whether one was found.
func (q *Queue) Remove(connID string) bool {
	for i, e := range q.entries {
		if e.ConnectionID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Position returns the 1-based position of connID, or 0 when it is not
// queued.
func (q *Queue) Position(connID string) int {
	for i, e := range q.entries {
		if e.ConnectionID == connID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) Contains(connID string) bool {
	return q.Position(connID) > 0
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Names returns the display names in queue order.
func (q *Queue) Names() []string {
	names := make([]string, 0, len(q.entries))
	for _, e := range q.entries {
		names = append(names, e.DisplayName)
	}
	return names
}

// DrainFront removes and returns up to n entries from the front of the queue.
func (q *Queue) DrainFront(n int) []WaitingEntry {
	if n <= 0 {
		return nil
	}
	if n > len(q.entries) {
		n = len(q.entries)
	}

	drained := make([]WaitingEntry, n)
	copy(drained, q.entries[:n])
	q.entries = append(q.entries[:0], q.entries[n:]...)
	return drained
}
