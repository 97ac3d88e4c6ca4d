// Package queue builds the playback order for one session.
package queue

import (
	"fmt"
	"math/rand/v2"

	"tableflip.dev/reel/pkg/library"
)

// Queue is the immutable playback order of one session.
type Queue struct {
	Entries []library.Entry
	// Wrap restarts playback from the head once the last entry finished.
	// Only sequential queues wrap.
	Wrap bool
}

// Len returns the number of queued entries.
func (q Queue) Len() int {
	return len(q.Entries)
}

// IndexError reports a sequential start index outside the catalog.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("queue: start index %d out of range [0, %d)", e.Index, e.Len)
}

// Build returns the queue for entries starting at start. Sequential queues are
// the catalog rotated to start; shuffled queues pin entries[start] first and
// randomize the rest. A shuffled build with an out of range start shuffles
// everything. rng may be nil.
func Build(entries []library.Entry, start int, shuffle bool, rng *rand.Rand) (Queue, error) {
	n := len(entries)
	inRange := start >= 0 && start < n

	if !shuffle {
		if !inRange {
			return Queue{}, &IndexError{Index: start, Len: n}
		}
		out := make([]library.Entry, 0, n)
		out = append(out, entries[start:]...)
		out = append(out, entries[:start]...)
		return Queue{Entries: out, Wrap: true}, nil
	}

	out := make([]library.Entry, 0, n)
	rest := make([]library.Entry, 0, n)
	if inRange {
		out = append(out, entries[start])
		rest = append(rest, entries[:start]...)
		rest = append(rest, entries[start+1:]...)
	} else {
		rest = append(rest, entries...)
	}
	swap := func(i, j int) { rest[i], rest[j] = rest[j], rest[i] }
	if rng != nil {
		rng.Shuffle(len(rest), swap)
	} else {
		rand.Shuffle(len(rest), swap)
	}
	return Queue{Entries: append(out, rest...)}, nil
}
