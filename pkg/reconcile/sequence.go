package reconcile

import (
	"sync"

	"github.com/agentstation/sightings/pkg/observations"
)

// Sequence is the ordered, UUID-keyed list of identifications shown for an
// observation. It is safe for concurrent use.
type Sequence struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewSequence seeds a sequence with server-confirmed identifications.
func NewSequence(confirmed []observations.Identification) *Sequence {
	s := &Sequence{}
	s.Reset(confirmed)
	return s
}

// Upsert replaces the entry with the same UUID in place or appends it.
// The last write for a UUID wins.
func (s *Sequence) Upsert(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(e.UUID()); i >= 0 {
		s.entries[i] = e
		return
	}
	s.entries = append(s.entries, e)
}

// insertPending upserts a pending entry unless a confirmed entry already
// carries its UUID. A rollback could not restore the confirmed one.
func (s *Sequence) insertPending(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(e.UUID())
	if i < 0 {
		s.entries = append(s.entries, e)
		return true
	}
	if s.entries[i].State != Pending {
		return false
	}
	s.entries[i] = e
	return true
}

// Settle replaces the pending entry with uuid by the server's record, in
// place, as Confirmed. If the record's UUID is already visible, the pending
// entry is dropped instead. It reports false when no pending entry carries
// uuid.
func (s *Sequence) Settle(uuid string, created observations.Identification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(uuid)
	if i < 0 || s.entries[i].State != Pending {
		return false
	}
	if created.UUID != uuid && s.indexOf(created.UUID) >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		return true
	}
	s.entries[i] = Entry{Identification: created.Clone(), State: Confirmed}
	return true
}

// Confirm flips a pending entry to Confirmed. It reports false when no
// pending entry carries the UUID.
func (s *Sequence) Confirm(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(uuid)
	if i < 0 || s.entries[i].State != Pending {
		return false
	}
	s.entries[i].State = Confirmed
	return true
}

// Remove drops a pending entry. Confirmed entries are never removed by a
// rollback; it reports false when nothing was removed.
func (s *Sequence) Remove(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(uuid)
	if i < 0 || s.entries[i].State != Pending {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// Get returns the entry for a UUID.
func (s *Sequence) Get(uuid string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(uuid); i >= 0 {
		return cloneEntry(s.entries[i]), true
	}
	return Entry{}, false
}

// Entries returns a snapshot of the visible sequence.
func (s *Sequence) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Len returns the number of visible entries.
func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Pending returns the UUIDs of entries still awaiting the server, in order.
func (s *Sequence) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var uuids []string
	for _, e := range s.entries {
		if e.State == Pending {
			uuids = append(uuids, e.UUID())
		}
	}
	return uuids
}

// Reset replaces the confirmed entries with a fresher server copy. Pending
// entries the server does not know yet are kept after it, in their order.
func (s *Sequence) Reset(confirmed []observations.Identification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(confirmed))
	next := make([]Entry, 0, len(confirmed)+len(s.entries))
	for _, id := range confirmed {
		known[id.UUID] = struct{}{}
		next = append(next, Entry{Identification: id.Clone(), State: Confirmed})
	}
	for _, e := range s.entries {
		if e.State != Pending {
			continue
		}
		if _, ok := known[e.UUID()]; ok {
			continue
		}
		next = append(next, e)
	}
	s.entries = next
}

func (s *Sequence) indexOf(uuid string) int {
	for i, e := range s.entries {
		if e.UUID() == uuid {
			return i
		}
	}
	return -1
}

func cloneEntry(e Entry) Entry {
	e.Identification = e.Identification.Clone()
	return e
}
