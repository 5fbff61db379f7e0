// Package reconcile keeps the visible list of identifications for one
// observation while optimistic submissions are in flight.
//
// Every entry is either Confirmed (the server has it) or Pending (shown
// ahead of the server's answer under a client-generated UUID). A pending
// entry either becomes Confirmed in place or is removed; entries are matched
// by UUID, never by position, so concurrent submissions cannot disturb each
// other.
package reconcile

import "github.com/agentstation/sightings/pkg/observations"

// State is the reconciliation state of a visible identification.
type State int

const (
	// Confirmed entries are known to the server.
	Confirmed State = iota
	// Pending entries were added optimistically and await the server.
	Pending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Entry is one visible identification with its reconciliation state.
type Entry struct {
	Identification observations.Identification `json:"identification" yaml:"identification"`
	State          State                       `json:"state" yaml:"state"`
}

// UUID returns the identification's key.
func (e Entry) UUID() string {
	return e.Identification.UUID
}

// Temporary reports whether the entry should render ghosted.
func (e Entry) Temporary() bool {
	return e.State == Pending
}

// MarshalText lets State render by name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
