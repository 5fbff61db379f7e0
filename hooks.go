package sightings

import (
	"sync"

	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// Hook function types for detail view events
type (
	// IdentificationPendingHook is called when an optimistic identification becomes visible
	IdentificationPendingHook func(observationUUID string, entry reconcile.Entry)

	// IdentificationConfirmedHook is called when the server confirms an identification
	IdentificationConfirmedHook func(observationUUID string, entry reconcile.Entry)

	// IdentificationRolledBackHook is called when an identification is removed after a failure.
	// err carries the localized message to show.
	IdentificationRolledBackHook func(observationUUID string, entry reconcile.Entry, err error)

	// ObservationViewedHook is called when an observation is first marked viewed locally
	ObservationViewedHook func(observationUUID string)

	// ObservationRefreshedHook is called after a detail view reloads its observation
	ObservationRefreshedHook func(obs observations.Observation)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnIdentificationPending(fn IdentificationPendingHook)
	OnIdentificationConfirmed(fn IdentificationConfirmedHook)
	OnIdentificationRolledBack(fn IdentificationRolledBackHook)
	OnObservationViewed(fn ObservationViewedHook)
	OnObservationRefreshed(fn ObservationRefreshedHook)
}

// hooks manages event callbacks for detail views
type hooks struct {
	mu                         sync.RWMutex
	onIdentificationPending    []IdentificationPendingHook
	onIdentificationConfirmed  []IdentificationConfirmedHook
	onIdentificationRolledBack []IdentificationRolledBackHook
	onObservationViewed        []ObservationViewedHook
	onObservationRefreshed     []ObservationRefreshedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnIdentificationPending registers a callback for optimistic identifications
func (h *hooks) OnIdentificationPending(fn IdentificationPendingHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIdentificationPending = append(h.onIdentificationPending, fn)
}

// OnIdentificationConfirmed registers a callback for confirmed identifications
func (h *hooks) OnIdentificationConfirmed(fn IdentificationConfirmedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIdentificationConfirmed = append(h.onIdentificationConfirmed, fn)
}

// OnIdentificationRolledBack registers a callback for rolled back identifications
func (h *hooks) OnIdentificationRolledBack(fn IdentificationRolledBackHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIdentificationRolledBack = append(h.onIdentificationRolledBack, fn)
}

// OnObservationViewed registers a callback for observations marked viewed
func (h *hooks) OnObservationViewed(fn ObservationViewedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onObservationViewed = append(h.onObservationViewed, fn)
}

// OnObservationRefreshed registers a callback for reloaded observations
func (h *hooks) OnObservationRefreshed(fn ObservationRefreshedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onObservationRefreshed = append(h.onObservationRefreshed, fn)
}

// triggerReconcile forwards a reconciler event to the matching hooks
func (h *hooks) triggerReconcile(observationUUID string, ev reconcile.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch ev.Kind {
	case reconcile.EntryPending:
		for _, hook := range h.onIdentificationPending {
			hook(observationUUID, ev.Entry)
		}
	case reconcile.EntryConfirmed:
		for _, hook := range h.onIdentificationConfirmed {
			hook(observationUUID, ev.Entry)
		}
	case reconcile.EntryRolledBack:
		for _, hook := range h.onIdentificationRolledBack {
			hook(observationUUID, ev.Entry, ev.Err)
		}
	}
}

func (h *hooks) triggerViewed(observationUUID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onObservationViewed {
		hook(observationUUID)
	}
}

func (h *hooks) triggerRefreshed(obs *observations.Observation) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onObservationRefreshed {
		hook(*obs.Clone())
	}
}
