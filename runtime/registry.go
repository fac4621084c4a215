// Package runtime owns the in-memory session state and the workers that
// maintain it. It orchestrates the system without containing rendering or
// transport logic.
package runtime

import (
	"anonchat/domain"
	"sync"
	"time"

	"github.com/samber/lo"
)

type EnqueueStatus int

const (
	Enqueued EnqueueStatus = iota
	EnqueueAlreadyWaiting
	EnqueueAlreadyPaired
	// EnqueueSlotOccupied reports a different user holding the slot; the
	// caller should go back to TryPairWithWaiting.
	EnqueueSlotOccupied
)

type PairStatus int

const (
	Paired PairStatus = iota
	SlotEmpty
	PairAlreadyPaired
)

// Registry is the single serialization point for all session state: the
// one-entry waiting slot, the symmetric pairing map, and the set of every
// handle ever seen. Every method is one critical section; multi-entry
// mutations (pairing, pair teardown, eviction) never publish partial state.
//
// Invariants held under mu:
//   - pairs[a] == b implies pairs[b] == a
//   - a handle present in pairs never occupies the waiting slot
//   - at most one handle waits at a time
type Registry struct {
	mu           sync.Mutex
	waiting      domain.UserHandle
	hasWaiting   bool
	waitingSince time.Time
	pairs        map[domain.UserHandle]domain.UserHandle
	known        map[domain.UserHandle]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		pairs: make(map[domain.UserHandle]domain.UserHandle),
		known: make(map[domain.UserHandle]struct{}),
	}
}

// Register records the handle in the known-users set. Idempotent.
func (r *Registry) Register(u domain.UserHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[u] = struct{}{}
}

// TryEnqueueWaiting places u in the waiting slot stamped with now.
// It re-checks pairing and slot occupancy itself, so two rapid calls from the
// same user can never double-fill the slot regardless of call-site ordering.
func (r *Registry) TryEnqueueWaiting(u domain.UserHandle, now time.Time) EnqueueStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, paired := r.pairs[u]; paired {
		return EnqueueAlreadyPaired
	}
	if r.hasWaiting {
		if r.waiting == u {
			return EnqueueAlreadyWaiting
		}
		return EnqueueSlotOccupied
	}
	r.waiting = u
	r.hasWaiting = true
	r.waitingSince = now
	return Enqueued
}

// TryPairWithWaiting pairs u with the current waiter, if any. Clearing the
// slot and writing both directions of the mapping happen in the same critical
// section. A slot held by u itself reads as empty so the follow-up enqueue
// reports AlreadyWaiting.
func (r *Registry) TryPairWithWaiting(u domain.UserHandle) (domain.UserHandle, PairStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, paired := r.pairs[u]; paired {
		return 0, PairAlreadyPaired
	}
	if !r.hasWaiting || r.waiting == u {
		return 0, SlotEmpty
	}

	partner := r.waiting
	r.hasWaiting = false
	r.waiting = 0
	r.waitingSince = time.Time{}
	r.pairs[u] = partner
	r.pairs[partner] = u
	return partner, Paired
}

// Disconnect removes both directions of u's pairing. Only the first of two
// racing disconnects observes the partner; the loser sees ok == false.
func (r *Registry) Disconnect(u domain.UserHandle) (domain.UserHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	partner, ok := r.pairs[u]
	if !ok {
		return 0, false
	}
	delete(r.pairs, u)
	delete(r.pairs, partner)
	return partner, true
}

// PartnerOf is a read-only pairing lookup.
func (r *Registry) PartnerOf(u domain.UserHandle) (domain.UserHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	partner, ok := r.pairs[u]
	return partner, ok
}

// EvictWaitingIfStale clears and returns the waiter only if it has been
// waiting for more than timeout at instant now. A waiter paired between two
// sweep ticks is never evicted because pairing already cleared the slot.
func (r *Registry) EvictWaitingIfStale(now time.Time, timeout time.Duration) (domain.UserHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasWaiting || now.Sub(r.waitingSince) <= timeout {
		return 0, false
	}
	evicted := r.waiting
	r.hasWaiting = false
	r.waiting = 0
	r.waitingSince = time.Time{}
	return evicted, true
}

// IsWaiting reports whether u currently occupies the waiting slot.
func (r *Registry) IsWaiting(u domain.UserHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasWaiting && r.waiting == u
}

// KnownUsers returns a snapshot of every handle ever registered.
func (r *Registry) KnownUsers() []domain.UserHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Keys(r.known)
}

// Stats exposes gauges for the telemetry worker.
type Stats struct {
	ActivePairs int
	Waiting     bool
	KnownUsers  int
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		ActivePairs: len(r.pairs) / 2,
		Waiting:     r.hasWaiting,
		KnownUsers:  len(r.known),
	}
}
