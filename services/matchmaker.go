// Package services implements the application operations on top of the
// session registry. Services commit registry state first and notify
// counterparties outside the critical section; a failed notification never
// rolls back committed state.
package services

import (
	"anonchat/contract"
	"anonchat/domain"
	"anonchat/runtime"
	"context"
	"log/slog"
	"time"
)

// MatchMaker pairs users through the single-slot waiting queue. Matching is
// greedy with queue depth one: pairing is O(1) and wait time is bounded by
// the timeout sweep rather than by fairness bookkeeping.
type MatchMaker struct {
	log             *slog.Logger
	registry        *runtime.Registry
	transport       contract.Transport
	deliveryTimeout time.Duration
	clock           func() time.Time
}

func NewMatchMaker(log *slog.Logger, registry *runtime.Registry, transport contract.Transport, deliveryTimeout time.Duration) *MatchMaker {
	return &MatchMaker{
		log:             log,
		registry:        registry,
		transport:       transport,
		deliveryTimeout: deliveryTimeout,
		clock:           time.Now,
	}
}

// Connect registers the user and either pairs them with the current waiter or
// places them in the waiting slot. The pair/enqueue loop closes the race
// where the slot fills between the two registry calls: the enqueue then
// reports SlotOccupied and the next iteration pairs with that occupant.
func (m *MatchMaker) Connect(ctx context.Context, user domain.UserHandle) domain.ConnectResult {
	m.registry.Register(user)

	for {
		partner, st := m.registry.TryPairWithWaiting(user)
		switch st {
		case runtime.PairAlreadyPaired:
			return domain.ConnectResult{Status: domain.ConnectAlreadyInChat}
		case runtime.Paired:
			m.log.Debug("Paired users", "user", user, "partner", partner)
			m.notify(ctx, partner, domain.TextMessage(MsgPartnerFound))
			return domain.ConnectResult{Status: domain.ConnectPaired, Partner: partner}
		}

		switch m.registry.TryEnqueueWaiting(user, m.clock()) {
		case runtime.Enqueued:
			m.log.Debug("User waiting for a partner", "user", user)
			return domain.ConnectResult{Status: domain.ConnectSearching}
		case runtime.EnqueueAlreadyWaiting:
			return domain.ConnectResult{Status: domain.ConnectAlreadyWaiting}
		case runtime.EnqueueAlreadyPaired:
			return domain.ConnectResult{Status: domain.ConnectAlreadyInChat}
		case runtime.EnqueueSlotOccupied:
			// Someone slipped into the slot; try pairing with them.
		}
	}
}

// Disconnect tears down the user's pairing. The former partner is notified
// best-effort: an unreachable partner must not keep the local side connected.
func (m *MatchMaker) Disconnect(ctx context.Context, user domain.UserHandle) domain.DisconnectResult {
	partner, ok := m.registry.Disconnect(user)
	if !ok {
		return domain.DisconnectResult{Status: domain.DisconnectNotInChat}
	}
	m.log.Debug("Pair disconnected", "user", user, "partner", partner)
	m.notify(ctx, partner, domain.TextMessage(MsgPartnerLeft))
	return domain.DisconnectResult{Status: domain.Disconnected, Partner: partner}
}

// notify is a best-effort send with a bounded deadline, logged on failure.
func (m *MatchMaker) notify(ctx context.Context, to domain.UserHandle, msg domain.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, m.deliveryTimeout)
	defer cancel()
	if err := m.transport.Send(sendCtx, to, msg); err != nil {
		m.log.Warn("Notification dropped", "recipient", to, "error", err)
	}
}
