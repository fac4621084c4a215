package services

import (
	"anonchat/contract"
	"anonchat/domain"
	"anonchat/runtime"
	"context"
	"log/slog"
	"time"
)

// Relay forwards messages between the two sides of a pairing. Delivery is
// at-most-once: no retry, no buffering. An unreachable partner is a fatal
// session fault and tears the pairing down symmetrically.
type Relay struct {
	log             *slog.Logger
	registry        *runtime.Registry
	transport       contract.Transport
	matchMaker      *MatchMaker
	deliveryTimeout time.Duration
}

func NewRelay(log *slog.Logger, registry *runtime.Registry, transport contract.Transport, matchMaker *MatchMaker, deliveryTimeout time.Duration) *Relay {
	return &Relay{
		log:             log,
		registry:        registry,
		transport:       transport,
		matchMaker:      matchMaker,
		deliveryTimeout: deliveryTimeout,
	}
}

// Forward delivers msg from sender to their current partner.
func (r *Relay) Forward(ctx context.Context, sender domain.UserHandle, msg domain.Message) domain.RelayResult {
	partner, ok := r.registry.PartnerOf(sender)
	if !ok {
		return domain.RelayResult{Status: domain.RelayNotInChat}
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()
	if err := r.transport.Send(sendCtx, partner, msg); err != nil {
		r.log.Warn("Relay delivery failed, tearing down pairing", "sender", sender, "partner", partner, "error", err)
		r.matchMaker.Disconnect(ctx, sender)
		return domain.RelayResult{Status: domain.RelayFailed, Partner: partner}
	}
	return domain.RelayResult{Status: domain.RelayDelivered, Partner: partner}
}
