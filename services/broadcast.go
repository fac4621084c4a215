package services

import (
	"anonchat/contract"
	"anonchat/domain"
	"anonchat/errors"
	"anonchat/runtime"
	"context"
	"log/slog"
	"time"
)

// Broadcast fans an operator message out to every known user. Authorization
// is a single configured administrator handle, checked before any delivery.
type Broadcast struct {
	log             *slog.Logger
	registry        *runtime.Registry
	transport       contract.Transport
	admin           domain.UserHandle
	deliveryTimeout time.Duration
}

func NewBroadcast(log *slog.Logger, registry *runtime.Registry, transport contract.Transport, admin domain.UserHandle, deliveryTimeout time.Duration) *Broadcast {
	return &Broadcast{
		log:             log,
		registry:        registry,
		transport:       transport,
		admin:           admin,
		deliveryTimeout: deliveryTimeout,
	}
}

// Send delivers text to every known user. A per-recipient failure is counted
// and skipped; it never aborts the batch.
func (b *Broadcast) Send(ctx context.Context, operator domain.UserHandle, text string) (domain.BroadcastReport, error) {
	if operator != b.admin {
		return domain.BroadcastReport{}, errors.ErrForbidden
	}

	msg := domain.Message{Text: BroadcastPrefix + text, Markdown: true}
	var report domain.BroadcastReport
	for _, recipient := range b.registry.KnownUsers() {
		sendCtx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
		err := b.transport.Send(sendCtx, recipient, msg)
		cancel()
		if err != nil {
			b.log.Warn("Broadcast delivery failed", "recipient", recipient, "error", err)
			report.Failed++
			continue
		}
		report.Delivered++
	}
	b.log.Info("Broadcast finished", "delivered", report.Delivered, "failed", report.Failed)
	return report, nil
}
