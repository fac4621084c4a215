package workers

import (
	"anonchat/contract"
	"anonchat/domain"
	"anonchat/runtime"
	"anonchat/services"
	"context"
	"log/slog"
	"time"
)

// Sweeper evicts a waiter whose wait exceeded the connection timeout, on a
// fixed interval independent of request volume. The interval must be smaller
// than the timeout; config validation enforces it at boot. The same pass
// expires abandoned reveal handshakes so their tokens don't accumulate.
type Sweeper struct {
	log             *slog.Logger
	registry        *runtime.Registry
	transport       contract.Transport
	reveals         *services.Reveal
	interval        time.Duration
	timeout         time.Duration
	revealTTL       time.Duration
	deliveryTimeout time.Duration
	clock           func() time.Time
}

func NewSweeper(log *slog.Logger, registry *runtime.Registry, transport contract.Transport, reveals *services.Reveal, interval, timeout, revealTTL, deliveryTimeout time.Duration) *Sweeper {
	return &Sweeper{
		log:             log,
		registry:        registry,
		transport:       transport,
		reveals:         reveals,
		interval:        interval,
		timeout:         timeout,
		revealTTL:       revealTTL,
		deliveryTimeout: deliveryTimeout,
		clock:           time.Now,
	}
}

func (w *Sweeper) Run(ctx context.Context) error {
	w.log.Info("Starting waiting-slot sweeper", "interval", w.interval, "timeout", w.timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one sweep pass. Eviction commits before the notification is
// attempted; a dropped notice never restores the slot.
func (w *Sweeper) Tick(ctx context.Context) {
	if n := w.reveals.Expire(w.clock(), w.revealTTL); n > 0 {
		w.log.Debug("Expired stale reveal requests", "count", n)
	}

	evicted, ok := w.registry.EvictWaitingIfStale(w.clock(), w.timeout)
	if !ok {
		return
	}
	w.log.Info("Evicted stale waiter", "user", evicted)

	notice := domain.Message{
		Text: services.MsgWaitTimeout,
		Buttons: [][]domain.Button{{
			{Label: services.BtnRetry, Payload: domain.Callback{Action: domain.RetryConnect}.Encode()},
		}},
	}
	sendCtx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
	defer cancel()
	if err := w.transport.Send(sendCtx, evicted, notice); err != nil {
		w.log.Warn("Timeout notice dropped", "recipient", evicted, "error", err)
	}
}
