package services

import (
	"anonchat/contract"
	"anonchat/domain"
	"anonchat/runtime"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingReveal binds an outstanding handshake to the pairing that spawned
// it. The token never encodes the handles; the mapping stays server-side so
// a replayed or forged payload cannot name its own parties.
type pendingReveal struct {
	requester domain.UserHandle
	target    domain.UserHandle
	createdAt time.Time
}

// Reveal implements the two-phase identity handshake layered on an existing
// pairing. Tokens are single-use; resolution re-validates the pairing so a
// token outliving its session can never leak identity to an unrelated
// current partner.
type Reveal struct {
	mu              sync.Mutex
	pending         map[string]pendingReveal
	log             *slog.Logger
	registry        *runtime.Registry
	transport       contract.Transport
	deliveryTimeout time.Duration
	clock           func() time.Time
}

func NewReveal(log *slog.Logger, registry *runtime.Registry, transport contract.Transport, deliveryTimeout time.Duration) *Reveal {
	return &Reveal{
		pending:         make(map[string]pendingReveal),
		log:             log,
		registry:        registry,
		transport:       transport,
		deliveryTimeout: deliveryTimeout,
		clock:           time.Now,
	}
}

// Request opens a handshake and sends the approval prompt to the partner.
func (s *Reveal) Request(ctx context.Context, requester domain.UserHandle) domain.RevealRequestResult {
	target, ok := s.registry.PartnerOf(requester)
	if !ok {
		return domain.RevealRequestResult{Status: domain.RevealNotInChat}
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.pending[token] = pendingReveal{requester: requester, target: target, createdAt: s.clock()}
	s.mu.Unlock()

	prompt := domain.Message{
		Text: MsgRevealPrompt,
		Buttons: [][]domain.Button{{
			{Label: BtnAccept, Payload: domain.Callback{Action: domain.RevealAccept, Token: token}.Encode()},
			{Label: BtnDecline, Payload: domain.Callback{Action: domain.RevealDecline, Token: token}.Encode()},
		}},
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()
	if err := s.transport.Send(sendCtx, target, prompt); err != nil {
		s.log.Warn("Reveal prompt dropped", "requester", requester, "target", target, "error", err)
		s.drop(token)
		return domain.RevealRequestResult{Status: domain.RevealPromptFailed}
	}
	return domain.RevealRequestResult{Status: domain.RevealRequested}
}

// Resolve consumes the token and applies the responder's decision. The
// pending entry is removed before any delivery so every token resolves at
// most once, stale or not.
func (s *Reveal) Resolve(ctx context.Context, token string, decision domain.CallbackAction, responder domain.UserHandle) domain.ResolveResult {
	s.mu.Lock()
	p, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	s.mu.Unlock()
	if !ok {
		return domain.ResolveResult{Status: domain.ResolveStale}
	}

	// The pairing may have been torn down or replaced since the request.
	partner, paired := s.registry.PartnerOf(p.target)
	if responder != p.target || !paired || partner != p.requester {
		s.log.Debug("Stale reveal token", "responder", responder, "requester", p.requester)
		return domain.ResolveResult{Status: domain.ResolveStale}
	}

	if decision == domain.RevealDecline {
		s.notify(ctx, p.requester, domain.TextMessage(MsgRevealDeclined))
		return domain.ResolveResult{Status: domain.ResolveDeclined}
	}
	return s.disclose(ctx, p)
}

// disclose exchanges display names between both sides of the handshake.
func (s *Reveal) disclose(ctx context.Context, p pendingReveal) domain.ResolveResult {
	lookupCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	requesterInfo, err := s.transport.LookupDisplayInfo(lookupCtx, p.requester)
	if err != nil {
		s.log.Warn("Display lookup failed", "handle", p.requester, "error", err)
		return domain.ResolveResult{Status: domain.ResolveFailed}
	}
	targetInfo, err := s.transport.LookupDisplayInfo(lookupCtx, p.target)
	if err != nil {
		s.log.Warn("Display lookup failed", "handle", p.target, "error", err)
		return domain.ResolveResult{Status: domain.ResolveFailed}
	}

	s.notify(ctx, p.target, domain.TextMessage("👤 Partner's name: "+requesterInfo.Name))
	s.notify(ctx, p.requester, domain.TextMessage("👤 Partner's name: "+targetInfo.Name))
	s.notify(ctx, p.requester, domain.TextMessage(MsgRevealConfirmed))
	return domain.ResolveResult{Status: domain.ResolveAccepted}
}

// Expire removes pending handshakes older than ttl at instant now and
// returns how many were dropped. Prompts whose pairing dissolved and whose
// buttons are never pressed would otherwise sit in the map for the process
// lifetime; the sweep loop calls this each tick.
func (s *Reveal) Expire(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for token, p := range s.pending {
		if now.Sub(p.createdAt) > ttl {
			delete(s.pending, token)
			expired++
		}
	}
	return expired
}

func (s *Reveal) drop(token string) {
	s.mu.Lock()
	delete(s.pending, token)
	s.mu.Unlock()
}

// PendingCount is used by tests and telemetry.
func (s *Reveal) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Reveal) notify(ctx context.Context, to domain.UserHandle, msg domain.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()
	if err := s.transport.Send(sendCtx, to, msg); err != nil {
		s.log.Warn("Notification dropped", "recipient", to, "error", err)
	}
}
