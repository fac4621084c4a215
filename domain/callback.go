package domain

import (
	"anonchat/errors"
	"fmt"
	"strings"
)

// CallbackAction is the decoded intent of an inline keyboard press.
type CallbackAction int

const (
	RevealAccept CallbackAction = iota
	RevealDecline
	RetryConnect
)

const (
	payloadRevealAccept  = "reveal_accept"
	payloadRevealDecline = "reveal_decline"
	payloadRetryConnect  = "retry_connect"
)

// Callback is a tagged callback payload, decoded once at the boundary.
// Token is set only for reveal actions.
type Callback struct {
	Action CallbackAction
	Token  string
}

func (c Callback) Encode() string {
	switch c.Action {
	case RevealAccept:
		return payloadRevealAccept + ":" + c.Token
	case RevealDecline:
		return payloadRevealDecline + ":" + c.Token
	default:
		return payloadRetryConnect
	}
}

// ParseCallback decodes a raw callback payload. Malformed payloads are
// rejected here so handlers downstream only ever see valid variants.
func ParseCallback(raw string) (Callback, error) {
	action, token, hasToken := strings.Cut(raw, ":")
	switch action {
	case payloadRevealAccept, payloadRevealDecline:
		if !hasToken || token == "" {
			return Callback{}, fmt.Errorf("%w: %q misses its token", errors.ErrMalformedCallback, raw)
		}
		if action == payloadRevealAccept {
			return Callback{Action: RevealAccept, Token: token}, nil
		}
		return Callback{Action: RevealDecline, Token: token}, nil
	case payloadRetryConnect:
		if hasToken {
			return Callback{}, fmt.Errorf("%w: %q carries an unexpected token", errors.ErrMalformedCallback, raw)
		}
		return Callback{Action: RetryConnect}, nil
	default:
		return Callback{}, fmt.Errorf("%w: unknown action %q", errors.ErrMalformedCallback, raw)
	}
}
