// Package domain contains core concepts of the anonymous pairing system.
// No runtime, transport, or UI logic should be added here.
package domain

// UserHandle is the opaque stable identifier of a participant. It maps to a
// Telegram chat id but the core never interprets it.
type UserHandle int64

// DisplayInfo is the identity disclosed by an accepted reveal handshake.
type DisplayInfo struct {
	Name string
}
