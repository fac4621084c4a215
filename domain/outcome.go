package domain

// Outcomes returned by the application services. The dispatch layer renders
// them as user-facing text; services never build UI strings themselves.

type ConnectStatus int

const (
	ConnectPaired ConnectStatus = iota
	ConnectSearching
	ConnectAlreadyInChat
	ConnectAlreadyWaiting
)

type ConnectResult struct {
	Status  ConnectStatus
	Partner UserHandle // set when Status == ConnectPaired
}

type DisconnectStatus int

const (
	Disconnected DisconnectStatus = iota
	DisconnectNotInChat
)

type DisconnectResult struct {
	Status  DisconnectStatus
	Partner UserHandle // set when Status == Disconnected
}

type RelayStatus int

const (
	RelayDelivered RelayStatus = iota
	RelayNotInChat
	// RelayFailed means the partner was unreachable and the pairing has
	// already been torn down on both sides.
	RelayFailed
)

type RelayResult struct {
	Status  RelayStatus
	Partner UserHandle
}

type RevealRequestStatus int

const (
	RevealRequested RevealRequestStatus = iota
	RevealNotInChat
	RevealPromptFailed
)

type RevealRequestResult struct {
	Status RevealRequestStatus
}

type ResolveStatus int

const (
	ResolveAccepted ResolveStatus = iota
	ResolveDeclined
	// ResolveStale means the pairing that spawned the request no longer
	// links requester and responder. No identity was disclosed.
	ResolveStale
	// ResolveFailed means the handshake was valid but identity lookup or
	// delivery failed. The pending request is consumed either way.
	ResolveFailed
)

type ResolveResult struct {
	Status ResolveStatus
}

// BroadcastReport counts per-recipient delivery results of one admin fan-out.
type BroadcastReport struct {
	Delivered int
	Failed    int
}
