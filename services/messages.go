package services

// Counterparty notifications sent by the services themselves. Replies to the
// invoking user are rendered by the dispatch layer from outcome values.
const (
	MsgPartnerFound    = "✅ Connected! Chat anonymously now!"
	MsgPartnerLeft     = "🚪 Partner disconnected"
	MsgRevealPrompt    = "🔓 Your partner wants to reveal their identity. Allow?"
	MsgRevealDeclined  = "❌ Partner declined identity reveal"
	MsgRevealConfirmed = "✅ Identity revealed successfully!"
	MsgWaitTimeout     = "⏰ Connection timeout. Tap below to try again"

	BtnAccept  = "Accept ✅"
	BtnDecline = "Decline ❌"
	BtnRetry   = "🔄 Retry"

	BroadcastPrefix = "📢 *Admin Broadcast:* "
)
