package telegram

import (
	"anonchat/domain"
	"fmt"
)

// Replies rendered for the invoking user. Counterparty notifications live in
// the services package.
const (
	msgWelcome = "🔒 *Anonymous Chat Bot*\n" +
		"Use /connect to start chatting!\n" +
		"/reveal to request identity disclosure\n" +
		"/invite to get group link"
	msgQuickGuide = "Commands:\n" +
		"/connect — find a random partner\n" +
		"/disconnect — leave the current chat\n" +
		"/reveal — ask your partner to exchange names\n" +
		"/status — where you are right now\n" +
		"/invite — community group link"
	msgSearching        = "🔍 Searching for a partner..."
	msgConnected        = "✅ Connected! Start chatting!"
	msgAlreadyInChat    = "⚠️ You're already in a chat! Use /disconnect first."
	msgAlreadyWaiting   = "⏳ Still looking for a partner, hang tight!"
	msgDisconnected     = "✅ Disconnected successfully"
	msgNotInChat        = "❌ You're not in an active chat"
	msgNotConnectedYet  = "❌ You're not connected. Use /connect first"
	msgRelayFailed      = "❌ Message failed to send. The chat has been closed."
	msgRevealSent       = "⏳ Reveal request sent..."
	msgRevealSendFailed = "❌ Failed to send request"
	msgRevealShared     = "✅ Identity shared"
	msgRevealRefused    = "🚫 Request declined"
	msgRevealStale      = "⚠️ This request is no longer valid"
	msgRevealFailed     = "❌ Failed to reveal identity"
	msgStatusChatting   = "💬 You're currently in a chat"
	msgStatusWaiting    = "🔍 You're in the waiting list"
	msgStatusIdle       = "😴 Not connected. Use /connect to start"
	msgBroadcastUsage   = "Usage: /broadcast <message>"
	msgAdminOnly        = "⛔ Admin only command!"
	msgInviteMissing    = "❌ Group chat not configured"
	msgInviteFailed     = "❌ Failed to generate invite link"
	msgUnsupported      = "🤷 This kind of message can't be relayed"
	msgInvalidAction    = "Invalid action"
)

func renderConnect(res domain.ConnectResult) string {
	switch res.Status {
	case domain.ConnectPaired:
		return msgConnected
	case domain.ConnectSearching:
		return msgSearching
	case domain.ConnectAlreadyInChat:
		return msgAlreadyInChat
	default:
		return msgAlreadyWaiting
	}
}

func renderDisconnect(res domain.DisconnectResult) string {
	if res.Status == domain.Disconnected {
		return msgDisconnected
	}
	return msgNotInChat
}

func renderReveal(res domain.RevealRequestResult) string {
	switch res.Status {
	case domain.RevealRequested:
		return msgRevealSent
	case domain.RevealNotInChat:
		return msgNotInChat
	default:
		return msgRevealSendFailed
	}
}

func renderResolve(res domain.ResolveResult) string {
	switch res.Status {
	case domain.ResolveAccepted:
		return msgRevealShared
	case domain.ResolveDeclined:
		return msgRevealRefused
	case domain.ResolveStale:
		return msgRevealStale
	default:
		return msgRevealFailed
	}
}

func renderBroadcast(report domain.BroadcastReport) string {
	return fmt.Sprintf("✅ Broadcast sent to %d users (%d failed)", report.Delivered, report.Failed)
}

func renderInvite(link string) string {
	return fmt.Sprintf("👥 Join our community:\n%s\nShare this link to invite friends!", link)
}
