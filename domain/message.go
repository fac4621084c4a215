package domain

// MediaKind discriminates forwarded media payloads.
type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaDocument
	MediaVoice
	MediaVideo
	MediaSticker
	MediaAnimation
)

// Media references a transport-hosted file by its opaque id. The content is
// never downloaded; relaying hands the id back to the transport.
type Media struct {
	Kind   MediaKind
	FileID string
}

// Button is one inline keyboard button. Payload must round-trip through
// ParseCallback when the button is pressed.
type Button struct {
	Label   string
	Payload string
}

// Message is an outbound payload handed to the transport.
// Exactly one of Text or Media is expected to be set.
type Message struct {
	Text     string
	Markdown bool
	Media    *Media
	Buttons  [][]Button
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Text: text}
}
