package telegram

import (
	"anonchat/domain"
	"anonchat/errors"
	"anonchat/runtime"
	"anonchat/services"
	"context"
	stderrors "errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher consumes the update stream and routes each update to the
// matching service operation. It runs under the supervisor; each update is
// handled in its own goroutine so one slow or blocked recipient never stalls
// other users' commands.
type Dispatcher struct {
	log             *slog.Logger
	client          *Client
	updates         tgbotapi.UpdatesChannel
	registry        *runtime.Registry
	matchMaker      *services.MatchMaker
	relay           *services.Relay
	reveal          *services.Reveal
	broadcast       *services.Broadcast
	communityChatID int64
}

func NewDispatcher(
	log *slog.Logger,
	client *Client,
	updates tgbotapi.UpdatesChannel,
	registry *runtime.Registry,
	matchMaker *services.MatchMaker,
	relay *services.Relay,
	reveal *services.Reveal,
	broadcast *services.Broadcast,
	communityChatID int64,
) *Dispatcher {
	return &Dispatcher{
		log:             log,
		client:          client,
		updates:         updates,
		registry:        registry,
		matchMaker:      matchMaker,
		relay:           relay,
		reveal:          reveal,
		broadcast:       broadcast,
		communityChatID: communityChatID,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-d.updates:
			if !ok {
				return nil
			}
			go d.handle(ctx, upd)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Update handler panicked", "panic", r)
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.Chat.IsPrivate():
		d.handleMessage(ctx, upd.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sender := domain.UserHandle(msg.Chat.ID)
	if msg.IsCommand() {
		d.handleCommand(ctx, sender, msg)
		return
	}

	payload, ok := toDomainMessage(msg)
	if !ok {
		d.reply(ctx, sender, msgUnsupported)
		return
	}
	res := d.relay.Forward(ctx, sender, payload)
	switch res.Status {
	case domain.RelayNotInChat:
		d.reply(ctx, sender, msgNotConnectedYet)
	case domain.RelayFailed:
		d.reply(ctx, sender, msgRelayFailed)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, sender domain.UserHandle, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		d.registry.Register(sender)
		d.replyMarkdown(ctx, sender, msgWelcome)
	case "help":
		d.reply(ctx, sender, msgQuickGuide)
	case "connect":
		d.reply(ctx, sender, renderConnect(d.matchMaker.Connect(ctx, sender)))
	case "disconnect", "stop":
		d.reply(ctx, sender, renderDisconnect(d.matchMaker.Disconnect(ctx, sender)))
	case "reveal":
		d.reply(ctx, sender, renderReveal(d.reveal.Request(ctx, sender)))
	case "status":
		d.reply(ctx, sender, d.statusOf(sender))
	case "invite":
		d.handleInvite(ctx, sender)
	case "broadcast":
		d.handleBroadcast(ctx, sender, msg.CommandArguments())
	default:
		d.reply(ctx, sender, msgQuickGuide)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	clicker := domain.UserHandle(cq.From.ID)
	cb, err := domain.ParseCallback(cq.Data)
	if err != nil {
		d.log.Warn("Rejected callback payload", "clicker", clicker, "error", err)
		d.client.AnswerCallback(cq.ID, msgInvalidAction)
		return
	}

	switch cb.Action {
	case domain.RevealAccept, domain.RevealDecline:
		res := d.reveal.Resolve(ctx, cb.Token, cb.Action, clicker)
		d.client.AnswerCallback(cq.ID, "")
		if cq.Message != nil {
			d.client.EditText(cq.Message.Chat.ID, cq.Message.MessageID, renderResolve(res))
		}
	case domain.RetryConnect:
		res := d.matchMaker.Connect(ctx, clicker)
		d.client.AnswerCallback(cq.ID, "")
		d.reply(ctx, clicker, renderConnect(res))
	}
}

func (d *Dispatcher) handleInvite(ctx context.Context, sender domain.UserHandle) {
	if d.communityChatID == 0 {
		d.reply(ctx, sender, msgInviteMissing)
		return
	}
	link, err := d.client.InviteLink(d.communityChatID)
	if err != nil {
		d.log.Error("Invite link export failed", "error", err)
		d.reply(ctx, sender, msgInviteFailed)
		return
	}
	d.reply(ctx, sender, renderInvite(link))
}

func (d *Dispatcher) handleBroadcast(ctx context.Context, sender domain.UserHandle, text string) {
	if text == "" {
		d.reply(ctx, sender, msgBroadcastUsage)
		return
	}
	report, err := d.broadcast.Send(ctx, sender, text)
	if err != nil {
		if stderrors.Is(err, errors.ErrForbidden) {
			d.reply(ctx, sender, msgAdminOnly)
			return
		}
		d.log.Error("Broadcast failed", "error", err)
		return
	}
	d.reply(ctx, sender, renderBroadcast(report))
}

func (d *Dispatcher) statusOf(u domain.UserHandle) string {
	if _, paired := d.registry.PartnerOf(u); paired {
		return msgStatusChatting
	}
	if d.registry.IsWaiting(u) {
		return msgStatusWaiting
	}
	return msgStatusIdle
}

func (d *Dispatcher) reply(ctx context.Context, to domain.UserHandle, text string) {
	if err := d.client.Send(ctx, to, domain.TextMessage(text)); err != nil {
		d.log.Warn("Reply dropped", "recipient", to, "error", err)
	}
}

func (d *Dispatcher) replyMarkdown(ctx context.Context, to domain.UserHandle, text string) {
	if err := d.client.Send(ctx, to, domain.Message{Text: text, Markdown: true}); err != nil {
		d.log.Warn("Reply dropped", "recipient", to, "error", err)
	}
}

// toDomainMessage maps an inbound Telegram message to a relayable payload.
// Media is forwarded by file id; the largest photo size is kept.
func toDomainMessage(msg *tgbotapi.Message) (domain.Message, bool) {
	switch {
	case msg.Text != "":
		return domain.Message{Text: "💬 " + msg.Text}, true
	case len(msg.Photo) > 0:
		return mediaMessage(domain.MediaPhoto, msg.Photo[len(msg.Photo)-1].FileID), true
	case msg.Animation != nil:
		return mediaMessage(domain.MediaAnimation, msg.Animation.FileID), true
	case msg.Document != nil:
		return mediaMessage(domain.MediaDocument, msg.Document.FileID), true
	case msg.Voice != nil:
		return mediaMessage(domain.MediaVoice, msg.Voice.FileID), true
	case msg.Video != nil:
		return mediaMessage(domain.MediaVideo, msg.Video.FileID), true
	case msg.Sticker != nil:
		return mediaMessage(domain.MediaSticker, msg.Sticker.FileID), true
	default:
		return domain.Message{}, false
	}
}

func mediaMessage(kind domain.MediaKind, fileID string) domain.Message {
	return domain.Message{Media: &domain.Media{Kind: kind, FileID: fileID}}
}
