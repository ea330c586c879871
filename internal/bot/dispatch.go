package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// inboundKind tags the parsed update variant.
type inboundKind int

const (
	inboundNone inboundKind = iota
	inboundMenu
	inboundList
	inboundWatch
	inboundRemove
	inboundClear
	inboundSetTZ
	inboundSetAlias
	inboundFormat
	inboundHelp
	inboundUnknownCommand
	inboundText
	inboundCallback
)

// callbackKind tags the button-tap namespace.
type callbackKind int

const (
	cbNone callbackKind = iota
	cbCategory
	cbTournament
	cbFollow
	cbFollowTournament
	cbDelete
	cbNoop
)

// inbound is the tagged union an update is parsed into before
// dispatch. Parsing is pure; all I/O happens in the handlers.
type inbound struct {
	kind   inboundKind
	chatID int64
	args   string

	callbackID string
	callback   callbackKind
	payload    string
}

// parseInbound classifies a Telegram update. ok is false for updates
// the bot has nothing to do with (no chat, no text, no callback).
func parseInbound(upd *tgbotapi.Update) (inbound, bool) {
	if cq := upd.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil {
			return inbound{}, false
		}
		in := inbound{
			kind:       inboundCallback,
			chatID:     cq.Message.Chat.ID,
			callbackID: cq.ID,
		}
		in.callback, in.payload = parseCallbackData(cq.Data)
		return in, true
	}

	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	if msg == nil || msg.Chat == nil {
		return inbound{}, false
	}

	in := inbound{chatID: msg.Chat.ID}
	if !msg.IsCommand() {
		in.kind = inboundText
		in.args = strings.TrimSpace(msg.Text)
		return in, true
	}

	in.args = strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "menu":
		in.kind = inboundMenu
	case "list":
		in.kind = inboundList
	case "watch", "add":
		in.kind = inboundWatch
	case "remove":
		in.kind = inboundRemove
	case "clear":
		in.kind = inboundClear
	case "settz", "tz":
		in.kind = inboundSetTZ
	case "alias":
		in.kind = inboundSetAlias
	case "format":
		in.kind = inboundFormat
	case "help":
		in.kind = inboundHelp
	default:
		in.kind = inboundUnknownCommand
	}
	return in, true
}

func parseCallbackData(data string) (callbackKind, string) {
	action, payload, _ := strings.Cut(data, ":")
	switch action {
	case "cat":
		return cbCategory, payload
	case "tour":
		return cbTournament, payload
	case "follow":
		return cbFollow, payload
	case "followtour":
		return cbFollowTournament, payload
	case "del":
		return cbDelete, payload
	case "noop":
		return cbNoop, ""
	}
	return cbNone, ""
}

// HandleUpdate routes one parsed update. Every branch recovers from
// internal failures by messaging the chat; the webhook caller always
// gets a success acknowledgment regardless.
func (b *Bot) HandleUpdate(ctx context.Context, upd *tgbotapi.Update) {
	in, ok := parseInbound(upd)
	if !ok {
		return
	}

	if err := b.store.EnsureChat(ctx, in.chatID, b.cfg.DefaultTimezone); err != nil {
		b.log.Error("ensure chat", "chat_id", in.chatID, "error", err)
	}

	switch in.kind {
	case inboundMenu:
		b.handleMenu(ctx, in.chatID)
	case inboundList:
		b.handleList(ctx, in.chatID)
	case inboundWatch:
		b.handleWatch(ctx, in.chatID, in.args)
	case inboundRemove:
		b.handleRemove(ctx, in.chatID, in.args)
	case inboundClear:
		b.handleClear(ctx, in.chatID)
	case inboundSetTZ:
		b.handleSetTZ(ctx, in.chatID, in.args)
	case inboundSetAlias:
		b.handleSetAlias(ctx, in.chatID, in.args)
	case inboundFormat:
		b.handleFormat(in.chatID)
	case inboundHelp:
		b.handleHelp(in.chatID)
	case inboundUnknownCommand:
		b.reply(in.chatID, "Unknown command. Use /help for a list of commands.")
	case inboundText:
		b.handleText(ctx, in.chatID, in.args)
	case inboundCallback:
		b.handleCallback(ctx, in)
	}
}
