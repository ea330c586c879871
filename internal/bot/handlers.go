package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tennis_bot/internal/model"
	"tennis_bot/internal/names"
	"tennis_bot/internal/sofascore"
)

const notReadyText = "Today's schedule is not ready yet.\n" +
	"The cache usually fills within a couple of minutes.\n\n" +
	"You can add players by hand: /watch Rublev, Musetti\n" +
	"or try /start again a bit later."

// todayFor computes the chat-local calendar date from the chat's
// stored timezone.
func (b *Bot) todayFor(ctx context.Context, chatID int64) string {
	tz, err := b.store.GetTimezone(ctx, chatID, b.cfg.DefaultTimezone)
	if err != nil {
		b.log.Error("get timezone", "chat_id", chatID, "error", err)
		tz = b.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = b.cfg.DefaultLocation()
	}
	return model.DayFor(b.now(), loc)
}

// loadEvents returns today's events for the chat, preferring the
// per-day cache filled by the worker. On cache miss it tries a live
// fetch and writes the cache opportunistically. A nil result means
// the schedule is not available; menu paths show a fallback text.
func (b *Bot) loadEvents(ctx context.Context, chatID int64) []*sofascore.Event {
	day := b.todayFor(ctx, chatID)

	payload, found, err := b.store.GetEventsCache(ctx, day)
	if err != nil {
		b.log.Error("get events cache", "day", day, "error", err)
	}
	if found {
		events, err := sofascore.DecodeEvents(payload)
		if err == nil {
			return events
		}
		b.log.Error("decode events cache", "day", day, "error", err)
	}

	events, err := b.client.FetchSchedule(ctx, day)
	if err != nil {
		b.log.Warn("live schedule fetch failed", "day", day, "error", err)
		return nil
	}
	if len(events) > 0 {
		if payload, err := sofascore.EncodeEvents(events); err == nil {
			if err := b.store.SetEventsCache(ctx, day, payload); err != nil {
				b.log.Error("set events cache", "day", day, "error", err)
			}
		}
	}
	return events
}

func (b *Bot) handleMenu(ctx context.Context, chatID int64) {
	events := b.loadEvents(ctx, chatID)
	if len(events) == 0 {
		b.reply(chatID, notReadyText)
		return
	}

	tournaments := sofascore.GroupTournaments(events)
	if len(tournaments) == 0 {
		b.reply(chatID, "No tournaments today.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, tier := range sofascore.Tiers {
		n := len(sofascore.FilterTier(tournaments, tier))
		if n == 0 {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%d)", tier, n),
				fmt.Sprintf("cat:%s", tier),
			),
		))
	}
	b.replyWithKeyboard(chatID, "Pick a category for today:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	day := b.todayFor(ctx, chatID)
	entries, err := b.store.ListWatches(ctx, chatID, day)
	if err != nil {
		b.log.Error("list watches", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not load your list, try again later.")
		return
	}
	if len(entries) == 0 {
		b.reply(chatID, "Your list for today is empty. Use /start to pick a tournament or /watch to add players.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remove "+e.Label, "del:"+e.Label),
		))
	}
	b.replyWithKeyboard(chatID, FormatWatchList(day, entries), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleWatch adds comma-separated player names for today. Names are
// canonicalized against the nickname table first; a name without a
// localized alias switches the chat into the awaiting-alias state.
func (b *Bot) handleWatch(ctx context.Context, chatID int64, args string) {
	parsed := ParseNames(args)
	if len(parsed) == 0 {
		b.reply(chatID, "Example: /watch De Minaur, Musetti, Rublev")
		return
	}

	day := b.todayFor(ctx, chatID)
	added := 0
	var askFor string
	for _, name := range parsed {
		canonical := names.Canonicalize(name)
		localized, known, err := b.store.GetAlias(ctx, canonical)
		if err != nil {
			b.log.Error("get alias", "name", canonical, "error", err)
			continue
		}
		if !known {
			if askFor == "" {
				askFor = canonical
			}
			continue
		}
		if err := b.store.AddWatch(ctx, chatID, localized, sofascore.Provider, day); err != nil {
			b.log.Error("add watch", "chat_id", chatID, "label", localized, "error", err)
			continue
		}
		added++
	}

	if added > 0 {
		b.reply(chatID, fmt.Sprintf("Watching %d player(s) today. See /list", added))
	}
	if askFor != "" {
		b.askForAlias(ctx, chatID, askFor)
	}
}

// askForAlias arms the pending-alias state and prompts the chat.
func (b *Bot) askForAlias(ctx context.Context, chatID int64, nameEN string) {
	if err := b.store.SetPendingAlias(ctx, chatID, nameEN); err != nil {
		b.log.Error("set pending alias", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("How should I label %s in your list? Reply with the name you want to see.", nameEN))
}

// handleText advances the awaiting-alias dialogue. Chats with no
// pending question are ignored.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	nameEN, found, err := b.store.ConsumePendingAlias(ctx, chatID)
	if err != nil {
		b.log.Error("consume pending alias", "chat_id", chatID, "error", err)
		return
	}
	if !found {
		return
	}

	if text == "" {
		// Re-arm: the consume was destructive but the dialogue stays open.
		if err := b.store.SetPendingAlias(ctx, chatID, nameEN); err != nil {
			b.log.Error("re-arm pending alias", "chat_id", chatID, "error", err)
		}
		b.reply(chatID, fmt.Sprintf("The name cannot be empty. How should I label %s?", nameEN))
		return
	}

	if err := b.store.SetAlias(ctx, nameEN, text); err != nil {
		b.log.Error("set alias", "name", nameEN, "error", err)
		b.reply(chatID, "Could not save the name, try again later.")
		return
	}

	day := b.todayFor(ctx, chatID)
	if err := b.store.AddWatch(ctx, chatID, text, sofascore.Provider, day); err != nil {
		b.log.Error("add watch after alias", "chat_id", chatID, "error", err)
	}
	b.reply(chatID, fmt.Sprintf("Saved: %s → %s. Watching today. See /list", nameEN, text))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Example: /remove Sinner")
		return
	}
	day := b.todayFor(ctx, chatID)
	removed, err := b.store.RemoveWatch(ctx, chatID, args, day)
	if err != nil {
		b.log.Error("remove watch", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not update your list, try again later.")
		return
	}
	if removed {
		b.reply(chatID, "Removed: "+args)
	} else {
		b.reply(chatID, fmt.Sprintf("%s was not in today's list.", args))
	}
}

func (b *Bot) handleClear(ctx context.Context, chatID int64) {
	day := b.todayFor(ctx, chatID)
	n, err := b.store.ClearWatches(ctx, chatID, day)
	if err != nil {
		b.log.Error("clear watches", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not update your list, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Cleared today's list (%d entries).", n))
}

func (b *Bot) handleSetTZ(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Example: /settz Europe/Helsinki")
		return
	}
	if _, err := time.LoadLocation(args); err != nil {
		b.reply(chatID, "Unknown timezone: "+args)
		return
	}
	if err := b.store.SetTimezone(ctx, chatID, args); err != nil {
		b.log.Error("set timezone", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not save the timezone, try again later.")
		return
	}
	b.reply(chatID, "Done! Your timezone is now "+args+".")
}

func (b *Bot) handleSetAlias(ctx context.Context, chatID int64, args string) {
	nameEN, localized, err := ParseAliasArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.store.SetAlias(ctx, nameEN, localized); err != nil {
		b.log.Error("set alias", "name", nameEN, "error", err)
		b.reply(chatID, "Could not save the name, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Saved: %s → %s.", nameEN, localized))
}

func (b *Bot) handleFormat(chatID int64) {
	b.reply(chatID, RenderResultCard(sampleResult()))
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `I watch tennis matches and send a result card when a player you follow finishes.

Commands:
/start or /menu — today's tournaments by category
/watch Name1, Name2 — follow these players today
/list — today's list with remove buttons
/remove Name — drop a player from today's list
/clear — empty today's list
/settz Europe/Helsinki — set your timezone
/alias Jannik Sinner = Sinner J. — set a display name
/format — sample result card

Stats that the source does not publish show as "n/a".`)
}

func (b *Bot) handleCallback(ctx context.Context, in inbound) {
	switch in.callback {
	case cbCategory:
		b.answerCallback(in.callbackID, "")
		b.sendTournamentList(ctx, in.chatID, sofascore.Tier(in.payload))
	case cbTournament:
		b.answerCallback(in.callbackID, "")
		b.sendMatchList(ctx, in.chatID, in.payload)
	case cbFollow:
		b.answerCallback(in.callbackID, "")
		b.followPlayer(ctx, in.chatID, in.payload)
	case cbFollowTournament:
		b.answerCallback(in.callbackID, "Adding the whole tournament.")
		b.followTournament(ctx, in.chatID, in.payload)
	case cbDelete:
		b.answerCallback(in.callbackID, "")
		b.handleRemove(ctx, in.chatID, in.payload)
	case cbNoop, cbNone:
		b.answerCallback(in.callbackID, "")
	}
}

func (b *Bot) sendTournamentList(ctx context.Context, chatID int64, tier sofascore.Tier) {
	events := b.loadEvents(ctx, chatID)
	if len(events) == 0 {
		b.reply(chatID, notReadyText)
		return
	}

	tournaments := sofascore.FilterTier(sofascore.GroupTournaments(events), tier)
	if len(tournaments) == 0 {
		b.reply(chatID, fmt.Sprintf("No %s tournaments today.", tier))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tournaments {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.Name, "tour:"+t.ID),
		))
	}
	b.replyWithKeyboard(chatID, fmt.Sprintf("%s tournaments today:", tier), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendMatchList(ctx context.Context, chatID int64, tournamentID string) {
	events := b.loadEvents(ctx, chatID)
	tournaments := sofascore.GroupTournaments(events)

	var tour *sofascore.Tournament
	for i := range tournaments {
		if tournaments[i].ID == tournamentID {
			tour = &tournaments[i]
			break
		}
	}
	if tour == nil {
		b.reply(chatID, "That tournament is no longer available.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	seen := make(map[string]bool)
	for _, ev := range tour.Events {
		for _, player := range ev.Players() {
			if seen[player] {
				continue
			}
			seen[player] = true
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Follow "+player, "follow:"+player),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Follow ALL matches", "followtour:"+tour.ID),
	))

	b.replyWithKeyboard(chatID, FormatMatchList(tour), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// followPlayer goes through the same alias-resolution path as /watch.
func (b *Bot) followPlayer(ctx context.Context, chatID int64, player string) {
	canonical := names.Canonicalize(player)
	localized, known, err := b.store.GetAlias(ctx, canonical)
	if err != nil {
		b.log.Error("get alias", "name", canonical, "error", err)
		b.reply(chatID, "Something went wrong, try again later.")
		return
	}
	if !known {
		b.askForAlias(ctx, chatID, canonical)
		return
	}

	day := b.todayFor(ctx, chatID)
	if err := b.store.AddWatch(ctx, chatID, localized, sofascore.Provider, day); err != nil {
		b.log.Error("add watch", "chat_id", chatID, "label", localized, "error", err)
		b.reply(chatID, "Could not update your list, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Watching %s today. See /list", localized))
}

// followTournament adds every participant of the tournament by
// display name, skipping the alias dialogue.
func (b *Bot) followTournament(ctx context.Context, chatID int64, tournamentID string) {
	events := b.loadEvents(ctx, chatID)
	tournaments := sofascore.GroupTournaments(events)

	var tour *sofascore.Tournament
	for i := range tournaments {
		if tournaments[i].ID == tournamentID {
			tour = &tournaments[i]
			break
		}
	}
	if tour == nil {
		b.reply(chatID, "That tournament is no longer available.")
		return
	}

	day := b.todayFor(ctx, chatID)
	added := 0
	seen := make(map[string]bool)
	for _, ev := range tour.Events {
		for _, player := range ev.Players() {
			if seen[player] {
				continue
			}
			seen[player] = true
			if err := b.store.AddWatch(ctx, chatID, player, sofascore.Provider, day); err != nil {
				b.log.Error("add watch", "chat_id", chatID, "label", player, "error", err)
				continue
			}
			added++
		}
	}
	b.reply(chatID, fmt.Sprintf("Added %d players from %s. See /list", added, tour.Name))
}

func sampleResult() *model.MatchResult {
	iv := func(n int) *int { return &n }
	return &model.MatchResult{
		EventID:   "123",
		HomeName:  "Lorenzo Musetti",
		AwayName:  "Alex de Minaur",
		ScoreSets: []string{"7:5", "3:6", "7:5"},
		Duration:  "2:48",
		HomeStats: model.PlayerStats{
			Aces: iv(5), DoubleFaults: iv(3),
			FirstServeInPct: iv(66), FirstServePointsWonPct: iv(63), SecondServePointsWonPct: iv(74),
			Winners: iv(22), UnforcedErrors: iv(28),
			BreakPointsSaved: iv(3), BreakPointsFaced: iv(5), MatchPointsSaved: iv(0),
		},
		AwayStats: model.PlayerStats{
			Aces: iv(10), DoubleFaults: iv(0),
			FirstServeInPct: iv(66), FirstServePointsWonPct: iv(66), SecondServePointsWonPct: iv(59),
			Winners: iv(34), UnforcedErrors: iv(44),
			BreakPointsSaved: iv(9), BreakPointsFaced: iv(12), MatchPointsSaved: iv(1),
		},
	}
}
