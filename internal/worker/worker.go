// Package worker implements the notification pass: match finished
// events against watch lists and send result cards, deduplicated
// through the notified markers.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tennis_bot/internal/bot"
	"tennis_bot/internal/model"
	"tennis_bot/internal/names"
	"tennis_bot/internal/sofascore"
	"tennis_bot/internal/storage"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// Worker runs one notification pass per invocation. It is triggered
// on an external schedule; re-invocation is the only retry mechanism,
// so every step is idempotent.
type Worker struct {
	store     storage.Storage
	client    *sofascore.Client
	sender    Sender
	defaultTZ string
	log       *slog.Logger
	now       func() time.Time
}

// New creates a Worker.
func New(store storage.Storage, client *sofascore.Client, sender Sender, defaultTZ string, log *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		client:    client,
		sender:    sender,
		defaultTZ: defaultTZ,
		log:       log,
		now:       time.Now,
	}
}

// RunOnce refreshes the events cache and notifies every chat about
// finished matches of watched players. Failures for one chat or one
// event are logged and skipped; the entry stays un-notified for the
// next run.
func (w *Worker) RunOnce(ctx context.Context) error {
	w.refreshCache(ctx)

	chatIDs, err := w.store.ListChatIDs(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	// Distinct chat-local days share one schedule fetch.
	schedules := make(map[string][]*sofascore.Event)
	failed := make(map[string]bool)

	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		day := w.todayFor(ctx, chatID)

		watches, err := w.store.ListWatches(ctx, chatID, day)
		if err != nil {
			w.log.Error("list watches", "chat_id", chatID, "error", err)
			continue
		}
		if len(watches) == 0 {
			continue
		}

		events, ok := schedules[day]
		if !ok && !failed[day] {
			events, err = w.client.FetchSchedule(ctx, day)
			if err != nil {
				// A failed fetch is not an empty day: skip without
				// marking anything so the next run retries.
				w.log.Warn("fetch schedule", "day", day, "error", err)
				failed[day] = true
			} else {
				schedules[day] = events
			}
		}
		if failed[day] {
			continue
		}

		w.notifyChat(ctx, chatID, day, watches, events)
	}
	return nil
}

// refreshCache stores today's schedule (default timezone) so the
// webhook menus work even when the webhook host itself is blocked
// upstream.
func (w *Worker) refreshCache(ctx context.Context) {
	loc, err := time.LoadLocation(w.defaultTZ)
	if err != nil {
		loc = time.UTC
	}
	day := model.DayFor(w.now(), loc)

	events, err := w.client.FetchSchedule(ctx, day)
	if err != nil {
		w.log.Warn("cache refresh fetch", "day", day, "error", err)
		return
	}
	if len(events) == 0 {
		return
	}
	payload, err := sofascore.EncodeEvents(events)
	if err != nil {
		w.log.Error("encode events", "day", day, "error", err)
		return
	}
	if err := w.store.SetEventsCache(ctx, day, payload); err != nil {
		w.log.Error("set events cache", "day", day, "error", err)
		return
	}
	w.log.Info("events cache refreshed", "day", day, "events", len(events))
}

func (w *Worker) notifyChat(ctx context.Context, chatID int64, day string, watches []model.WatchEntry, events []*sofascore.Event) {
	for _, ev := range events {
		if !ev.Finished() {
			continue
		}
		eventID := ev.EventID()
		if eventID == "" {
			continue
		}
		if !w.matchesAny(ctx, watches, ev.Players()) {
			continue
		}

		notified, err := w.store.WasNotified(ctx, chatID, sofascore.Provider, eventID, day)
		if err != nil {
			w.log.Error("check notified", "chat_id", chatID, "event_id", eventID, "error", err)
			continue
		}
		if notified {
			continue
		}

		result, err := w.client.FetchStatistics(ctx, ev)
		if err != nil {
			w.log.Error("fetch statistics", "event_id", eventID, "error", err)
			continue
		}

		w.sender.SendMessage(chatID, bot.RenderResultCard(result))
		if err := w.store.MarkNotified(ctx, chatID, sofascore.Provider, eventID, day); err != nil {
			w.log.Error("mark notified", "chat_id", chatID, "event_id", eventID, "error", err)
		}
		w.log.Info("notified", "chat_id", chatID, "event_id", eventID)
	}
}

// matchesAny pairs watch labels with participant names. Labels are
// often localized, so each label also matches through its reverse
// alias (the canonical English name).
func (w *Worker) matchesAny(ctx context.Context, watches []model.WatchEntry, players []string) bool {
	for _, entry := range watches {
		keys := []string{entry.Label}
		if nameEN, found, err := w.store.FindAliasEnglish(ctx, entry.Label); err == nil && found {
			keys = append(keys, nameEN)
		}
		for _, key := range keys {
			for _, player := range players {
				if names.Matches(key, player) {
					return true
				}
			}
		}
	}
	return false
}

func (w *Worker) todayFor(ctx context.Context, chatID int64) string {
	tz, err := w.store.GetTimezone(ctx, chatID, w.defaultTZ)
	if err != nil {
		tz = w.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, _ = time.LoadLocation(w.defaultTZ)
		if loc == nil {
			loc = time.UTC
		}
	}
	return model.DayFor(w.now(), loc)
}
