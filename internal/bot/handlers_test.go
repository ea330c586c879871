package bot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"tennis_bot/internal/config"
	"tennis_bot/internal/model"
	"tennis_bot/internal/sofascore"
	"tennis_bot/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) Request(_ tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *mockAPI) allTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.Text
	}
	return out
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type mockHTTPClient struct {
	body   string
	status int
	err    error
}

func (m *mockHTTPClient) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// testNow is a fixed instant: 2025-06-14 21:30 UTC, which is already
// 2025-06-15 00:30 in Europe/Helsinki (summer, UTC+3).
var testNow = time.Date(2025, 6, 14, 21, 30, 0, 0, time.UTC)

const testDay = "2025-06-15"

func newTestBot(t *testing.T, transport sofascore.HTTPClient) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()

	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if transport == nil {
		transport = &mockHTTPClient{status: 403, body: "forbidden"}
	}

	api := &mockAPI{}
	b := &Bot{
		api:    api,
		store:  store,
		cfg:    &config.Config{DefaultTimezone: "Europe/Helsinki", WebhookSecret: "s3cret"},
		client: sofascore.NewClient(transport),
		log:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		now:    func() time.Time { return testNow },
	}
	return b, api, store
}

func commandUpdate(chatID int64, text string) *tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexAny(text, " \n"); i != -1 {
		cmdLen = i
	}
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func textUpdate(chatID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func callbackUpdate(chatID int64, data string) *tgbotapi.Update {
	return &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

// --- tests ---

func TestStartWithEmptyCacheFallsBack(t *testing.T) {
	b, api, _ := newTestBot(t, nil)

	b.HandleUpdate(context.Background(), commandUpdate(42, "/start"))

	if got := api.lastText(); !strings.Contains(got, "not ready yet") {
		t.Errorf("expected not-ready fallback, got:\n%s", got)
	}
}

func TestStartWithCachedEventsShowsCategories(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	schedule, err := os.ReadFile("../../testdata/schedule.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := store.SetEventsCache(ctx, testDay, schedule); err != nil {
		t.Fatalf("set events cache: %v", err)
	}

	b.HandleUpdate(ctx, commandUpdate(42, "/start"))

	got := api.lastText()
	if !strings.Contains(got, "Pick a category") {
		t.Errorf("expected category menu, got:\n%s", got)
	}
}

func TestStartLiveFetchWritesCacheOpportunistically(t *testing.T) {
	schedule, err := os.ReadFile("../../testdata/schedule.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	b, api, store := newTestBot(t, &mockHTTPClient{body: string(schedule)})
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/start"))

	if got := api.lastText(); !strings.Contains(got, "Pick a category") {
		t.Errorf("expected category menu, got:\n%s", got)
	}
	if _, found, err := store.GetEventsCache(ctx, testDay); err != nil || !found {
		t.Errorf("expected cache to be filled after live fetch (found=%v, err=%v)", found, err)
	}
}

func TestWatchKnownAliasAddsEntry(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	if err := store.SetAlias(ctx, "Jannik Sinner", "Sinner J."); err != nil {
		t.Fatalf("set alias: %v", err)
	}

	b.HandleUpdate(ctx, commandUpdate(42, "/watch Sinner"))

	if got := api.lastText(); !strings.Contains(got, "Watching 1 player(s)") {
		t.Errorf("unexpected reply: %s", got)
	}

	entries, err := store.ListWatches(ctx, 42, testDay)
	if err != nil {
		t.Fatalf("list watches: %v", err)
	}
	if len(entries) != 1 || entries[0].Label != "Sinner J." {
		t.Errorf("entries = %+v, want one labeled Sinner J.", entries)
	}
}

func TestWatchAliasDialogueScenario(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	// Chat 42 watches "Sinner"; no alias exists for the canonical
	// "Jannik Sinner", so the bot asks and waits.
	b.HandleUpdate(ctx, commandUpdate(42, "/watch Sinner"))
	if got := api.lastText(); !strings.Contains(got, "Jannik Sinner") || !strings.Contains(got, "label") {
		t.Errorf("expected alias prompt mentioning Jannik Sinner, got:\n%s", got)
	}

	// The next plain-text reply becomes the alias and the watch label.
	api.reset()
	b.HandleUpdate(ctx, textUpdate(42, "Yannick S."))
	if got := api.lastText(); !strings.Contains(got, "Jannik Sinner → Yannick S.") {
		t.Errorf("expected save confirmation, got:\n%s", got)
	}

	localized, known, err := store.GetAlias(ctx, "Jannik Sinner")
	if err != nil {
		t.Fatalf("get alias: %v", err)
	}
	if !known || localized != "Yannick S." {
		t.Errorf("alias = (%q, %v), want (Yannick S., true)", localized, known)
	}

	entries, err := store.ListWatches(ctx, 42, testDay)
	if err != nil {
		t.Fatalf("list watches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 watch entry, got %+v", entries)
	}
	got := model.WatchEntry{ChatID: entries[0].ChatID, Day: entries[0].Day, Label: entries[0].Label, Source: entries[0].Source}
	want := model.WatchEntry{ChatID: 42, Day: testDay, Label: "Yannick S.", Source: "sofascore"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("watch entry mismatch (-want +got):\n%s", diff)
	}

	// The dialogue is closed: another plain-text message is ignored.
	api.reset()
	b.HandleUpdate(ctx, textUpdate(42, "random chatter"))
	if got := api.lastText(); got != "" {
		t.Errorf("expected no reply to plain text in normal state, got:\n%s", got)
	}

	// /list shows the localized label.
	b.HandleUpdate(ctx, commandUpdate(42, "/list"))
	if got := api.lastText(); !strings.Contains(got, "Yannick S.") {
		t.Errorf("expected list to show Yannick S., got:\n%s", got)
	}
}

func TestEmptyAliasReplyRepromptsAndStaysAwaiting(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/watch Sinner"))

	api.reset()
	b.HandleUpdate(ctx, textUpdate(42, "   "))
	if got := api.lastText(); !strings.Contains(got, "cannot be empty") {
		t.Errorf("expected re-prompt, got:\n%s", got)
	}

	// Still awaiting: a proper reply now completes the dialogue.
	b.HandleUpdate(ctx, textUpdate(42, "Yannick S."))
	entries, err := store.ListWatches(ctx, 42, testDay)
	if err != nil {
		t.Fatalf("list watches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after recovery, got %d", len(entries))
	}
}

func TestCommandsBypassAliasDialogue(t *testing.T) {
	b, _, store := newTestBot(t, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/watch Sinner"))

	// A command does not consume the pending alias.
	b.HandleUpdate(ctx, commandUpdate(42, "/help"))

	b.HandleUpdate(ctx, textUpdate(42, "Yannick S."))
	if _, known, _ := store.GetAlias(ctx, "Jannik Sinner"); !known {
		t.Error("expected alias dialogue to survive an interleaved command")
	}
}

func TestRemoveReportsNotFound(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/remove Musetti"))
	if got := api.lastText(); !strings.Contains(got, "was not in today's list") {
		t.Errorf("expected benign not-found reply, got:\n%s", got)
	}

	if err := store.AddWatch(ctx, 42, "Musetti", "sofascore", testDay); err != nil {
		t.Fatalf("add watch: %v", err)
	}
	b.HandleUpdate(ctx, commandUpdate(42, "/remove Musetti"))
	if got := api.lastText(); !strings.Contains(got, "Removed: Musetti") {
		t.Errorf("expected removal confirmation, got:\n%s", got)
	}
}

func TestClearReportsCount(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	for _, label := range []string{"A", "B"} {
		if err := store.AddWatch(ctx, 42, label, "sofascore", testDay); err != nil {
			t.Fatalf("add watch: %v", err)
		}
	}

	b.HandleUpdate(ctx, commandUpdate(42, "/clear"))
	if got := api.lastText(); !strings.Contains(got, "(2 entries)") {
		t.Errorf("expected cleared-count reply, got:\n%s", got)
	}
}

func TestSetTZValidation(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/settz Mars/Olympus"))
	if got := api.lastText(); !strings.Contains(got, "Unknown timezone") {
		t.Errorf("expected rejection, got:\n%s", got)
	}
	tz, err := store.GetTimezone(ctx, 42, "Europe/Helsinki")
	if err != nil {
		t.Fatalf("get timezone: %v", err)
	}
	if tz != "Europe/Helsinki" {
		t.Errorf("invalid zone must not change state, tz = %q", tz)
	}

	b.HandleUpdate(ctx, commandUpdate(42, "/settz Europe/Rome"))
	if got := api.lastText(); !strings.Contains(got, "Europe/Rome") {
		t.Errorf("expected confirmation, got:\n%s", got)
	}
	tz, err = store.GetTimezone(ctx, 42, "Europe/Helsinki")
	if err != nil {
		t.Fatalf("get timezone: %v", err)
	}
	if tz != "Europe/Rome" {
		t.Errorf("tz = %q, want Europe/Rome", tz)
	}
}

func TestAliasCommand(t *testing.T) {
	b, _, store := newTestBot(t, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, commandUpdate(42, "/alias Jannik Sinner = Sinner J."))

	localized, known, err := store.GetAlias(ctx, "Jannik Sinner")
	if err != nil {
		t.Fatalf("get alias: %v", err)
	}
	if !known || localized != "Sinner J." {
		t.Errorf("alias = (%q, %v), want (Sinner J., true)", localized, known)
	}
}

func TestCallbackFlowFromCategoryToFollow(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	schedule, err := os.ReadFile("../../testdata/schedule.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := store.SetEventsCache(ctx, testDay, schedule); err != nil {
		t.Fatalf("set events cache: %v", err)
	}
	if err := store.SetAlias(ctx, "Carlos Alcaraz", "Alcaraz C."); err != nil {
		t.Fatalf("set alias: %v", err)
	}

	b.HandleUpdate(ctx, callbackUpdate(42, "cat:ATP"))
	if got := api.lastText(); !strings.Contains(got, "ATP tournaments today") {
		t.Errorf("expected tournament list, got:\n%s", got)
	}

	b.HandleUpdate(ctx, callbackUpdate(42, "tour:100"))
	if got := api.lastText(); !strings.Contains(got, "Jannik Sinner — Carlos Alcaraz") {
		t.Errorf("expected match list, got:\n%s", got)
	}

	b.HandleUpdate(ctx, callbackUpdate(42, "follow:Alcaraz"))
	entries, err := store.ListWatches(ctx, 42, testDay)
	if err != nil {
		t.Fatalf("list watches: %v", err)
	}
	if len(entries) != 1 || entries[0].Label != "Alcaraz C." {
		t.Errorf("entries = %+v, want one labeled Alcaraz C.", entries)
	}
}

func TestFollowTournamentAddsAllPlayers(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	schedule, err := os.ReadFile("../../testdata/schedule.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := store.SetEventsCache(ctx, testDay, schedule); err != nil {
		t.Fatalf("set events cache: %v", err)
	}

	b.HandleUpdate(ctx, callbackUpdate(42, "followtour:100"))
	if got := api.lastText(); !strings.Contains(got, "Added 2 players") {
		t.Errorf("expected bulk-add confirmation, got:\n%s", got)
	}

	entries, err := store.ListWatches(ctx, 42, testDay)
	if err != nil {
		t.Fatalf("list watches: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %+v", entries)
	}
}

func TestDeleteCallback(t *testing.T) {
	b, api, store := newTestBot(t, nil)
	ctx := context.Background()

	if err := store.AddWatch(ctx, 42, "Musetti", "sofascore", testDay); err != nil {
		t.Fatalf("add watch: %v", err)
	}

	b.HandleUpdate(ctx, callbackUpdate(42, "del:Musetti"))
	if got := api.lastText(); !strings.Contains(got, "Removed: Musetti") {
		t.Errorf("expected removal confirmation, got:\n%s", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t, nil)

	b.HandleUpdate(context.Background(), commandUpdate(42, "/bogus"))
	if got := api.lastText(); !strings.Contains(got, "Unknown command") {
		t.Errorf("expected unknown-command reply, got:\n%s", got)
	}
}
