package bot

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler returns the webhook HTTP handler.
//
// GET / answers a liveness probe. POST / takes a Telegram update:
// when a webhook secret is configured the request must carry it, else
// 403. Once past the secret check the response is always 200 with
// {"ok":true} — a malformed body is a no-op update, and internal
// handler failures must not trigger Telegram's retry backoff.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeOK(w)
		case http.MethodPost:
			b.serveUpdate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func (b *Bot) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if b.cfg.WebhookSecret != "" && r.Header.Get(secretTokenHeader) != b.cfg.WebhookSecret {
		http.Error(w, "invalid secret token", http.StatusForbidden)
		return
	}

	var upd tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		b.log.Warn("malformed update body", "error", err)
		writeOK(w)
		return
	}

	b.HandleUpdate(r.Context(), &upd)
	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}
