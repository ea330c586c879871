package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookLivenessProbe(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	b, api, _ := newTestBot(t, nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	body := `{"update_id":1,"message":{"chat":{"id":42},"text":"/help","entities":[{"type":"bot_command","offset":0,"length":5}]}}`

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/", strings.NewReader(body))
	req.Header.Set(secretTokenHeader, "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
	if texts := api.allTexts(); len(texts) != 0 {
		t.Errorf("rejected update must not be handled, sent: %v", texts)
	}
}

func TestWebhookAcceptsUpdateWithSecret(t *testing.T) {
	b, api, _ := newTestBot(t, nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	body := `{"update_id":1,"message":{"chat":{"id":42},"text":"/help","entities":[{"type":"bot_command","offset":0,"length":5}]}}`

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/", strings.NewReader(body))
	req.Header.Set(secretTokenHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := api.lastText(); !strings.Contains(got, "Commands:") {
		t.Errorf("expected help reply, got:\n%s", got)
	}
}

func TestWebhookMalformedBodyIsAcknowledged(t *testing.T) {
	b, api, _ := newTestBot(t, nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/", strings.NewReader("{not json"))
	req.Header.Set(secretTokenHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Telegram retries non-200 responses; garbage must not cause that.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if texts := api.allTexts(); len(texts) != 0 {
		t.Errorf("malformed update must be a no-op, sent: %v", texts)
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
