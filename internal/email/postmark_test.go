package email

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUnconfiguredClientSkipsSend(t *testing.T) {
	c := NewClient("", "noreply@example.com", discardLogger())
	if c.Configured() {
		t.Error("client with empty token reports configured")
	}
	if err := c.SendPasswordReset("a@example.com", "http://localhost/reset-password?token=x"); err != nil {
		t.Errorf("unconfigured send should be a logged no-op, got %v", err)
	}
}

func TestSendPasswordReset(t *testing.T) {
	var got postmarkEmail
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("pm-token", "noreply@example.com", discardLogger(),
		WithHTTPClient(srv.Client()), WithAPIURL(srv.URL))

	link := "https://app.example.com/reset-password?token=abc"
	if err := c.SendPasswordReset("a@example.com", link); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotToken != "pm-token" {
		t.Errorf("server token header = %q", gotToken)
	}
	if got.To != "a@example.com" || got.From != "noreply@example.com" {
		t.Errorf("to = %q, from = %q", got.To, got.From)
	}
	if !strings.Contains(got.TextBody, link) {
		t.Errorf("text body missing reset link: %q", got.TextBody)
	}
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("pm-token", "noreply@example.com", discardLogger(),
		WithHTTPClient(srv.Client()), WithAPIURL(srv.URL))

	if err := c.SendPasswordReset("a@example.com", "http://x/reset"); err == nil {
		t.Error("expected error for non-200 response")
	}
}
