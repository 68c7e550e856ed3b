package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mlaurel/hearthledger/internal/apperrors"
	"github.com/mlaurel/hearthledger/internal/config"
	"github.com/mlaurel/hearthledger/internal/database"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/email"
	"github.com/mlaurel/hearthledger/internal/environment"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupAuth(t *testing.T) (*Service, *testClock) {
	t.Helper()
	svc, clock, _ := setupAuthWithMail(t)
	return svc, clock
}

// setupAuthWithMail wires a capturing Postmark test server so tests can read
// links out of sent mail.
func setupAuthWithMail(t *testing.T) (*Service, *testClock, *sentMail) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sent := &sentMail{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			To       string
			TextBody string
		}
		json.Unmarshal(body, &payload)
		sent.to = payload.To
		sent.textBody = payload.TextBody
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewSQLite(db)
	resolver := environment.NewResolver(&config.Config{Mode: config.ModeLocal})
	mail := email.NewClient("test-token", "noreply@example.com", logger,
		email.WithHTTPClient(srv.Client()), email.WithAPIURL(srv.URL))
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewService(store, resolver, mail, "http://localhost:8080", logger, WithClock(clock.Now))
	return svc, clock, sent
}

type sentMail struct {
	to       string
	textBody string
}

// resetToken extracts the token from the reset link in the captured mail.
func (m *sentMail) resetToken(t *testing.T) string {
	t.Helper()
	const marker = "/reset-password?token="
	i := strings.Index(m.textBody, marker)
	if i < 0 {
		t.Fatalf("no reset link in mail body: %q", m.textBody)
	}
	rest := m.textBody[i+len(marker):]
	if j := strings.IndexAny(rest, " \n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	accountID, err := svc.Register(ctx, "Alice@Example.com", "hunter22secret", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if accountID == "" {
		t.Fatal("empty account id")
	}

	// Email matching is case-insensitive.
	sess, err := svc.Login(ctx, "alice@example.com", "hunter22secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccountID != accountID {
		t.Errorf("session account = %q, want %q", sess.AccountID, accountID)
	}

	got, err := svc.AccountByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("account by token: %v", err)
	}
	if got != accountID {
		t.Errorf("AccountByToken = %q, want %q", got, accountID)
	}
}

func TestRegisterCreatesUserProfile(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	accountID, err := svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	doc, err := svc.store.Get(ctx, "users/"+accountID)
	if err != nil {
		t.Fatalf("get user profile: %v", err)
	}
	if doc == nil {
		t.Fatal("no user profile created alongside the account")
	}
	if doc.Fields["display_name"] != "Alice" {
		t.Errorf("display_name = %v", doc.Fields["display_name"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, "ALICE@example.com", "other22secret", "A")
	if !apperrors.Is(err, apperrors.CodeAuthAccountExists) {
		t.Errorf("expected account-exists error, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := setupAuth(t)

	_, err := svc.Register(context.Background(), "alice@example.com", "short", "Alice")
	if !apperrors.Is(err, apperrors.CodeInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")

	_, err := svc.Login(ctx, "alice@example.com", "wrongpassword")
	if !apperrors.Is(err, apperrors.CodeAuthInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}
}

func TestLoginUnknownAccountSameError(t *testing.T) {
	svc, _ := setupAuth(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "hunter22secret")
	if !apperrors.Is(err, apperrors.CodeAuthInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	sess, _ := svc.Login(ctx, "alice@example.com", "hunter22secret")

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	got, err := svc.AccountByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("account by token: %v", err)
	}
	if got != "" {
		t.Error("session still valid after logout")
	}
}

func TestSessionExpiry(t *testing.T) {
	svc, clock := setupAuth(t)
	ctx := context.Background()

	svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	sess, _ := svc.Login(ctx, "alice@example.com", "hunter22secret")

	clock.now = clock.now.Add(91 * 24 * time.Hour)

	got, err := svc.AccountByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("account by token: %v", err)
	}
	if got != "" {
		t.Error("expired session still resolves to an account")
	}
}

func TestSendPasswordResetUnknownEmail(t *testing.T) {
	svc, _ := setupAuth(t)

	// Unknown emails succeed silently to prevent enumeration.
	if err := svc.SendPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("expected silent success, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, sent := setupAuthWithMail(t)
	ctx := context.Background()

	svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	if err := svc.SendPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if sent.to != "alice@example.com" {
		t.Errorf("mail sent to %q", sent.to)
	}
	token := sent.resetToken(t)

	if err := svc.ResetPassword(ctx, token, "newpassword22"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "hunter22secret"); err == nil {
		t.Error("old password still accepted after reset")
	}
	if _, err := svc.Login(ctx, "alice@example.com", "newpassword22"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Reset tokens are single-use.
	err := svc.ResetPassword(ctx, token, "anotherpassword22")
	if !apperrors.Is(err, apperrors.CodeAuthInvalidCredentials) {
		t.Errorf("expected invalid/expired link error on reuse, got %v", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, clock, sent := setupAuthWithMail(t)
	ctx := context.Background()

	svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	svc.SendPasswordReset(ctx, "alice@example.com")
	token := sent.resetToken(t)

	clock.now = clock.now.Add(2 * time.Hour)

	err := svc.ResetPassword(ctx, token, "newpassword22")
	if !apperrors.Is(err, apperrors.CodeAuthInvalidCredentials) {
		t.Errorf("expected invalid/expired link error, got %v", err)
	}
}
