package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlaurel/hearthledger/internal/auth"
	"github.com/mlaurel/hearthledger/internal/config"
	"github.com/mlaurel/hearthledger/internal/database"
	"github.com/mlaurel/hearthledger/internal/docstore"
	"github.com/mlaurel/hearthledger/internal/email"
	"github.com/mlaurel/hearthledger/internal/environment"
)

func setupAuthService(t *testing.T) *auth.Service {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewSQLite(db)
	resolver := environment.NewResolver(&config.Config{Mode: config.ModeLocal})
	mail := email.NewClient("", "noreply@example.com", logger)
	return auth.NewService(store, resolver, mail, "http://localhost:8080", logger)
}

func TestRequireAuthNoCookie(t *testing.T) {
	svc := setupAuthService(t)
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/families", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	svc := setupAuthService(t)
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bogus session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/families", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	accountID, err := svc.Register(ctx, "alice@example.com", "hunter22secret", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	sess, err := svc.Login(ctx, "alice@example.com", "hunter22secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var gotAccount string
	handler := RequireAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = auth.AccountID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/families", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotAccount != accountID {
		t.Errorf("account in context = %q, want %q", gotAccount, accountID)
	}
}
