package middleware

import (
	"net/http"

	"github.com/mlaurel/hearthledger/internal/auth"
)

const SessionCookieName = "hearthledger_session"

// RequireAuth validates the session cookie and populates the auth context.
// Requests without a valid session get a 401; the API has no login page to
// redirect to.
func RequireAuth(sessions *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			accountID, err := sessions.AccountByToken(r.Context(), cookie.Value)
			if err != nil || accountID == "" {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				AccountID:    accountID,
				SessionToken: cookie.Value,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
