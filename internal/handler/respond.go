package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mlaurel/hearthledger/internal/apperrors"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError maps a domain error to its HTTP status. Unknown errors are
// logged with their cause and reported generically.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status >= 500 {
		logger.Error("request failed", "error", err)
		message = "internal error"
		if apperrors.Is(err, apperrors.CodeStoreUnavailable) {
			message = "operation failed, please retry"
		}
	}
	respondJSON(w, status, map[string]any{
		"error": message,
		"code":  apperrors.CodeOf(err),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid request body")
	}
	return nil
}
