package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridclash/gridclash-server/internal/game"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine errors onto HTTP status codes and writes a JSON
// body. Unclassified errors are logged and reported as 500 without leaking
// internals.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, game.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrIllegalMove):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrConflict):
		status = http.StatusConflict
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
