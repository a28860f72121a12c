package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstory/clipstory/internal/footage"
	"github.com/clipstory/clipstory/internal/logging"
)

func searchFootageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			WriteError(w, http.StatusBadRequest, "query is required", "BAD_REQUEST")
			return
		}
		orientation := footage.OrientationParam(r.URL.Query().Get("orientation"))

		videos, err := cfg.Footage.Search(r.Context(), query, orientation)
		if err != nil {
			var serr *footage.SearchError
			retryable := errors.As(err, &serr) && serr.IsRetryable()
			logging.WithRequestID(cfg.Logger, RequestIDFrom(r.Context())).
				Error("footage search failed", "error", err, "query", query, "retryable", retryable)
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, videos)
	}
}
