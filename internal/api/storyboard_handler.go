package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstory/clipstory/internal/logging"
	"github.com/clipstory/clipstory/internal/storyboard"
)

const maxIdeaBodyBytes = 1 << 20

func ideaToVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.WithRequestID(cfg.Logger, RequestIDFrom(r.Context()))

		var body IdeaToVideoRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIdeaBodyBytes))
		if err := dec.Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		req, err := body.toIdeaRequest()
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		entries, err := cfg.Storyboard.Build(r.Context(), req)
		if err != nil {
			var verr *storyboard.ValidationError
			if errors.As(err, &verr) {
				WriteError(w, http.StatusBadRequest, verr.Error(), "BAD_REQUEST")
				return
			}
			logger.Error("storyboard failed", "error", err)
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if entries == nil {
			entries = []storyboard.Entry{}
		}

		WriteJSON(w, http.StatusOK, entries)
	}
}

func (b IdeaToVideoRequest) toIdeaRequest() (storyboard.IdeaRequest, error) {
	req := storyboard.IdeaRequest{
		Idea:        b.Idea,
		AspectRatio: b.AspectRatio,
		Style:       b.Style,
	}
	if b.Duration == "" {
		return req, &storyboard.ValidationError{Field: "duration", Message: "is required"}
	}
	minutes, err := b.Duration.Float64()
	if err != nil {
		return req, &storyboard.ValidationError{Field: "duration", Message: "must be a number"}
	}
	req.DurationMinutes = minutes
	return req, req.Validate()
}
