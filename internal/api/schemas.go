package api

import (
	"encoding/json"

	"github.com/clipstory/clipstory/internal/doctor"
)

type HealthResponse struct {
	Status       string         `json:"status"`
	Version      string         `json:"version"`
	UptimeS      int64          `json:"uptime_s"`
	Dependencies *doctor.Report `json:"dependencies,omitempty"`
}

// IdeaToVideoRequest is the body of POST /idea-to-video. Duration accepts a
// JSON number or a numeric string.
type IdeaToVideoRequest struct {
	Idea        string      `json:"idea"`
	Duration    json.Number `json:"duration"`
	AspectRatio string      `json:"aspectRatio"`
	Style       string      `json:"style"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
