// Package storyboard turns a free-text idea into an ordered list of scenes,
// each paired with stock footage.
package storyboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/clipstory/clipstory/internal/footage"
)

const (
	minScenes       = 3
	maxScenes       = 8
	minutesPerScene = 5
)

// IdeaRequest is the user input for a storyboard.
type IdeaRequest struct {
	Idea            string
	DurationMinutes float64
	AspectRatio     string
	Style           string
}

// ValidationError reports a missing or unusable request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every field is present and the duration is positive.
func (r IdeaRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Idea) == "":
		return &ValidationError{Field: "idea", Message: "is required"}
	case math.IsNaN(r.DurationMinutes) || math.IsInf(r.DurationMinutes, 0) || r.DurationMinutes <= 0:
		return &ValidationError{Field: "duration", Message: "must be a positive number of minutes"}
	case strings.TrimSpace(r.AspectRatio) == "":
		return &ValidationError{Field: "aspectRatio", Message: "is required"}
	case strings.TrimSpace(r.Style) == "":
		return &ValidationError{Field: "style", Message: "is required"}
	}
	return nil
}

// Scene is one generated script beat.
type Scene struct {
	Index     int    `json:"scene"`
	Narration string `json:"narration"`
	Keyword   string `json:"keyword"`
}

// Entry is a scene with its footage. Missing footage serializes as null.
type Entry struct {
	Scene           int     `json:"scene"`
	Narration       string  `json:"narration"`
	Keyword         string  `json:"keyword"`
	PreviewImageURL *string `json:"previewImageUrl"`
	VideoURL        *string `json:"videoUrl"`
}

// SceneCount is one scene per five minutes, never fewer than 3 or more than 8.
func SceneCount(durationMinutes float64) int {
	n := math.Ceil(durationMinutes / minutesPerScene)
	if n >= maxScenes {
		return maxScenes
	}
	return lo.Clamp(int(n), minScenes, maxScenes)
}

// OrientationFor maps an aspect ratio to the footage orientation filter.
func OrientationFor(aspectRatio string) string {
	return footage.OrientationParam(aspectRatio)
}

// BuildPrompt renders the script-generation instruction.
func BuildPrompt(req IdeaRequest, sceneCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a scriptwriter for short videos. Write a storyboard for the idea below as exactly %d scenes.\n\n", sceneCount)
	fmt.Fprintf(&b, "Idea: %s\n", strings.TrimSpace(req.Idea))
	fmt.Fprintf(&b, "Target length: %s minutes\n", formatMinutes(req.DurationMinutes))
	fmt.Fprintf(&b, "Aspect ratio: %s\n", strings.TrimSpace(req.AspectRatio))
	fmt.Fprintf(&b, "Narration style: %s\n\n", strings.TrimSpace(req.Style))
	b.WriteString("For every scene write a short narration in the requested style, in the same language as the idea, ")
	b.WriteString("and one short English search keyword (one to three words) describing stock footage that fits the scene.\n\n")
	fmt.Fprintf(&b, "Respond with a strict JSON array of %d objects and nothing else: no markdown, no code fences, no commentary.\n", sceneCount)
	b.WriteString(`Each object must have exactly these fields: {"scene": <number starting at 1>, "narration": "<text>", "keyword": "<english keyword>"}`)
	return b.String()
}

func formatMinutes(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
