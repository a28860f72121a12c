package storyboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedScript is returned when model output is not a usable scene list.
var ErrMalformedScript = errors.New("malformed script from language model")

// stripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		inner := strings.TrimSpace(strings.Trim(text, "`"))
		if len(inner) >= 4 && strings.EqualFold(inner[:4], "json") {
			inner = strings.TrimSpace(inner[4:])
		}
		return inner
	}

	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

type rawScene struct {
	Scene     json.RawMessage `json:"scene"`
	Narration json.RawMessage `json:"narration"`
	Keyword   json.RawMessage `json:"keyword"`
}

// ParseScenes decodes model output into scenes. The whole answer is rejected
// if any element is unusable.
func ParseScenes(raw string) ([]Scene, error) {
	text := stripMarkdownFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedScript)
	}

	var items []rawScene
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: %v (text: %s)", ErrMalformedScript, err, preview(text))
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no scenes", ErrMalformedScript)
	}

	scenes := make([]Scene, 0, len(items))
	for i, item := range items {
		pos := i + 1

		narration, err := requiredString(item.Narration)
		if err != nil {
			return nil, fmt.Errorf("%w: scene %d narration %v", ErrMalformedScript, pos, err)
		}
		keyword, err := requiredString(item.Keyword)
		if err != nil {
			return nil, fmt.Errorf("%w: scene %d keyword %v", ErrMalformedScript, pos, err)
		}
		index, err := sceneIndex(item.Scene, pos)
		if err != nil {
			return nil, fmt.Errorf("%w: scene %d index %v", ErrMalformedScript, pos, err)
		}

		scenes = append(scenes, Scene{Index: index, Narration: narration, Keyword: keyword})
	}
	return scenes, nil
}

func requiredString(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", errors.New("is missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("is not a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("is empty")
	}
	return s, nil
}

// sceneIndex accepts a positive whole number; an absent index takes the
// element's position.
func sceneIndex(raw json.RawMessage, pos int) (int, error) {
	if isAbsent(raw) {
		return pos, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errors.New("is not a number")
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errors.New("must be a positive integer")
	}
	return int(f), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
