// Package transcode cuts a time window out of a media file with ffmpeg in
// stream-copy mode. Nothing is re-encoded, so cuts land on the nearest
// codec boundary rather than an exact frame.
package transcode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidTime  = errors.New("start and end time must be decimal seconds")
	ErrInvalidRange = errors.New("end time must be greater than start time")
)

// TimeRange is a validated [Start, End) window in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// ParseTimeRange parses raw form values. Start must be a finite number >= 0
// and the derived duration a finite number > 0.
func ParseTimeRange(startRaw, endRaw string) (TimeRange, error) {
	start, err := parseSeconds(startRaw)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := parseSeconds(endRaw)
	if err != nil {
		return TimeRange{}, err
	}
	if start < 0 {
		return TimeRange{}, fmt.Errorf("%w: start time cannot be negative", ErrInvalidRange)
	}

	r := TimeRange{Start: start, End: end}
	if d := r.Duration(); !(d > 0) || math.IsInf(d, 0) {
		return TimeRange{}, ErrInvalidRange
	}
	return r, nil
}

func parseSeconds(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidTime
	}
	return v, nil
}

// TranscodeError reports a non-zero ffmpeg exit with the tail of its stderr.
type TranscodeError struct {
	ExitCode   int
	StderrTail string
}

func (e *TranscodeError) Error() string {
	msg := lastLines(e.StderrTail, 3)
	if msg == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, msg)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
