package transcode

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
	waitDelay      = 2 * time.Second
)

// Transcoder trims media files.
type Transcoder interface {
	// Trim copies duration seconds of inputPath starting at start into
	// outputPath without re-encoding audio or video.
	Trim(ctx context.Context, inputPath, outputPath string, start, duration float64) error
}

// FFmpeg runs the ffmpeg binary. The argument list is compiled with
// ffmpeg-go; the process itself is started here so it can be bound to ctx.
type FFmpeg struct {
	path   string
	logger *slog.Logger
}

func NewFFmpeg(path string, logger *slog.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

func (f *FFmpeg) Trim(ctx context.Context, inputPath, outputPath string, start, duration float64) error {
	args := trimArgs(inputPath, outputPath, start, duration)

	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.WaitDelay = waitDelay

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	f.logger.Debug("executing ffmpeg", "args", args)

	began := time.Now()
	err := cmd.Run()
	elapsed := time.Since(began)

	if err == nil {
		f.logger.Info("ffmpeg trim succeeded", "duration_ms", elapsed.Milliseconds())
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "ffmpeg aborted after %s", elapsed.Round(time.Millisecond))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		terr := &TranscodeError{ExitCode: exitErr.ExitCode(), StderrTail: stderrBuf.String()}
		f.logger.Warn("ffmpeg trim failed",
			"exit_code", terr.ExitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(terr.StderrTail, 512),
		)
		return terr
	}
	return errors.Wrapf(err, "run %s", f.path)
}

// trimArgs seeks on the input (-ss before -i) and limits the output length,
// copying every stream as-is.
func trimArgs(inputPath, outputPath string, start, duration float64) []string {
	return ffmpeg.
		Input(inputPath, ffmpeg.KwArgs{"ss": formatSeconds(start)}).
		Output(outputPath, ffmpeg.KwArgs{
			"t": formatSeconds(duration),
			"c": "copy",
		}).
		OverWriteOutput().
		GetArgs()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := make([]byte, lw.limit)
		copy(tail, b[len(b)-lw.limit:])
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
