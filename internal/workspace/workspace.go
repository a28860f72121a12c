// Package workspace manages the two on-disk working directories shared by
// every request: staged uploads and processed outputs. Requests never lock
// them; isolation comes from unique file names.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	outputPrefix = "processed-"
	maxNameRunes = 120
	fallbackName = "video.mp4"
)

type Workspace struct {
	uploadDir string
	outputDir string
	logger    *slog.Logger

	mu     sync.Mutex
	lastTS int64
	now    func() time.Time
}

func New(uploadDir, outputDir string, logger *slog.Logger) *Workspace {
	return &Workspace{
		uploadDir: uploadDir,
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *Workspace) UploadDir() string { return w.uploadDir }
func (w *Workspace) OutputDir() string { return w.outputDir }

// EnsureDirectories creates the upload and output directories if absent.
func (w *Workspace) EnsureDirectories() error {
	for _, dir := range []string{w.uploadDir, w.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// BuildOutputName returns "processed-<ms>-<name>". The millisecond stamp is
// strictly increasing within the process even when the clock stalls or steps
// backwards, so two calls never yield the same name.
func (w *Workspace) BuildOutputName(originalName string) string {
	name := SanitizeName(filepath.Base(originalName), maxNameRunes)
	if strings.Trim(name, ".") == "" {
		name = fallbackName
	}
	return outputPrefix + strconv.FormatInt(w.nextTimestamp(), 10) + "-" + name
}

func (w *Workspace) nextTimestamp() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ts := w.now().UnixMilli()
	if ts <= w.lastTS {
		ts = w.lastTS + 1
	}
	w.lastTS = ts
	return ts
}

// OutputPath joins a generated output name under the output directory.
func (w *Workspace) OutputPath(name string) string {
	return filepath.Join(w.outputDir, name)
}

// StageUpload copies an uploaded stream into the upload directory under a
// random name that keeps the original extension. It returns the staged path
// and the number of bytes written.
func (w *Workspace) StageUpload(r io.Reader, originalName string) (string, int64, error) {
	ext := SanitizeName(filepath.Ext(originalName), 16)
	path := filepath.Join(w.uploadDir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staged upload: %w", err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		w.Release(path)
		if copyErr != nil {
			return "", n, fmt.Errorf("failed to stage upload: %w", copyErr)
		}
		return "", n, fmt.Errorf("failed to close staged upload: %w", closeErr)
	}
	return path, n, nil
}

// Release deletes each path. Already-missing files are ignored; any other
// failure is logged and swallowed because the response has usually been
// committed by the time cleanup runs.
func (w *Workspace) Release(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			w.logger.Warn("failed to remove temporary file", "path", filepath.Base(p), "error", err)
			continue
		}
		w.logger.Debug("removed temporary file", "path", filepath.Base(p))
	}
}
