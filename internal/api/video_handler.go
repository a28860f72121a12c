package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clipstory/clipstory/internal/delivery"
	"github.com/clipstory/clipstory/internal/logging"
	"github.com/clipstory/clipstory/internal/transcode"
)

const (
	multipartMemory    = 32 << 20
	defaultTrimTimeout = 10 * time.Minute
)

// processVideoHandler trims an uploaded clip and returns it as a download.
// Errors are plain text since the caller is a file download, not a JSON
// client.
func processVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.WithRequestID(cfg.Logger, RequestIDFrom(r.Context()))

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, fmt.Sprintf("upload exceeds the %s limit", logging.Bytes(tooLarge.Limit)), http.StatusBadRequest)
				return
			}
			http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, "no video file uploaded", http.StatusBadRequest)
			return
		}
		defer file.Close()

		window, err := transcode.ParseTimeRange(r.FormValue("startTime"), r.FormValue("endTime"))
		if err != nil {
			http.Error(w, "invalid start or end time: "+err.Error(), http.StatusBadRequest)
			return
		}

		uploadPath, size, err := cfg.Workspace.StageUpload(file, header.Filename)
		if err != nil {
			logger.Error("failed to stage upload", "error", err)
			http.Error(w, "failed to store upload", http.StatusInternalServerError)
			return
		}

		outputName := cfg.Workspace.BuildOutputName(header.Filename)
		outputPath := cfg.Workspace.OutputPath(outputName)

		logger.Info("trim started",
			"file", header.Filename,
			"size", logging.Bytes(size),
			"start", window.Start,
			"duration", window.Duration(),
		)

		timeout := cfg.TrimTimeout
		if timeout <= 0 {
			timeout = defaultTrimTimeout
		}
		// A client disconnect must not kill ffmpeg; only the timeout does.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
		defer cancel()

		if err := cfg.Transcoder.Trim(ctx, uploadPath, outputPath, window.Start, window.Duration()); err != nil {
			cfg.Workspace.Release(uploadPath, outputPath)
			logger.Error("trim failed", "error", err)
			http.Error(w, "failed to process video: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer cfg.Workspace.Release(uploadPath, outputPath)

		res, err := delivery.ServeAttachment(w, outputPath, outputName)
		switch {
		case errors.Is(err, delivery.ErrNotFound):
			logger.Error("trim produced no output", "output", outputName)
			http.Error(w, "failed to process video: no output produced", http.StatusInternalServerError)
		case err != nil:
			logger.Warn("download interrupted", "error", err, "output", outputName)
		default:
			logger.Info("trim delivered", "output", outputName, "size", logging.Bytes(res.Written))
		}
	}
}
