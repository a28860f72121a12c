// Package delivery streams produced files back to HTTP clients as downloads.
package delivery

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is returned when the file to deliver does not exist. Nothing
// has been written to the response in that case.
var ErrNotFound = errors.New("file not found")

// Result describes a finished transfer.
type Result struct {
	Size    int64
	Written int64
}

// ServeAttachment writes the file at path as an attachment named
// downloadName. Errors after the status line has been sent (typically a
// client disconnect mid-transfer) are returned with the partial byte count;
// the response cannot be changed at that point.
func ServeAttachment(w http.ResponseWriter, path, downloadName string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(downloadName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", contentDisposition(downloadName))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, file)
	res := Result{Size: size, Written: n}
	if err != nil {
		return res, fmt.Errorf("transfer interrupted after %d of %d bytes: %w", n, size, err)
	}
	return res, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// contentDisposition quotes printable ASCII names directly and falls back to
// RFC 2231 encoding for anything else.
func contentDisposition(name string) string {
	plain := true
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			plain = false
			break
		}
	}
	if plain {
		return `attachment; filename="` + quoteEscaper.Replace(name) + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
