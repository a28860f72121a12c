package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clipstory/clipstory/internal/logging"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	base := t.TempDir()
	return New(filepath.Join(base, "uploads"), filepath.Join(base, "processed"), logging.Discard())
}

func TestEnsureDirectories_Idempotent(t *testing.T) {
	ws := newTestWorkspace(t)

	for i := 0; i < 2; i++ {
		if err := ws.EnsureDirectories(); err != nil {
			t.Fatalf("EnsureDirectories() call %d error = %v", i+1, err)
		}
	}
	for _, dir := range []string{ws.UploadDir(), ws.OutputDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
}

func TestBuildOutputName_Format(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.now = func() time.Time { return time.UnixMilli(1700000000000) }

	got := ws.BuildOutputName("holiday clip.mp4")
	if got != "processed-1700000000000-holiday clip.mp4" {
		t.Fatalf("BuildOutputName = %q", got)
	}
}

func TestBuildOutputName_StrictlyIncreasingWhenClockStalls(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.now = func() time.Time { return time.UnixMilli(1000) }

	first := ws.BuildOutputName("a.mp4")
	second := ws.BuildOutputName("a.mp4")
	if first == second {
		t.Fatalf("expected unique names, both %q", first)
	}
	if second != "processed-1001-a.mp4" {
		t.Fatalf("second name = %q, want processed-1001-a.mp4", second)
	}
}

func TestBuildOutputName_UniqueUnderConcurrency(t *testing.T) {
	ws := newTestWorkspace(t)

	const n = 200
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i] = ws.BuildOutputName("clip.mp4")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, name := range names {
		if seen[name] {
			t.Fatalf("duplicate output name %q", name)
		}
		seen[name] = true
	}
}

func TestBuildOutputName_SanitizesPathElements(t *testing.T) {
	ws := newTestWorkspace(t)

	tests := []struct {
		in       string
		wantTail string
	}{
		{"../../etc/passwd", "-passwd"},
		{"evil\"name\r\n.mp4", "-evil_name.mp4"},
		{"", "-video.mp4"},
		{"..", "-video.mp4"},
	}
	for _, tt := range tests {
		got := ws.BuildOutputName(tt.in)
		if !strings.HasPrefix(got, "processed-") || !strings.HasSuffix(got, tt.wantTail) {
			t.Errorf("BuildOutputName(%q) = %q, want suffix %q", tt.in, got, tt.wantTail)
		}
		if strings.ContainsAny(got, "/\\\"") {
			t.Errorf("BuildOutputName(%q) = %q contains unsafe characters", tt.in, got)
		}
	}
}

func TestStageUpload_KeepsExtension(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	path, n, err := ws.StageUpload(strings.NewReader("video-bytes"), "clip.MOV")
	if err != nil {
		t.Fatalf("StageUpload() error = %v", err)
	}
	if n != int64(len("video-bytes")) {
		t.Errorf("bytes written = %d, want %d", n, len("video-bytes"))
	}
	if filepath.Dir(path) != ws.UploadDir() {
		t.Errorf("staged in %s, want %s", filepath.Dir(path), ws.UploadDir())
	}
	if filepath.Ext(path) != ".MOV" {
		t.Errorf("staged extension = %q, want .MOV", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("staged content = %q, err = %v", data, err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStageUpload_RemovesPartialFileOnError(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	if _, _, err := ws.StageUpload(failingReader{}, "clip.mp4"); err == nil {
		t.Fatal("StageUpload() expected error")
	}
	entries, err := os.ReadDir(ws.UploadDir())
	if err != nil {
		t.Fatalf("ReadDir error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no staged files after failure, found %d", len(entries))
	}
}

func TestRelease_ToleratesMissingFiles(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	existing := filepath.Join(ws.OutputDir(), "out.mp4")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ws.Release(existing, filepath.Join(ws.UploadDir(), "never-existed.mp4"), "")

	if _, err := os.Stat(existing); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err = %v", existing, err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"control characters dropped", " clip\n\x00name.mp4 ", 0, "clipname.mp4"},
		{"separators replaced", `../a/b\c.mp4`, 0, ".._a_b_c.mp4"},
		{"quotes replaced", `say "hi".mov`, 0, "say _hi_.mov"},
		{"unicode letters kept", "été 2024 (final).mp4", 0, "été 2024 (final).mp4"},
		{"capped in runes", "ééééé.mp4", 3, "ééé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
