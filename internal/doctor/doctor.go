// Package doctor reports whether the external dependencies the server relies
// on are usable.
package doctor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	defaultCacheTTL = 5 * time.Minute
	probeTimeout    = 10 * time.Second
)

// Report is the result of one probe.
type Report struct {
	FFmpeg   FFmpegStatus `json:"ffmpeg"`
	LLM      CredStatus   `json:"llm"`
	Footage  CredStatus   `json:"footage"`
	Healthy  bool         `json:"healthy"`
	ProbedAt time.Time    `json:"probed_at"`
}

type FFmpegStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

type CredStatus struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

// Prober runs a fresh dependency check.
type Prober interface {
	Probe(ctx context.Context) (*Report, error)
}

// Options describe what to probe.
type Options struct {
	FFmpegPath    string
	LLMProvider   string
	LLMKeySet     bool
	FootageKeySet bool
}

// SystemProber checks the local ffmpeg install and configured credentials.
type SystemProber struct {
	opts   Options
	logger *slog.Logger
}

func NewSystemProber(opts Options, logger *slog.Logger) *SystemProber {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	return &SystemProber{opts: opts, logger: logger}
}

func (p *SystemProber) Probe(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	report := &Report{
		FFmpeg:   probeFFmpeg(ctx, p.opts.FFmpegPath),
		LLM:      CredStatus{Provider: p.opts.LLMProvider, Configured: p.opts.LLMKeySet},
		Footage:  CredStatus{Provider: "pexels", Configured: p.opts.FootageKeySet},
		ProbedAt: time.Now(),
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("probe aborted: %w", err)
	}
	report.Healthy = report.FFmpeg.Available && report.LLM.Configured && report.Footage.Configured

	p.logger.Info("doctor probe complete",
		"ffmpeg", report.FFmpeg.Available,
		"ffmpeg_version", report.FFmpeg.Version,
		"llm", report.LLM.Configured,
		"footage", report.Footage.Configured,
	)
	return report, nil
}

func probeFFmpeg(ctx context.Context, name string) FFmpegStatus {
	path, err := exec.LookPath(name)
	if err != nil {
		return FFmpegStatus{Error: err.Error()}
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-hide_banner", "-version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return FFmpegStatus{Path: path, Error: fmt.Sprintf("%s -version: %v", path, err)}
	}

	line, _, _ := bufio.NewReader(&out).ReadLine()
	return FFmpegStatus{Available: true, Path: path, Version: strings.TrimSpace(string(line))}
}

// CachedDoctor caches probe results with a TTL so health checks stay cheap.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Report
}

func NewCachedDoctor(prober Prober, ttl time.Duration, logger *slog.Logger) *CachedDoctor {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedDoctor{
		prober: prober,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached report if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Report, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		report := d.cached
		d.mu.RUnlock()
		return report, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Refresh forces a new probe. A failed probe falls back to the last report.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	report, err := d.prober.Probe(ctx)
	if err != nil {
		d.logger.Warn("doctor probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale doctor report")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = report
	return report, nil
}
