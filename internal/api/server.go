package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipstory/clipstory/internal/doctor"
	"github.com/clipstory/clipstory/internal/footage"
	"github.com/clipstory/clipstory/internal/storyboard"
	"github.com/clipstory/clipstory/internal/transcode"
	"github.com/clipstory/clipstory/internal/workspace"
)

// StoryboardBuilder produces a storyboard for an idea.
type StoryboardBuilder interface {
	Build(ctx context.Context, req storyboard.IdeaRequest) ([]storyboard.Entry, error)
}

// FootageSearcher runs manual footage searches.
type FootageSearcher interface {
	Search(ctx context.Context, query, orientation string) ([]footage.Video, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Addr           string
	Workspace      *workspace.Workspace
	Transcoder     transcode.Transcoder
	Storyboard     StoryboardBuilder
	Footage        FootageSearcher
	Doctor         *doctor.CachedDoctor
	Logger         *slog.Logger
	MaxUploadBytes int64
	TrimTimeout    time.Duration
	AllowedOrigins []string
	StartTime      time.Time
	Version        string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
			// Uploads and downloads can be large; no body read/write deadline.
			ReadTimeout:  0,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
