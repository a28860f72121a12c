package storyboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/clipstory/clipstory/internal/footage"
	"github.com/clipstory/clipstory/internal/llm"
)

// Generator writes scene scripts with a language model.
type Generator struct {
	llm    llm.TextGenerator
	logger *slog.Logger
}

func NewGenerator(gen llm.TextGenerator, logger *slog.Logger) *Generator {
	return &Generator{llm: gen, logger: logger}
}

// Generate issues exactly one model call and parses its answer.
func (g *Generator) Generate(ctx context.Context, req IdeaRequest) ([]Scene, error) {
	want := SceneCount(req.DurationMinutes)

	out, err := g.llm.Generate(ctx, BuildPrompt(req, want))
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	scenes, err := ParseScenes(out)
	if err != nil {
		g.logger.Warn("script rejected", "error", err, "response_chars", len(out))
		return nil, err
	}
	if len(scenes) != want {
		g.logger.Warn("scene count mismatch", "requested", want, "returned", len(scenes))
	}
	return scenes, nil
}

// FootageResolver finds footage for keywords, returning one match per
// keyword in the same order.
type FootageResolver interface {
	ResolveAll(ctx context.Context, keywords []string, orientation string) ([]footage.Match, error)
}

// Service builds complete storyboards.
type Service struct {
	generator *Generator
	footage   FootageResolver
	logger    *slog.Logger
}

func NewService(generator *Generator, resolver FootageResolver, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		footage:   resolver,
		logger:    logger.With("component", "storyboard"),
	}
}

// Build validates req, writes the script and attaches footage to each scene
// in script order. No footage is searched if the script step fails.
func (s *Service) Build(ctx context.Context, req IdeaRequest) ([]Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	scenes, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	orientation := OrientationFor(req.AspectRatio)
	keywords := lo.Map(scenes, func(sc Scene, _ int) string { return sc.Keyword })

	matches, err := s.footage.ResolveAll(ctx, keywords, orientation)
	if err != nil {
		return nil, err
	}
	if len(matches) != len(scenes) {
		return nil, fmt.Errorf("footage resolver returned %d matches for %d scenes", len(matches), len(scenes))
	}

	entries := lo.Map(scenes, func(sc Scene, i int) Entry {
		return Entry{
			Scene:           sc.Index,
			Narration:       sc.Narration,
			Keyword:         sc.Keyword,
			PreviewImageURL: matches[i].PreviewImageURL,
			VideoURL:        matches[i].VideoURL,
		}
	})

	s.logger.Info("storyboard built",
		"scenes", len(entries),
		"orientation", orientation,
		"with_footage", lo.CountBy(entries, func(e Entry) bool { return e.VideoURL != nil }),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return entries, nil
}
