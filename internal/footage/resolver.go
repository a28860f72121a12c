package footage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const (
	manualSearchLimit = 10
	sceneSearchLimit  = 1
)

// Match is the footage chosen for one keyword. Nil fields mean nothing was
// found.
type Match struct {
	PreviewImageURL *string
	VideoURL        *string
}

// Resolver maps keywords to footage.
type Resolver struct {
	searcher    Searcher
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a resolver. concurrency below 2 resolves keywords one
// at a time.
func NewResolver(searcher Searcher, concurrency int, logger *slog.Logger) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		searcher:    searcher,
		concurrency: concurrency,
		logger:      logger.With("component", "footage"),
	}
}

// OrientationParam maps an aspect ratio to the search orientation filter.
func OrientationParam(aspectRatio string) string {
	if aspectRatio == "9:16" {
		return OrientationPortrait
	}
	return OrientationLandscape
}

// SelectVideoURL returns the first hd link, else the first sd link.
func SelectVideoURL(files []VideoFile) (string, bool) {
	for _, quality := range []string{"hd", "sd"} {
		for _, f := range files {
			if f.Quality == quality && f.Link != "" {
				return f.Link, true
			}
		}
	}
	return "", false
}

// Search returns up to ten raw results for a free-text query.
func (r *Resolver) Search(ctx context.Context, query, orientation string) ([]Video, error) {
	result, err := r.searcher.SearchVideos(ctx, query, orientation, manualSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(result.Videos) > manualSearchLimit {
		return result.Videos[:manualSearchLimit], nil
	}
	if result.Videos == nil {
		return []Video{}, nil
	}
	return result.Videos, nil
}

// Resolve looks up a single keyword.
func (r *Resolver) Resolve(ctx context.Context, keyword, orientation string) (Match, error) {
	result, err := r.searcher.SearchVideos(ctx, keyword, orientation, sceneSearchLimit)
	if err != nil {
		return Match{}, err
	}
	if len(result.Videos) == 0 {
		r.logger.Info("no footage for keyword", "keyword", keyword, "orientation", orientation)
		return Match{}, nil
	}

	video := result.Videos[0]
	var m Match
	if video.Image != "" {
		m.PreviewImageURL = &video.Image
	}
	if link, ok := SelectVideoURL(video.VideoFiles); ok {
		m.VideoURL = &link
	}
	return m, nil
}

// ResolveAll resolves keywords and returns matches in input order. The first
// failing search cancels the remaining ones and fails the whole call.
func (r *Resolver) ResolveAll(ctx context.Context, keywords []string, orientation string) ([]Match, error) {
	matches := make([]Match, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, kw := range keywords {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := r.Resolve(gctx, kw, orientation)
			if err != nil {
				return fmt.Errorf("resolve footage for scene %d (%q): %w", i+1, kw, err)
			}
			matches[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}
