package core

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"siteinspector.com/console/internal/backend"
)

type StatsBackend interface {
	ListMedia(ctx context.Context, token string, projectID int64) ([]backend.MediaItem, error)
	ListDocuments(ctx context.Context, token string, projectID int64) ([]backend.Document, error)
	ListMessages(ctx context.Context, token string, projectID int64) ([]backend.ChatMessage, error)
	ListReports(ctx context.Context, token string, projectID int64) ([]backend.Report, error)
}

// Count is one figure of the overview; Err is set when it could not be fetched.
type Count struct {
	N   int
	Err error
}

func (c Count) Available() bool { return c.Err == nil }

type ProjectStats struct {
	Media     Count
	Documents Count
	Messages  Count
	Reports   Count
}

// Unauthorized reports whether any figure failed because the token was rejected.
func (s ProjectStats) Unauthorized() bool {
	for _, c := range []Count{s.Media, s.Documents, s.Messages, s.Reports} {
		if errors.Is(c.Err, backend.ErrUnauthorized) {
			return true
		}
	}
	return false
}

// CollectStats fetches the four project lists concurrently. A failing list
// only marks its own figure unavailable.
func CollectStats(ctx context.Context, b StatsBackend, token string, projectID int64) ProjectStats {
	var stats ProjectStats
	var g errgroup.Group

	g.Go(func() error {
		items, err := b.ListMedia(ctx, token, projectID)
		stats.Media = Count{N: len(items), Err: err}
		return nil
	})
	g.Go(func() error {
		docs, err := b.ListDocuments(ctx, token, projectID)
		stats.Documents = Count{N: len(docs), Err: err}
		return nil
	})
	g.Go(func() error {
		msgs, err := b.ListMessages(ctx, token, projectID)
		stats.Messages = Count{N: len(msgs), Err: err}
		return nil
	})
	g.Go(func() error {
		reports, err := b.ListReports(ctx, token, projectID)
		stats.Reports = Count{N: len(reports), Err: err}
		return nil
	})
	_ = g.Wait()
	return stats
}
