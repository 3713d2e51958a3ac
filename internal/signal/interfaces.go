package signal

import (
	"context"
	"time"
)

// SourceStore reads source configuration and writes per-source health fields.
type SourceStore interface {
	ListActiveSources(ctx context.Context) ([]Source, error)
	MarkSourceSuccess(ctx context.Context, sourceID int64, at time.Time) error
	MarkSourceFailure(ctx context.Context, sourceID int64, errText string) error
}

// SignalStore is the persistence boundary for extracted signals. It is the
// sole deduplication point: InsertIfAbsent is a no-op for a fingerprint that
// already exists.
type SignalStore interface {
	SignalExists(ctx context.Context, fingerprint string) (bool, error)
	InsertSignalIfAbsent(ctx context.Context, sig Signal) (bool, error)
}

// FeedReader pulls and parses syndicated feeds.
type FeedReader interface {
	FeedURL(slug string) (string, bool)
	FetchEpisodes(ctx context.Context, src Source) ([]Episode, error)
	FetchArticles(ctx context.Context, feedURL string) ([]Article, error)
}

// Transcriber converts an episode's audio into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, key string) (string, error)
}

// BodyFetcher retrieves the main text of an article page.
type BodyFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Publisher pushes run summaries to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
