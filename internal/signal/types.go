// Package signal defines core types shared across the gathering pipeline.
package signal

import "time"

// SourceKind classifies how a source's content is reached.
type SourceKind string

// Source kinds persisted in the sources table.
const (
	SourceKindFeed    SourceKind = "feed"
	SourceKindPodcast SourceKind = "podcast"
	SourceKindWebsite SourceKind = "website"
)

// SignalKind classifies the shape of one extracted content unit.
type SignalKind string

// Signal kinds persisted in the signals table.
const (
	SignalKindArticle           SignalKind = "article"
	SignalKindPodcastMetadata   SignalKind = "podcast-metadata"
	SignalKindPodcastTranscript SignalKind = "podcast-transcript"
)

// SourceConfig carries the free-form per-source configuration stored as JSONB.
type SourceConfig struct {
	FeedURL               string   `json:"feed_url,omitempty"`
	TranscriptionKeywords []string `json:"transcription_keywords,omitempty"`
}

// Source is one configured origin polled by the pipeline.
type Source struct {
	ID                       int64
	Name                     string
	Slug                     string
	Kind                     SourceKind
	RequiresAuth             bool
	ExcludedFromScheduledRun bool
	Config                   SourceConfig
	Active                   bool
	LastSuccessAt            *time.Time
	LastError                string
	ConsecutiveFailures      int
}

// Signal is one persisted unit of extracted content.
// Fingerprint is derived from canonical content fields and is the dedup key.
type Signal struct {
	ID          string
	SourceID    int64
	URL         string
	Title       string
	PublishedAt *time.Time
	Kind        SignalKind
	Body        string
	Fingerprint string
	Processed   bool
	CollectedAt time.Time
}

// Episode is one transient podcast-feed item. It is never persisted directly;
// it is mapped into one or two Signals.
type Episode struct {
	URL         string
	Title       string
	Description string
	PublishedAt *time.Time
	AudioURL    string
}

// Article is one transient syndicated-feed item from an article feed.
type Article struct {
	URL         string
	Title       string
	Summary     string
	Body        string
	PublishedAt *time.Time
}

// SourceError records one per-source failure inside a run.
type SourceError struct {
	SourceName string
	Component  string
	Message    string
	OccurredAt time.Time
}

// RunResult aggregates the outcome of one pipeline invocation.
type RunResult struct {
	StartedAt        time.Time
	FinishedAt       time.Time
	SourcesScraped   int
	SignalsCollected int
	Errors           []SourceError
	Excluded         []string
	Unclassified     []string
}
