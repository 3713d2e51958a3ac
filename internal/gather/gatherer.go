// Package gather implements the signal-gathering pipeline orchestrator.
package gather

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/classify"
	"github.com/oculusre/signalharvest/internal/feed"
	"github.com/oculusre/signalharvest/internal/fingerprint"
	"github.com/oculusre/signalharvest/internal/metrics"
	"github.com/oculusre/signalharvest/internal/scraper"
	"github.com/oculusre/signalharvest/internal/signal"
	"github.com/oculusre/signalharvest/internal/transcribe"
)

// Session is one live rendering-engine session, exclusively owned by the
// orchestrator for the duration of one source's processing window.
type Session interface {
	NewPage(slug string) (scraper.Page, error)
	Close()
}

// SessionFactory launches a fresh session for one browser-lane source.
type SessionFactory func(ctx context.Context) (Session, error)

// Lane names used in logs, metrics, and error records.
const (
	laneFeedDirect           = "feed_direct"
	laneWebsiteWithFeed      = "website_with_feed"
	laneWebsiteAuthBrowser   = "website_auth_browser"
	laneWebsiteNoFeedBrowser = "website_no_feed_browser"
)

// Config tunes one run of the pipeline.
type Config struct {
	// MaxEpisodeAge bounds the podcast recency filter. Zero disables it.
	MaxEpisodeAge time.Duration
	// SessionPause is the cooperative pause after each browser session is
	// torn down, letting the runtime reclaim memory before the next
	// allocation spike. A tunable, not a correctness requirement.
	SessionPause time.Duration
	// BriefingTopic names the topic for the end-of-run summary. Empty
	// disables publishing.
	BriefingTopic string
}

// Deps wires the collaborators into the orchestrator.
type Deps struct {
	Sources     signal.SourceStore
	Signals     signal.SignalStore
	Feeds       signal.FeedReader
	Transcriber signal.Transcriber
	Pages       signal.BodyFetcher
	Scrapers    *scraper.Registry
	NewSession  SessionFactory
	Publisher   signal.Publisher
	Clock       signal.Clock
}

// Gatherer drives the four lanes in sequence and aggregates a run summary.
type Gatherer struct {
	sources     signal.SourceStore
	signals     signal.SignalStore
	feeds       signal.FeedReader
	transcriber signal.Transcriber
	pages       signal.BodyFetcher
	scrapers    *scraper.Registry
	newSession  SessionFactory
	publisher   signal.Publisher
	clock       signal.Clock
	cfg         Config
	logger      *zap.Logger
}

// New constructs a Gatherer.
func New(deps Deps, cfg Config, logger *zap.Logger) *Gatherer {
	if logger == nil {
		logger = zap.NewNop()
	}
	scrapers := deps.Scrapers
	if scrapers == nil {
		scrapers = scraper.NewRegistry()
	}
	return &Gatherer{
		sources:     deps.Sources,
		signals:     deps.Signals,
		feeds:       deps.Feeds,
		transcriber: deps.Transcriber,
		pages:       deps.Pages,
		scrapers:    scrapers,
		newSession:  deps.NewSession,
		publisher:   deps.Publisher,
		clock:       deps.Clock,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes one batch pass over all active sources. Cheap, reliable lanes
// run first so a catastrophic failure in the browser lanes still leaves the
// bulk of signal collection intact. Only a failure to load the source
// configuration aborts the run.
func (g *Gatherer) Run(ctx context.Context) (signal.RunResult, error) {
	res := signal.RunResult{StartedAt: g.clock.Now()}

	sources, err := g.sources.ListActiveSources(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %w", signal.ErrConfigurationUnavailable, err)
	}
	lanes := classify.Partition(sources, g.feeds.FeedURL)

	for _, src := range lanes.Excluded {
		res.Excluded = append(res.Excluded, src.Name)
		g.logger.Info("source excluded from scheduled run", zap.String("slug", src.Slug))
	}
	for _, src := range lanes.Unclassified {
		res.Unclassified = append(res.Unclassified, src.Name)
		g.logger.Warn("source matched no lane",
			zap.String("slug", src.Slug),
			zap.String("kind", string(src.Kind)),
		)
	}

	g.runLane(ctx, laneFeedDirect, lanes.FeedDirect, &res, g.produceFeedDirect)
	g.runLane(ctx, laneWebsiteWithFeed, lanes.WebsiteWithFeed, &res, g.produceFeedBackedWebsite)
	g.runLane(ctx, laneWebsiteAuthBrowser, lanes.WebsiteAuthBrowser, &res, g.produceBrowser)
	g.runLane(ctx, laneWebsiteNoFeedBrowser, lanes.WebsiteNoFeedBrowser, &res, g.produceBrowser)

	res.FinishedAt = g.clock.Now()
	metrics.ObserveRunDuration(res.FinishedAt.Sub(res.StartedAt))
	g.publishBriefing(ctx, res)
	g.logger.Info("run complete",
		zap.Int("sources_scraped", res.SourcesScraped),
		zap.Int("signals_collected", res.SignalsCollected),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

type produceFunc func(ctx context.Context, src signal.Source) ([]signal.Signal, error)

// runLane iterates one lane sequentially. Health state is written exactly
// once per source per run, here and nowhere else.
func (g *Gatherer) runLane(
	ctx context.Context,
	lane string,
	sources []signal.Source,
	res *signal.RunResult,
	produce produceFunc,
) {
	for _, src := range sources {
		signals, err := produce(ctx, src)
		if err != nil {
			g.recordFailure(ctx, lane, src, err, res)
			continue
		}

		stored := g.storeNew(ctx, src, signals)
		res.SourcesScraped++
		res.SignalsCollected += stored

		if merr := g.sources.MarkSourceSuccess(ctx, src.ID, g.clock.Now()); merr != nil {
			g.logger.Error("mark source success",
				zap.String("slug", src.Slug), zap.Error(merr))
		}
		metrics.ObserveSource(lane, "success")
		metrics.AddSignalsStored(src.Slug, stored)
		g.logger.Info("source processed",
			zap.String("lane", lane),
			zap.String("slug", src.Slug),
			zap.Int("candidates", len(signals)),
			zap.Int("stored", stored),
		)
	}
}

func (g *Gatherer) recordFailure(
	ctx context.Context,
	lane string,
	src signal.Source,
	err error,
	res *signal.RunResult,
) {
	res.Errors = append(res.Errors, signal.SourceError{
		SourceName: src.Name,
		Component:  componentFor(err),
		Message:    err.Error(),
		OccurredAt: g.clock.Now(),
	})
	g.logger.Error("source failed",
		zap.String("lane", lane),
		zap.String("slug", src.Slug),
		zap.Error(err),
	)
	if merr := g.sources.MarkSourceFailure(ctx, src.ID, err.Error()); merr != nil {
		g.logger.Error("mark source failure",
			zap.String("slug", src.Slug), zap.Error(merr))
	}
	metrics.ObserveSource(lane, "failed")
}

// storeNew fingerprints and persists candidate signals. The store silently
// skips duplicates; a persistence error drops that one signal only.
func (g *Gatherer) storeNew(ctx context.Context, src signal.Source, signals []signal.Signal) int {
	stored := 0
	for _, sig := range signals {
		sig.Fingerprint = fingerprint.ForSignal(sig)
		sig.CollectedAt = g.clock.Now()

		inserted, err := g.signals.InsertSignalIfAbsent(ctx, sig)
		if err != nil {
			g.logger.Error("store signal",
				zap.String("slug", src.Slug),
				zap.String("url", sig.URL),
				zap.Error(fmt.Errorf("%w: %w", signal.ErrPersistenceFailed, err)),
			)
			continue
		}
		if inserted {
			stored++
		} else {
			g.logger.Debug("duplicate signal skipped",
				zap.String("slug", src.Slug),
				zap.String("fingerprint", sig.Fingerprint),
			)
		}
	}
	return stored
}

func (g *Gatherer) produceFeedDirect(ctx context.Context, src signal.Source) ([]signal.Signal, error) {
	if src.Kind == signal.SourceKindPodcast {
		return g.producePodcast(ctx, src)
	}
	return g.produceArticles(ctx, src, false)
}

func (g *Gatherer) produceFeedBackedWebsite(ctx context.Context, src signal.Source) ([]signal.Signal, error) {
	return g.produceArticles(ctx, src, true)
}

func (g *Gatherer) produceArticles(ctx context.Context, src signal.Source, enrich bool) ([]signal.Signal, error) {
	feedURL, err := g.feedURLFor(src)
	if err != nil {
		return nil, err
	}
	articles, err := g.feeds.FetchArticles(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	if enrich && g.pages != nil {
		for i := range articles {
			body, berr := g.pages.Fetch(ctx, articles[i].URL)
			if berr != nil {
				g.logger.Debug("article body fetch failed, keeping feed summary",
					zap.String("url", articles[i].URL), zap.Error(berr))
				continue
			}
			articles[i].Body = body
		}
	}
	return feed.ToSignals(src, articles), nil
}

func (g *Gatherer) producePodcast(ctx context.Context, src signal.Source) ([]signal.Signal, error) {
	episodes, err := g.feeds.FetchEpisodes(ctx, src)
	if err != nil {
		return nil, err
	}
	recent := feed.FilterRecent(episodes, g.cfg.MaxEpisodeAge, g.clock.Now())

	var signals []signal.Signal
	for _, ep := range recent {
		signals = append(signals, signal.Signal{
			SourceID:    src.ID,
			URL:         ep.URL,
			Title:       ep.Title,
			PublishedAt: ep.PublishedAt,
			Kind:        signal.SignalKindPodcastMetadata,
			Body:        ep.Description,
		})
		if transcript := g.maybeTranscript(ctx, src, ep); transcript != nil {
			signals = append(signals, *transcript)
		}
	}
	return signals, nil
}

// maybeTranscript runs the transcription gate and, when it passes, synthesizes
// a second signal for the episode. Transcription failure degrades to
// metadata-only and is never surfaced as a run error.
func (g *Gatherer) maybeTranscript(ctx context.Context, src signal.Source, ep signal.Episode) *signal.Signal {
	if g.transcriber == nil {
		return nil
	}
	if !transcribe.ShouldTranscribe(ep, src.Config.TranscriptionKeywords) {
		return nil
	}

	fp := fingerprint.Content(ep.URL, fingerprint.TranscriptMarker)
	exists, err := g.signals.SignalExists(ctx, fp)
	if err == nil && exists {
		g.logger.Debug("transcript already stored", zap.String("url", ep.URL))
		return nil
	}

	text, terr := g.transcriber.Transcribe(ctx, ep.AudioURL, ep.URL)
	if terr != nil || text == "" {
		g.logger.Warn("transcription failed, keeping metadata only",
			zap.String("slug", src.Slug),
			zap.String("url", ep.URL),
			zap.Error(terr),
		)
		metrics.ObserveTranscription("failed")
		return nil
	}
	metrics.ObserveTranscription("success")

	return &signal.Signal{
		SourceID:    src.ID,
		URL:         ep.URL,
		Title:       ep.Title,
		PublishedAt: ep.PublishedAt,
		Kind:        signal.SignalKindPodcastTranscript,
		Body:        text,
	}
}

// produceBrowser spins up one rendering session for the source, runs its
// extraction strategy, and guarantees teardown on every exit path.
func (g *Gatherer) produceBrowser(ctx context.Context, src signal.Source) ([]signal.Signal, error) {
	if g.newSession == nil {
		return nil, fmt.Errorf("%w: no session factory configured", signal.ErrSessionLaunchFailed)
	}
	session, err := g.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", signal.ErrSessionLaunchFailed, err)
	}
	defer func() {
		session.Close()
		g.pause(ctx)
	}()

	page, err := session.NewPage(src.Slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", signal.ErrSessionLaunchFailed, err)
	}

	strategy, ok := g.scrapers.Lookup(src.Slug)
	if !ok {
		g.logger.Warn("no extraction strategy registered", zap.String("slug", src.Slug))
		return nil, nil
	}

	signals, err := strategy.Run(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", signal.ErrExtractionFailed, err)
	}
	for i := range signals {
		signals[i].SourceID = src.ID
	}
	return signals, nil
}

// publishBriefing pushes the run summary to the briefing topic. A publish
// failure never fails the run; the signals are already stored.
func (g *Gatherer) publishBriefing(ctx context.Context, res signal.RunResult) {
	if g.publisher == nil || g.cfg.BriefingTopic == "" {
		return
	}
	id, err := g.publisher.Publish(ctx, g.cfg.BriefingTopic, res)
	if err != nil {
		g.logger.Warn("publish run briefing", zap.Error(err))
		return
	}
	g.logger.Info("run briefing published", zap.String("message_id", id))
}

// pause sleeps between browser sources and nudges the runtime to return
// freed memory before the next allocation spike.
func (g *Gatherer) pause(ctx context.Context) {
	debug.FreeOSMemory()
	if g.cfg.SessionPause <= 0 {
		return
	}
	select {
	case <-time.After(g.cfg.SessionPause):
	case <-ctx.Done():
	}
}

func (g *Gatherer) feedURLFor(src signal.Source) (string, error) {
	if src.Config.FeedURL != "" {
		return src.Config.FeedURL, nil
	}
	if url, ok := g.feeds.FeedURL(src.Slug); ok {
		return url, nil
	}
	return "", fmt.Errorf("%w: no feed registered for slug %q", signal.ErrFeedUnavailable, src.Slug)
}

func componentFor(err error) string {
	switch {
	case errors.Is(err, signal.ErrFeedUnavailable):
		return "feed"
	case errors.Is(err, signal.ErrSessionLaunchFailed):
		return "browser"
	case errors.Is(err, signal.ErrExtractionFailed):
		return "scraper"
	case errors.Is(err, signal.ErrPersistenceFailed):
		return "store"
	default:
		return "pipeline"
	}
}
