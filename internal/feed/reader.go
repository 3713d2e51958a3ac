// Package feed pulls and parses syndicated feeds for the gathering pipeline.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/signal"
)

// Reader resolves registered feed URLs and fetches their items. The slug to
// feed-URL table is injected at construction; a source's own configured feed
// URL takes precedence over the table.
type Reader struct {
	feedURLs map[string]string
	client   *http.Client
	logger   *zap.Logger
}

// NewReader builds a Reader over the given feed table.
func NewReader(feedURLs map[string]string, client *http.Client, logger *zap.Logger) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		feedURLs: feedURLs,
		client:   client,
		logger:   logger,
	}
}

// FeedURL looks up the feed registered for a source slug.
func (r *Reader) FeedURL(slug string) (string, bool) {
	url, ok := r.feedURLs[slug]
	return url, ok
}

func (r *Reader) resolveURL(src signal.Source) (string, error) {
	if src.Config.FeedURL != "" {
		return src.Config.FeedURL, nil
	}
	if url, ok := r.FeedURL(src.Slug); ok {
		return url, nil
	}
	return "", fmt.Errorf("%w: no feed registered for slug %q", signal.ErrFeedUnavailable, src.Slug)
}

func (r *Reader) parse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	parser := gofeed.NewParser()
	parser.Client = r.client
	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", signal.ErrFeedUnavailable, feedURL, err)
	}
	return parsed, nil
}

// FetchEpisodes retrieves the feed registered to a podcast source and maps
// its items into transient episodes.
func (r *Reader) FetchEpisodes(ctx context.Context, src signal.Source) ([]signal.Episode, error) {
	feedURL, err := r.resolveURL(src)
	if err != nil {
		return nil, err
	}
	parsed, err := r.parse(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	episodes := make([]signal.Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		episodes = append(episodes, signal.Episode{
			URL:         item.Link,
			Title:       item.Title,
			Description: item.Description,
			PublishedAt: item.PublishedParsed,
			AudioURL:    audioURL(item),
		})
	}
	r.logger.Debug("fetched episodes",
		zap.String("slug", src.Slug),
		zap.String("feed_url", feedURL),
		zap.Int("count", len(episodes)),
	)
	return episodes, nil
}

// FetchArticles retrieves and parses an article feed.
func (r *Reader) FetchArticles(ctx context.Context, feedURL string) ([]signal.Article, error) {
	parsed, err := r.parse(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	articles := make([]signal.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		articles = append(articles, signal.Article{
			URL:         item.Link,
			Title:       item.Title,
			Summary:     item.Description,
			PublishedAt: item.PublishedParsed,
		})
	}
	return articles, nil
}

func audioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") || enc.Type == "" {
			return enc.URL
		}
	}
	return ""
}

// FilterRecent keeps episodes published within the window ending at now.
// Episodes without a parseable timestamp are kept: a malformed feed must not
// silently lose content.
func FilterRecent(episodes []signal.Episode, maxAge time.Duration, now time.Time) []signal.Episode {
	if maxAge <= 0 {
		return episodes
	}
	cutoff := now.Add(-maxAge)
	recent := make([]signal.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.PublishedAt == nil || !ep.PublishedAt.Before(cutoff) {
			recent = append(recent, ep)
		}
	}
	return recent
}

// ToSignals maps feed articles into article signals for the owning source.
// The article body falls back to the feed-provided summary when enrichment
// did not run.
func ToSignals(src signal.Source, articles []signal.Article) []signal.Signal {
	signals := make([]signal.Signal, 0, len(articles))
	for _, art := range articles {
		body := art.Body
		if body == "" {
			body = art.Summary
		}
		signals = append(signals, signal.Signal{
			SourceID:    src.ID,
			URL:         art.URL,
			Title:       art.Title,
			PublishedAt: art.PublishedAt,
			Kind:        signal.SignalKindArticle,
			Body:        body,
		})
	}
	return signals
}
