// Package scraper holds per-source extraction strategies for browser lanes.
package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/oculusre/signalharvest/internal/signal"
)

// Page is the browsing surface a strategy drives. The production
// implementation is a headless Chrome tab; tests substitute fakes.
type Page interface {
	Navigate(url string) error
	Click(selector string) error
	SendKeys(selector, value string) error
	OuterHTML() (string, error)
}

// Scraper extracts candidate signals from one source family's listing pages.
type Scraper interface {
	Slug() string
	Run(ctx context.Context, page Page) ([]signal.Signal, error)
}

// Registry maps source slugs to their extraction strategies.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: map[string]Scraper{}}
}

// Register adds or replaces a strategy under its slug.
func (r *Registry) Register(s Scraper) {
	if r.scrapers == nil {
		r.scrapers = map[string]Scraper{}
	}
	r.scrapers[s.Slug()] = s
}

// Lookup returns the strategy for a slug. A missing slug is not an error:
// coverage grows over time and the orchestrator treats it as zero signals.
func (r *Registry) Lookup(slug string) (Scraper, bool) {
	s, ok := r.scrapers[slug]
	return s, ok
}

// Slugs lists the registered slugs.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.scrapers))
	for slug := range r.scrapers {
		slugs = append(slugs, slug)
	}
	return slugs
}

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"2 Jan 2006",
}

// parseDate best-effort parses a listing date. Returns nil when no layout
// matches; signals without a publish timestamp are still collected.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

// resolveURL joins a possibly relative href against the site base.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
