package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oculusre/signalharvest/internal/signal"
)

const metroBizBaseURL = "https://www.metrobizjournal.com"

// Credentials hold a login for an authentication-gated source.
type Credentials struct {
	Username string
	Password string
}

// MetroBiz scrapes the subscriber-only commercial real estate section of the
// metro business journal. It logs in inside the per-source browsing context
// before reading the listing page.
type MetroBiz struct {
	creds Credentials
}

// NewMetroBiz builds the metro business journal strategy.
func NewMetroBiz(creds Credentials) *MetroBiz {
	return &MetroBiz{creds: creds}
}

// Slug identifies the strategy inside the registry.
func (s *MetroBiz) Slug() string { return "metro-biz" }

// Run logs in, loads the commercial real estate listing, and extracts
// headline entries.
func (s *MetroBiz) Run(ctx context.Context, page Page) ([]signal.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := page.Navigate(metroBizBaseURL + "/login"); err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	if err := page.SendKeys("#email", s.creds.Username); err != nil {
		return nil, fmt.Errorf("fill email: %w", err)
	}
	if err := page.SendKeys("#password", s.creds.Password); err != nil {
		return nil, fmt.Errorf("fill password: %w", err)
	}
	if err := page.Click("button[type=submit]"); err != nil {
		return nil, fmt.Errorf("submit login: %w", err)
	}

	if err := page.Navigate(metroBizBaseURL + "/news/commercial-real-estate"); err != nil {
		return nil, fmt.Errorf("open listing page: %w", err)
	}
	html, err := page.OuterHTML()
	if err != nil {
		return nil, fmt.Errorf("read listing html: %w", err)
	}
	return parseMetroBizListing(html)
}

func parseMetroBizListing(html string) ([]signal.Signal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var signals []signal.Signal
	doc.Find("article.media-item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("h3 a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}
		summary := strings.TrimSpace(item.Find("p.abstract").First().Text())
		signals = append(signals, signal.Signal{
			URL:         resolveURL(metroBizBaseURL, href),
			Title:       title,
			PublishedAt: parseDate(item.Find("time").First().Text()),
			Kind:        signal.SignalKindArticle,
			Body:        summary,
		})
	})
	return signals, nil
}
