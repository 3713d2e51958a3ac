package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oculusre/signalharvest/internal/signal"
)

const chamberBaseURL = "https://www.metrochamber.org"

// Chamber scrapes the chamber of commerce announcements page. The chamber
// publishes no feed; announcements land as cards on a single news page.
type Chamber struct{}

// NewChamber builds the chamber of commerce strategy.
func NewChamber() *Chamber {
	return &Chamber{}
}

// Slug identifies the strategy inside the registry.
func (s *Chamber) Slug() string { return "metro-chamber" }

// Run loads the announcements page and extracts one signal per card.
func (s *Chamber) Run(ctx context.Context, page Page) ([]signal.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.Navigate(chamberBaseURL + "/news"); err != nil {
		return nil, fmt.Errorf("open announcements page: %w", err)
	}
	html, err := page.OuterHTML()
	if err != nil {
		return nil, fmt.Errorf("read announcements html: %w", err)
	}
	return parseChamberCards(html)
}

func parseChamberCards(html string) ([]signal.Signal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse announcements: %w", err)
	}

	var signals []signal.Signal
	doc.Find("div.news-card").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.news-card-link").First()
		title := strings.TrimSpace(card.Find(".news-card-title").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}
		signals = append(signals, signal.Signal{
			URL:         resolveURL(chamberBaseURL, href),
			Title:       title,
			PublishedAt: parseDate(card.Find(".news-card-date").First().Text()),
			Kind:        signal.SignalKindArticle,
			Body:        strings.TrimSpace(card.Find(".news-card-teaser").First().Text()),
		})
	})
	return signals, nil
}
