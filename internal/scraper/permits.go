package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oculusre/signalharvest/internal/signal"
)

const permitsBaseURL = "https://permits.examplecounty.gov"

// CountyPermits scrapes the county permit portal's recent commercial filings
// table. The portal renders the table with client-side JavaScript, so it only
// works behind a real browsing context.
type CountyPermits struct{}

// NewCountyPermits builds the county permit portal strategy.
func NewCountyPermits() *CountyPermits {
	return &CountyPermits{}
}

// Slug identifies the strategy inside the registry.
func (s *CountyPermits) Slug() string { return "county-permits" }

// Run loads the recent filings view and extracts one signal per commercial
// permit row.
func (s *CountyPermits) Run(ctx context.Context, page Page) ([]signal.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.Navigate(permitsBaseURL + "/search/recent?type=commercial"); err != nil {
		return nil, fmt.Errorf("open filings page: %w", err)
	}
	html, err := page.OuterHTML()
	if err != nil {
		return nil, fmt.Errorf("read filings html: %w", err)
	}
	return parsePermitRows(html)
}

func parsePermitRows(html string) ([]signal.Signal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse filings: %w", err)
	}

	var signals []signal.Signal
	doc.Find("table.results tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		number := strings.TrimSpace(cells.Eq(0).Text())
		address := strings.TrimSpace(cells.Eq(1).Text())
		description := strings.TrimSpace(cells.Eq(2).Text())
		filed := strings.TrimSpace(cells.Eq(3).Text())
		if number == "" {
			return
		}
		href, _ := cells.Eq(0).Find("a").Attr("href")
		if href == "" {
			href = "/permit/" + number
		}
		signals = append(signals, signal.Signal{
			URL:         resolveURL(permitsBaseURL, href),
			Title:       fmt.Sprintf("Permit %s: %s", number, address),
			PublishedAt: parseDate(filed),
			Kind:        signal.SignalKindArticle,
			Body:        description,
		})
	})
	return signals, nil
}
