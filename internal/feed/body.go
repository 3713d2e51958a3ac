package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// PageFetcher pulls article pages over plain HTTP and extracts their main
// text. It serves the no-auth feed-backed website lane, where the feed entry
// only carries a summary and the full body lives on the linked page.
type PageFetcher struct {
	base *colly.Collector
}

// NewPageFetcher builds a PageFetcher with a synchronous collector.
func NewPageFetcher(userAgent string, timeout time.Duration) *PageFetcher {
	opts := []colly.CollectorOption{colly.Async(false)}
	if userAgent != "" {
		opts = append(opts, colly.UserAgent(userAgent))
	}
	c := colly.NewCollector(opts...)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &PageFetcher{base: c}
}

// Fetch downloads one article page and returns its extracted main text.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		body     []byte
		fetchErr error
	)
	collector := f.base.Clone()
	collector.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(pageURL); err != nil {
		return "", fmt.Errorf("visit %s: %w", pageURL, err)
	}
	if fetchErr != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
	}
	return ExtractMainText(body)
}

// ExtractMainText pulls readable paragraph text out of an HTML document,
// preferring semantic article/main containers over the whole body.
func ExtractMainText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse article html: %w", err)
	}

	for _, container := range []string{"article", "main", "body"} {
		sel := doc.Find(container).First()
		if sel.Length() == 0 {
			continue
		}
		var paragraphs []string
		sel.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n"), nil
		}
	}
	return strings.TrimSpace(doc.Text()), nil
}
