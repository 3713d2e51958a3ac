// Package browser owns the lifecycle of headless Chrome sessions.
//
// One session is launched per browser-lane source and torn down before the
// next source starts. Holding N sessions while scraping N sources risks
// unbounded memory growth; one-session-per-source trades startup latency for
// a flat memory ceiling.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/scraper"
)

// Config controls session behavior.
type Config struct {
	NavTimeout time.Duration
	UserAgent  string
	Headless   bool
}

// Session wraps one exec allocator and its browser process. Close cancels
// both, which also tears down every page derived from the session.
type Session struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *zap.Logger
}

// NewSession launches a fresh browser process. A launch failure is returned
// to the caller as that source's error; nothing is left running.
func NewSession(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	for name, value := range sessionFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here instead of
	// on the first navigation.
	startCtx, cancel := context.WithTimeout(browserCtx, cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Session{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// sessionFlags computes the browser flags layered over the chromedp defaults.
// The defaults force headless mode; a false value removes the flag again so a
// visible browser can launch for local debugging.
func sessionFlags(cfg Config) map[string]any {
	flags := map[string]any{
		"disable-gpu":       true,
		"hide-scrollbars":   true,
		"enable-automation": false,
	}
	if cfg.Headless {
		flags["headless"] = "new"
	} else {
		flags["headless"] = false
	}
	return flags
}

// NewPage derives an isolated tab for one source.
func (s *Session) NewPage(slug string) (scraper.Page, error) {
	if s == nil || s.browserCtx == nil {
		return nil, fmt.Errorf("session is not initialized")
	}
	// The tab's lifetime is bounded by the session; Session.Close cancels
	// the parent context and tears the tab down with it.
	tabCtx, _ := chromedp.NewContext(s.browserCtx)
	s.logger.Debug("opened browsing context", zap.String("slug", slug))
	return &Page{
		ctx:     tabCtx,
		timeout: s.cfg.NavTimeout,
		ua:      s.cfg.UserAgent,
	}, nil
}

// Close tears down the browser and the allocator. It is safe to call more
// than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Page is one tab within a session. Every action runs under the session's
// navigation timeout.
type Page struct {
	ctx       context.Context
	timeout   time.Duration
	ua        string
	networkUp bool
}

var _ scraper.Page = (*Page)(nil)

func (p *Page) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *Page) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if p.networkUp {
			return nil
		}
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if p.ua != "" {
			if err := emulation.SetUserAgentOverride(p.ua).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		p.networkUp = true
		return nil
	})
}

// Navigate loads a URL and waits for the document body to be ready.
func (p *Page) Navigate(url string) error {
	err := p.run(
		p.setupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (p *Page) Click(selector string) error {
	if err := p.run(chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// SendKeys types into the first element matching the selector.
func (p *Page) SendKeys(selector, value string) error {
	if err := p.run(chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("send keys to %s: %w", selector, err)
	}
	return nil
}

// OuterHTML returns the fully rendered document.
func (p *Page) OuterHTML() (string, error) {
	var html string
	if err := p.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read outer html: %w", err)
	}
	return html, nil
}
