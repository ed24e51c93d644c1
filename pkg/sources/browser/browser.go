// Package browser drives a headless Chrome session for providers whose
// search pages are rendered client side.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/rubiojr/basket/pkg/version"
)

// Options configures a Session.
type Options struct {
	Headless bool
	// ExecPath overrides the Chrome executable chromedp looks up.
	ExecPath  string
	UserAgent string
}

// Session is one browser process with a single tab. It is not safe for
// concurrent use.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *log.Logger
}

// NewSession starts the browser. The session is torn down when ctx is
// cancelled or Close is called.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1366, 900),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      log.ForService("browser"),
	}

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	return s, nil
}

// Run executes actions in the session tab.
func (s *Session) Run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(url string) error {
	s.logger.Debugf("navigating to %s", url)
	if err := s.Run(
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// WaitFor waits up to d for selector to become visible. It returns false
// when the wait timed out, and an error only when the session itself is
// gone.
func (s *Session) WaitFor(selector string, d time.Duration, opts ...chromedp.QueryOption) (bool, error) {
	if len(opts) == 0 {
		opts = []chromedp.QueryOption{chromedp.ByQuery}
	}
	ctx, cancel := context.WithTimeout(s.ctx, d)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitVisible(selector, opts...))
	switch {
	case err == nil:
		return true, nil
	case s.ctx.Err() != nil:
		return false, s.ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Debugf("%s not visible after %s", selector, d)
		return false, nil
	default:
		return false, err
	}
}

// Type clicks on selector and sends text to it, followed by Enter when
// submit is true.
func (s *Session) Type(selector, text string, submit bool, opts ...chromedp.QueryOption) error {
	if len(opts) == 0 {
		opts = []chromedp.QueryOption{chromedp.ByQuery}
	}
	if submit {
		text += kb.Enter
	}
	if err := s.Run(
		chromedp.WaitVisible(selector, opts...),
		chromedp.Click(selector, opts...),
		chromedp.SendKeys(selector, text, opts...),
	); err != nil {
		return fmt.Errorf("typing into %s: %w", selector, err)
	}
	return nil
}

// Click waits for selector and clicks it.
func (s *Session) Click(selector string, opts ...chromedp.QueryOption) error {
	if len(opts) == 0 {
		opts = []chromedp.QueryOption{chromedp.ByQuery}
	}
	if err := s.Run(
		chromedp.WaitVisible(selector, opts...),
		chromedp.Click(selector, opts...),
	); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

// Sleep pauses the session, honouring cancellation.
func (s *Session) Sleep(d time.Duration) error {
	return s.Run(chromedp.Sleep(d))
}

// Document returns the current DOM for parsing.
func (s *Session) Document() (*goquery.Document, error) {
	var html string
	if err := s.Run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("reading page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page html: %w", err)
	}
	return doc, nil
}

// ScrollToBottom scrolls until the page stops growing or rounds is
// exhausted, giving lazily loaded listings time to render.
func (s *Session) ScrollToBottom(rounds int, pause time.Duration) error {
	var last int64
	for i := 0; i < rounds; i++ {
		var height int64
		if err := s.Run(
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
			chromedp.Sleep(pause),
		); err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
		if height == last {
			return nil
		}
		last = height
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	if s.ctx.Err() == nil {
		err = chromedp.Cancel(s.ctx)
	}
	s.cancel()
	s.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
