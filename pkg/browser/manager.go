package browser

import (
	"context"
	"os"

	"github.com/chromedp/chromedp"

	"threadscraper/pkg/config"
	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
)

// Manager owns the Chrome process and its root browsing context. One
// manager serves a whole run: the listing tab plus any short-lived
// expansion tabs all derive from its context.
type Manager struct {
	cfg    config.BrowserConfig
	logger logger.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewManager creates a browser manager. Start must be called before any
// tab is requested.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.GetLogger(),
	}
}

// Start launches Chrome and opens the root browsing context.
func (m *Manager) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if m.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.UserAgent))
	}
	if path := m.chromePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx)

	// An empty task list forces the browser to actually launch so startup
	// failures surface here instead of on the first navigation.
	if err := chromedp.Run(m.browserCtx); err != nil {
		m.Stop()
		return errors.Wrap(errors.ErrorTypeNavigation, "launching browser", err)
	}

	m.logger.WithField("headless", m.cfg.Headless).Debug("Browser started")
	return nil
}

// chromePath resolves the Chrome binary: explicit config first, then the
// CHROME_PATH environment variable, then chromedp's own lookup.
func (m *Manager) chromePath() string {
	if m.cfg.ChromePath != "" {
		return m.cfg.ChromePath
	}
	return os.Getenv("CHROME_PATH")
}

// Context returns the root browsing context (the listing tab).
func (m *Manager) Context() context.Context {
	return m.browserCtx
}

// NewTab opens a fresh tab sharing the browser's session state. The
// returned cancel closes the tab; callers must always invoke it.
func (m *Manager) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(m.browserCtx)
}

// Stop tears the browser down. Safe to call multiple times and on a
// manager that failed to start.
func (m *Manager) Stop() {
	if m.browserCancel != nil {
		m.browserCancel()
		m.browserCancel = nil
	}
	if m.allocCancel != nil {
		m.allocCancel()
		m.allocCancel = nil
	}
}
