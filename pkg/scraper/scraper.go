package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"threadscraper/pkg/browser"
	"threadscraper/pkg/config"
	"threadscraper/pkg/dedup"
	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/models"
	"threadscraper/pkg/ratelimit"
	"threadscraper/pkg/retry"
	"threadscraper/pkg/session"
	"threadscraper/pkg/threads"
)

const loginPath = "/login"

// Scraper orchestrates a full harvesting run: authenticate, load the
// repost listing to exhaustion, extract every item, expand composite
// threads, drop records already exported by earlier runs.
type Scraper struct {
	cfg       *config.Config
	manager   *browser.Manager
	auth      *browser.Authenticator
	cascades  threads.Cascades
	extractor *threads.Extractor
	expander  Expander
	limiter   ratelimit.Limiter
	logger    logger.Logger
}

// New creates a scraper from configuration. The browser is not launched
// until Run.
func New(cfg *config.Config) (*Scraper, error) {
	store, err := session.NewStore(cfg.Session.File)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAuth, "opening session store", err)
	}

	manager := browser.NewManager(cfg.Browser)
	cascades := threads.DefaultCascades()

	return &Scraper{
		cfg:       cfg,
		manager:   manager,
		auth:      browser.NewAuthenticator(manager, store),
		cascades:  cascades,
		extractor: threads.NewExtractor(cascades),
		expander:  NewThreadExpander(manager, cascades, cfg.Scraper.ScrollWaitTime, cfg.Browser.NavTimeout),
		limiter:   ratelimit.PerMinute(cfg.Scraper.ExpansionsPerMinute),
		logger:    logger.GetLogger(),
	}, nil
}

// Run scrapes username's reposts tab end to end and returns the result.
// Per-item failures are collected in the result; only authentication,
// navigation, and cancellation abort the run. The browser is torn down on
// every path.
func (s *Scraper) Run(ctx context.Context, username string) (*models.Result, error) {
	result := &models.Result{
		Username:  username,
		ScrapedAt: time.Now().UTC(),
	}

	if err := s.manager.Start(ctx); err != nil {
		return nil, err
	}
	defer s.manager.Stop()

	tab := s.manager.Context()

	account := s.cfg.Session.Account
	if account != "" && s.auth.HasSession(account) {
		if err := s.auth.RestoreSession(account); err != nil {
			s.logger.WithError(err).Warn("Saved session could not be restored, continuing without it")
		}
	}

	if err := s.navigateToListing(tab, username); err != nil {
		return nil, err
	}

	if err := s.warmup(tab); err != nil {
		return nil, err
	}

	paginator := NewPaginator(
		newBrowserPage(s.cascades),
		s.cfg.Scraper.ScrollWaitTime,
		s.cfg.Scraper.MaxRetries,
		s.cfg.Scraper.MaxScrolls,
	)
	scrolls, err := paginator.LoadAll(tab)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("scrolls", scrolls).Info("Listing fully loaded")

	snaps, err := snapshotItems(tab, s.cascades)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("items", len(snaps)).Info("Items captured")

	reposts, itemErrors := s.processItems(tab, snaps)
	result.Errors = itemErrors

	if err := s.finalize(result, reposts); err != nil {
		return nil, err
	}

	if account != "" {
		if err := s.auth.SaveCurrentSession(tab, account); err != nil {
			s.logger.WithError(err).Warn("Could not refresh saved session")
		}
	}

	return result, nil
}

// navigateToListing opens username's reposts tab, retrying transient
// navigation failures. Landing on the login page means the session is
// missing or expired; that is fatal, not retryable.
func (s *Scraper) navigateToListing(tab context.Context, username string) error {
	url := threads.SiteOrigin + "/@" + username + "/reposts"

	op := func() error {
		navCtx, cancel := context.WithTimeout(tab, s.cfg.Browser.NavTimeout)
		defer cancel()

		var currentURL string
		err := chromedp.Run(navCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(s.cfg.Browser.InitialWait),
			chromedp.Location(&currentURL),
		)
		if err != nil {
			return errors.Wrap(errors.ErrorTypeNavigation, "opening repost listing", err)
		}
		if strings.Contains(currentURL, loginPath) {
			return errors.New(errors.ErrorTypeAuth, "redirected to login; run the login command first")
		}
		return nil
	}

	cfg := retry.DefaultConfig()
	cfg.Context = tab
	return retry.Do(op, cfg)
}

// warmup performs one small scroll after initial load and returns to the
// top. The listing does not arm its infinite-scroll trigger until the
// viewport has moved once.
func (s *Scraper) warmup(tab context.Context) error {
	err := chromedp.Run(tab,
		chromedp.Evaluate(`window.scrollBy(0, 600)`, nil),
		chromedp.Sleep(s.cfg.Browser.InitialWait),
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNavigation, "warmup scroll", err)
	}
	return nil
}

// processItems extracts a record from every snapshot and expands the ones
// that look like truncated threads. Failures are per-item: a bad snapshot
// or a failed expansion contributes an error string and the run moves on.
func (s *Scraper) processItems(ctx context.Context, snaps []threads.Snapshot) ([]models.Repost, []string) {
	var reposts []models.Repost
	var errs []string

	for i, snap := range snaps {
		item, err := threads.NewItem(snap)
		if err != nil {
			s.logger.WithError(err).WithField("item", i).Warn("Skipping unusable item")
			errs = append(errs, err.Error())
			continue
		}

		repost, err := s.extractor.ExtractItem(item)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		if !repost.IsDeleted && repost.SourceURL != "" && threads.IsComposite(item) {
			repost = s.expand(ctx, repost, &errs)
		}

		reposts = append(reposts, repost)
	}

	return reposts, errs
}

// expand folds the thread chain behind repost's permalink into its text.
// On failure the original truncated record is kept.
func (s *Scraper) expand(ctx context.Context, repost models.Repost, errs *[]string) models.Repost {
	if err := s.limiter.Wait(ctx); err != nil {
		*errs = append(*errs, err.Error())
		return repost
	}

	fragments, err := s.expander.Expand(ctx, repost.SourceURL, repost.AuthorHandle)
	logger.LogExpansion(repost.SourceURL, len(fragments), err)
	if err != nil {
		*errs = append(*errs, err.Error())
		return repost
	}

	text, composite, parts := threads.FoldFragments(fragments)
	if parts == 0 {
		// Nothing usable on the thread page; the truncated text is
		// better than none.
		return repost
	}

	repost.Text = text
	repost.IsComposite = composite
	repost.PartCount = parts
	return repost
}

// finalize filters duplicates against previous exports, applies the fresh
// record cap, and fills the result counters.
func (s *Scraper) finalize(result *models.Result, reposts []models.Repost) error {
	fresh := reposts
	if !s.cfg.Scraper.SkipDedup {
		idx, err := dedup.Load(s.cfg.Output.Directory, result.Username)
		if err != nil {
			return errors.Wrap(errors.ErrorTypeExport, "loading deduplication index", err)
		}
		var duplicates []models.Repost
		fresh, duplicates = idx.Filter(reposts)
		result.DuplicateCount = len(duplicates)
	}

	if limit := s.cfg.Scraper.MaxPosts; limit > 0 && len(fresh) > limit {
		s.logger.WithFields(map[string]interface{}{
			"collected": len(fresh),
			"cap":       limit,
		}).Info("Applying post cap")
		fresh = fresh[:limit]
	}

	result.Reposts = fresh
	result.TotalCount = len(fresh)
	result.NewCount = len(fresh)
	for _, r := range fresh {
		if !r.IsDeleted {
			result.SuccessCount++
		}
	}
	return nil
}
