package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"threadscraper/pkg/browser"
	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/threads"
)

// Expander fetches a composite post's own page and collects the texts of
// the thread posts authored by handle, in page order.
type Expander interface {
	Expand(ctx context.Context, permalink, handle string) ([]string, error)
}

// threadExpander implements Expander with a short-lived browser tab per
// permalink. The listing tab keeps its scroll position untouched.
type threadExpander struct {
	manager    *browser.Manager
	cascades   threads.Cascades
	waitTime   time.Duration
	navTimeout time.Duration
	logger     logger.Logger
}

// NewThreadExpander creates the production expander. waitTime is the
// render pause after navigation before the page is snapshotted, and
// navTimeout bounds the whole navigate-and-snapshot round trip.
func NewThreadExpander(manager *browser.Manager, cascades threads.Cascades, waitTime, navTimeout time.Duration) Expander {
	return &threadExpander{
		manager:    manager,
		cascades:   cascades,
		waitTime:   waitTime,
		navTimeout: navTimeout,
		logger:     logger.GetLogger(),
	}
}

func (e *threadExpander) Expand(ctx context.Context, permalink, handle string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExpansion, "expansion cancelled", err)
	}

	tab, cancel := e.manager.NewTab()
	defer cancel()

	tab, cancelTimeout := context.WithTimeout(tab, e.navTimeout)
	defer cancelTimeout()

	err := chromedp.Run(tab,
		chromedp.Navigate(permalink),
		chromedp.Sleep(e.waitTime),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExpansion, "opening thread page", err)
	}

	snaps, err := snapshotItems(tab, e.cascades)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExpansion, "reading thread page", err)
	}

	var fragments []string
	seen := make(map[string]struct{})
	for _, snap := range snaps {
		item, err := threads.NewItem(snap)
		if err != nil {
			continue
		}
		if !threads.OwnedBy(item, handle) {
			continue
		}
		text := threads.FragmentText(item, handle)
		if !threads.KeepFragment(text) {
			continue
		}
		// Thread pages render the focused post twice (header and inline).
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		fragments = append(fragments, text)
	}

	e.logger.DebugWithFields("Thread page expanded", map[string]interface{}{
		"permalink": permalink,
		"fragments": len(fragments),
	})
	return fragments, nil
}
