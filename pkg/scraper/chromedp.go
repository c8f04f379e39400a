package scraper

import (
	"context"

	"github.com/chromedp/chromedp"

	"threadscraper/pkg/errors"
	"threadscraper/pkg/threads"
)

// browserPage implements Page over a live chromedp tab.
type browserPage struct {
	cascades threads.Cascades
}

func newBrowserPage(cascades threads.Cascades) *browserPage {
	return &browserPage{cascades: cascades}
}

func (p *browserPage) Height(ctx context.Context) (int64, error) {
	var height int64
	err := chromedp.Run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height))
	return height, err
}

func (p *browserPage) ItemCount(ctx context.Context) (int, error) {
	var count int
	err := chromedp.Run(ctx, chromedp.Evaluate(p.cascades.CountItemsJS(), &count))
	return count, err
}

func (p *browserPage) ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
}

func (p *browserPage) Nudge(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollBy(0, -400)`, nil),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
}

// snapshotItems captures every item container currently rendered in the
// tab as detached {html, text} snapshots, in document order.
func snapshotItems(ctx context.Context, cascades threads.Cascades) ([]threads.Snapshot, error) {
	var snaps []threads.Snapshot
	err := chromedp.Run(ctx, chromedp.Evaluate(cascades.ItemContainerJS(), &snaps))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeExtraction, "snapshotting items", err)
	}
	return snaps, nil
}
