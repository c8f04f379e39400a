package scraper

import (
	"context"
	"time"

	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/retry"
)

// Page is the minimal view of a live listing the pagination engine needs.
// The production implementation drives a browser tab; tests substitute a
// scripted fake.
type Page interface {
	// Height returns the current document scroll height in pixels.
	Height(ctx context.Context) (int64, error)
	// ItemCount returns the number of item containers currently rendered.
	ItemCount(ctx context.Context) (int, error)
	// ScrollToBottom scrolls the viewport to the document bottom.
	ScrollToBottom(ctx context.Context) error
	// Nudge performs a small upward-then-downward wiggle. Some listings
	// only arm their infinite-scroll trigger after movement, not position.
	Nudge(ctx context.Context) error
}

// Paginator drives infinite scroll until the listing stops producing new
// content. Growth means the scroll height or the rendered item count
// strictly increased since the previous scroll; either signal alone keeps
// the loop alive, because late-loading media can grow the page without new
// items and virtualized lists can add items without growing the page.
type Paginator struct {
	page       Page
	waitTime   time.Duration
	maxRetries int
	maxScrolls int
	logger     logger.Logger
}

// NewPaginator creates a pagination engine over the given page. maxRetries
// is the number of consecutive no-growth scrolls tolerated before the
// listing is considered exhausted; maxScrolls is a hard safety valve.
func NewPaginator(page Page, waitTime time.Duration, maxRetries, maxScrolls int) *Paginator {
	return &Paginator{
		page:       page,
		waitTime:   waitTime,
		maxRetries: maxRetries,
		maxScrolls: maxScrolls,
		logger:     logger.GetLogger(),
	}
}

// LoadAll scrolls until content converges and returns the number of
// scrolls performed. Convergence is maxRetries consecutive scrolls with no
// growth; hitting maxScrolls first returns normally with a warning, so a
// runaway listing still yields everything loaded so far.
func (p *Paginator) LoadAll(ctx context.Context) (int, error) {
	height, err := p.page.Height(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeNavigation, "reading initial page height", err)
	}
	count, err := p.page.ItemCount(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeNavigation, "reading initial item count", err)
	}

	scrolls := 0
	noGrowth := 0

	for scrolls < p.maxScrolls {
		if err := ctx.Err(); err != nil {
			return scrolls, errors.Wrap(errors.ErrorTypeNavigation, "pagination cancelled", err)
		}

		if err := p.page.ScrollToBottom(ctx); err != nil {
			return scrolls, errors.Wrap(errors.ErrorTypeNavigation, "scrolling listing", err)
		}
		scrolls++

		if err := retry.Wait(ctx, p.waitTime); err != nil {
			return scrolls, errors.Wrap(errors.ErrorTypeNavigation, "pagination cancelled", err)
		}

		newHeight, err := p.page.Height(ctx)
		if err != nil {
			return scrolls, errors.Wrap(errors.ErrorTypeNavigation, "reading page height", err)
		}
		newCount, err := p.page.ItemCount(ctx)
		if err != nil {
			return scrolls, errors.Wrap(errors.ErrorTypeNavigation, "reading item count", err)
		}

		grew := newHeight > height || newCount > count
		if grew {
			noGrowth = 0
		} else {
			noGrowth++
			// One extra wiggle before the next measurement; harmless when
			// the listing is genuinely exhausted.
			if nerr := p.page.Nudge(ctx); nerr != nil {
				p.logger.WithError(nerr).Debug("Bottom nudge failed")
			}
		}

		logger.LogScroll(scrolls, int(newHeight), newCount, noGrowth)

		height, count = newHeight, newCount

		if noGrowth >= p.maxRetries {
			p.logger.WithFields(map[string]interface{}{
				"scrolls": scrolls,
				"items":   count,
			}).Info("Listing converged")
			return scrolls, nil
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"max_scrolls": p.maxScrolls,
		"items":       count,
	}).Warn("Scroll cap reached before convergence")
	return scrolls, nil
}
