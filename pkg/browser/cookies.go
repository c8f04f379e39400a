package browser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"threadscraper/pkg/errors"
)

// ExportCookies captures the browser's cookie jar as JSON, suitable for
// handing to a session store.
func ExportCookies(ctx context.Context) (json.RawMessage, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAuth, "exporting cookies", err)
	}

	data, err := json.Marshal(cookies)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAuth, "encoding cookies", err)
	}
	return data, nil
}

// ImportCookies restores a previously exported cookie jar into the
// browser, re-establishing a saved session before the first navigation.
func ImportCookies(ctx context.Context, raw json.RawMessage) error {
	var saved []*network.Cookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "decoding saved cookies", err)
	}

	params := make([]*network.CookieParam, 0, len(saved))
	for _, c := range saved {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(0, int64(c.Expires*float64(time.Second))))
			p.Expires = &expires
		}
		params = append(params, p)
	}

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "restoring cookies", err)
	}
	return nil
}
