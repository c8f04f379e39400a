package browser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"threadscraper/pkg/errors"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/session"
	"threadscraper/pkg/threads"
)

const loginPath = "/login"

// Authenticator restores and verifies login sessions. The login flow
// itself is interactive: scripted credential entry trips bot detection
// far more often than a human in a headed window, so the tool never
// touches the password.
type Authenticator struct {
	manager *Manager
	store   session.Store
	logger  logger.Logger
}

// NewAuthenticator creates an authenticator over the given browser and
// session store.
func NewAuthenticator(manager *Manager, store session.Store) *Authenticator {
	return &Authenticator{
		manager: manager,
		store:   store,
		logger:  logger.GetLogger(),
	}
}

// RestoreSession loads the saved session for account into the browser.
func (a *Authenticator) RestoreSession(account string) error {
	state, err := a.store.Load(account)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "loading saved session", err)
	}
	if err := ImportCookies(a.manager.Context(), state.Cookies); err != nil {
		return err
	}
	a.logger.WithFields(map[string]interface{}{
		"account":  account,
		"saved_at": state.SavedAt,
	}).Debug("Session restored")
	return nil
}

// Verify navigates to the site and reports whether the browser is logged
// in. An anonymous visitor is bounced to the login page.
func (a *Authenticator) Verify(ctx context.Context) (bool, error) {
	var currentURL string
	err := chromedp.Run(ctx,
		chromedp.Navigate(threads.SiteOrigin),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return false, errors.Wrap(errors.ErrorTypeNavigation, "verifying session", err)
	}
	return !strings.Contains(currentURL, loginPath), nil
}

// InteractiveLogin opens the login page in a headed window, waits for the
// operator to finish logging in, then captures and saves the session.
func (a *Authenticator) InteractiveLogin(ctx context.Context, account string) error {
	err := chromedp.Run(ctx, chromedp.Navigate(threads.SiteOrigin+loginPath))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNavigation, "opening login page", err)
	}

	fmt.Fprintln(os.Stderr, "Log in through the browser window, then press Enter here to continue...")
	bufio.NewScanner(os.Stdin).Scan()

	loggedIn, err := a.Verify(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		return errors.New(errors.ErrorTypeAuth, "login was not completed")
	}

	cookies, err := ExportCookies(ctx)
	if err != nil {
		return err
	}

	state := &session.State{
		Account: account,
		Cookies: cookies,
		SavedAt: time.Now().UTC(),
	}
	if err := a.store.Save(state); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "saving session", err)
	}

	a.logger.WithField("account", account).Info("Session saved")
	return nil
}

// SaveCurrentSession captures the live cookie jar for account. Called at
// the end of successful runs so rotated cookies survive to the next one.
func (a *Authenticator) SaveCurrentSession(ctx context.Context, account string) error {
	cookies, err := ExportCookies(ctx)
	if err != nil {
		return err
	}
	return a.store.Save(&session.State{
		Account: account,
		Cookies: cookies,
		SavedAt: time.Now().UTC(),
	})
}

// HasSession reports whether a saved session exists for account.
func (a *Authenticator) HasSession(account string) bool {
	return a.store.Exists(account)
}

// Logout discards the saved session for account.
func (a *Authenticator) Logout(account string) error {
	if err := a.store.Delete(account); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "deleting saved session", err)
	}
	return nil
}
