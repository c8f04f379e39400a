package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"threadscraper/pkg/browser"
	"threadscraper/pkg/config"
	"threadscraper/pkg/logger"
	"threadscraper/pkg/session"
	"threadscraper/pkg/ui"
)

var authAccount string

// authCmd groups session management commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored login sessions",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through a browser window and store the session",
	Long: `Open a headed browser on the Threads login page. Complete the login
there, then press Enter in the terminal; the session is captured and
stored in the system keychain (or an encrypted file when no keychain is
available). Credentials themselves are never seen or stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runLogin()
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		runStatus()
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		runLogout()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)

	authCmd.PersistentFlags().StringVarP(&authAccount, "account", "a", "", "session name (default from config)")
}

func loadAuthConfig() (*config.Config, string) {
	flags := make(map[string]interface{})
	if authAccount != "" {
		flags["account"] = authAccount
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	logger.Initialize(&cfg.Logging)
	return cfg, cfg.Session.Account
}

func runLogin() {
	cfg, account := loadAuthConfig()

	// Login has to be visible: the operator does the typing.
	cfg.Browser.Headless = false

	store, err := session.NewStore(cfg.Session.File)
	if err != nil {
		ui.PrintError("Failed to open session store", err.Error())
		os.Exit(1)
	}

	manager := browser.NewManager(cfg.Browser)
	if err := manager.Start(context.Background()); err != nil {
		ui.PrintError("Failed to start browser", err.Error())
		os.Exit(1)
	}
	defer manager.Stop()

	auth := browser.NewAuthenticator(manager, store)
	if err := auth.InteractiveLogin(manager.Context(), account); err != nil {
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Session stored as '" + account + "'")
}

func runStatus() {
	cfg, account := loadAuthConfig()

	store, err := session.NewStore(cfg.Session.File)
	if err != nil {
		ui.PrintError("Failed to open session store", err.Error())
		os.Exit(1)
	}

	state, err := store.Load(account)
	if err != nil {
		ui.PrintWarning("No session stored for '" + account + "'")
		return
	}
	ui.PrintInfo("Account", state.Account)
	ui.PrintInfo("Saved", state.SavedAt.Format("2006-01-02 15:04:05 MST"))
}

func runLogout() {
	cfg, account := loadAuthConfig()

	store, err := session.NewStore(cfg.Session.File)
	if err != nil {
		ui.PrintError("Failed to open session store", err.Error())
		os.Exit(1)
	}

	if err := store.Delete(account); err != nil {
		ui.PrintWarning("No session stored for '" + account + "'")
		return
	}
	ui.PrintSuccess("Session '" + account + "' removed")
}
