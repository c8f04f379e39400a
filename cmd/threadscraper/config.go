package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"threadscraper/pkg/config"
	"threadscraper/pkg/ui"
)

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			ui.PrintError("Failed to load configuration", err.Error())
			os.Exit(1)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".threadscraper.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			ui.PrintError("Refusing to overwrite existing file", path)
			os.Exit(1)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			ui.PrintError("Failed to write config", err.Error())
			os.Exit(1)
		}

		abs, _ := filepath.Abs(path)
		ui.PrintSuccess("Wrote " + abs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
